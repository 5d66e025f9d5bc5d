package keeper

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/keeper-works/go-chief-keeper/datastore"
)

// indexYays extends the candidate set with every address voted for in the
// span (cp.LastScannedBlock, toBlock]. The checkpoint always advances to
// toBlock, etches or not, so an already-covered span is never rescanned.
func (k *Keeper) indexYays(ctx context.Context, cp *datastore.Checkpoint, toBlock uint64) error {
	if toBlock <= cp.LastScannedBlock {
		return nil
	}

	etches, err := k.gw.PastEtches(ctx, cp.LastScannedBlock+1, toBlock)
	if err != nil {
		return fmt.Errorf("query etches: %w", err)
	}

	if len(etches) > 0 {
		maxYays, err := k.gw.MaxYays(ctx)
		if err != nil {
			return fmt.Errorf("read MAX_YAYS: %w", err)
		}
		for _, etch := range etches {
			yays, err := k.unpackSlate(ctx, etch.Slate, maxYays)
			if err != nil {
				return fmt.Errorf("unpack slate %s: %w", etch.Slate.Hex(), err)
			}
			for _, yay := range yays {
				if cp.AddYay(yay) {
					k.log.WithFields(logrus.Fields{
						"yay":   yay.Hex(),
						"block": etch.Block,
					}).Debug("new candidate indexed")
				}
			}
		}
	}

	cp.Advance(toBlock)
	return nil
}

// unpackSlate resolves a slate's members by indexed lookup. The first
// out-of-range result ends the slate; maxYays bounds the loop even if the
// gateway never reports one.
func (k *Keeper) unpackSlate(ctx context.Context, slate common.Hash, maxYays uint64) ([]common.Address, error) {
	var yays []common.Address
	for i := uint64(0); i < maxYays; i++ {
		yay, ok, err := k.gw.SlateMember(ctx, slate, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		yays = append(yays, yay)
	}
	return yays, nil
}
