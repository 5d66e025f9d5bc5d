package keeper

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/keeper-works/go-chief-keeper/datastore"
)

// checkEtas maintains the pending-eta table and casts spells whose pause
// delay has expired as of the current block's timestamp.
func (k *Keeper) checkEtas(ctx context.Context, cp *datastore.Checkpoint, now uint64) error {
	if err := k.refreshEtas(ctx, cp, now); err != nil {
		return err
	}
	return k.castReady(ctx, cp, now)
}

// refreshEtas reads the eta of every candidate spell that is not done and
// not yet tracked. Only future etas are recorded; an eta of 0 means the
// spell is unscheduled and is checked again on a later block.
func (k *Keeper) refreshEtas(ctx context.Context, cp *datastore.Checkpoint, now uint64) error {
	for _, yay := range cp.Yays {
		if _, tracked := cp.Eta(yay); tracked {
			continue
		}
		isContract, err := k.gw.IsContract(ctx, yay)
		if err != nil {
			return fmt.Errorf("code check %s: %w", yay.Hex(), err)
		}
		if !isContract {
			continue
		}
		done, err := k.gw.SpellDone(ctx, yay)
		if err != nil {
			return fmt.Errorf("read done of %s: %w", yay.Hex(), err)
		}
		if done {
			continue
		}
		eta, err := k.gw.SpellEta(ctx, yay)
		if err != nil {
			return fmt.Errorf("read eta of %s: %w", yay.Hex(), err)
		}
		if eta > now {
			if err := cp.SetEta(yay, eta); err != nil {
				return err
			}
			k.log.WithFields(logrus.Fields{
				"spell": yay.Hex(),
				"eta":   eta,
			}).Info("tracking scheduled spell")
		}
	}
	return nil
}

// castReady casts every tracked spell whose eta has passed. Entries are
// one-shot: once an eta has passed the entry is dropped whether the spell
// was cast, already done, or the cast's on-chain fate is still unknown. A
// failed submission keeps the entry so the next block retries.
func (k *Keeper) castReady(ctx context.Context, cp *datastore.Checkpoint, now uint64) error {
	// iterate the candidate list rather than the map for deterministic order
	for _, yay := range cp.Yays {
		eta, ok := cp.Eta(yay)
		if !ok || eta > now {
			continue
		}
		done, err := k.gw.SpellDone(ctx, yay)
		if err != nil {
			return fmt.Errorf("read done of %s: %w", yay.Hex(), err)
		}
		if !done {
			k.log.WithFields(logrus.Fields{
				"spell": yay.Hex(),
				"eta":   eta,
				"now":   now,
			}).Info("casting spell")
			if err := k.gw.Cast(ctx, yay); err != nil {
				return fmt.Errorf("cast: %w", err)
			}
		}
		cp.DeleteEta(yay)
	}
	return nil
}
