package keeper

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/keeper-works/go-chief-keeper/datastore"
)

// checkHat resolves who should hold the hat and lifts it if authority moved.
//
// The contender is the maximum-approval address over {current hat} union the
// candidate set, iterated in first-seen order with a strict comparison: a
// later candidate with merely equal approvals never displaces an earlier
// one. When the hat moves and the new holder carries a never-scheduled,
// not-yet-done spell, the spell is scheduled in the same block.
func (k *Keeper) checkHat(ctx context.Context, cp *datastore.Checkpoint) error {
	hat, err := k.gw.Hat(ctx)
	if err != nil {
		return fmt.Errorf("read hat: %w", err)
	}
	hatApprovals, err := k.gw.Approvals(ctx, hat)
	if err != nil {
		return fmt.Errorf("read hat approvals: %w", err)
	}

	contender, best := hat, hatApprovals
	for _, yay := range cp.Yays {
		approvals, err := k.gw.Approvals(ctx, yay)
		if err != nil {
			return fmt.Errorf("read approvals of %s: %w", yay.Hex(), err)
		}
		if approvals.Cmp(best) > 0 {
			contender, best = yay, approvals
		}
	}

	if contender == hat {
		k.log.WithFields(logrus.Fields{
			"hat":       hat.Hex(),
			"approvals": hatApprovals.String(),
		}).Debug("hat unchanged")
		return nil
	}

	k.log.WithFields(logrus.Fields{
		"oldHat":       hat.Hex(),
		"oldApprovals": hatApprovals.String(),
		"newHat":       contender.Hex(),
		"newApprovals": best.String(),
	}).Info("lifting hat")
	if err := k.gw.Lift(ctx, contender); err != nil {
		return fmt.Errorf("lift: %w", err)
	}

	return k.scheduleIfFresh(ctx, contender)
}

// scheduleIfFresh schedules the contender's spell when it has never been
// scheduled before. Plain EOA candidates carry no spell and are skipped.
func (k *Keeper) scheduleIfFresh(ctx context.Context, contender common.Address) error {
	isContract, err := k.gw.IsContract(ctx, contender)
	if err != nil {
		return fmt.Errorf("code check %s: %w", contender.Hex(), err)
	}
	if !isContract {
		return nil
	}

	done, err := k.gw.SpellDone(ctx, contender)
	if err != nil {
		return fmt.Errorf("read done of %s: %w", contender.Hex(), err)
	}
	if done {
		return nil
	}

	eta, err := k.gw.SpellEta(ctx, contender)
	if err != nil {
		return fmt.Errorf("read eta of %s: %w", contender.Hex(), err)
	}
	if eta != 0 {
		return nil
	}

	k.log.WithField("spell", contender.Hex()).Info("scheduling newly lifted spell")
	if err := k.gw.Schedule(ctx, contender); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	return nil
}
