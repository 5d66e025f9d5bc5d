// Package keeper drives the governance engine: it indexes candidate
// addresses out of historical vote slates, keeps the hat on the
// highest-approval candidate, and schedules/casts executive spells once
// their pause delay expires. All derived state lives in the checkpoint so
// a restart resumes instead of rescanning history.
package keeper

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keeper-works/go-chief-keeper/datastore"
	"github.com/keeper-works/go-chief-keeper/dss"
)

// State is the orchestrator's lifecycle state.
type State int

const (
	// Running means block notifications are being consumed.
	Running State = iota

	// Terminated is terminal: the error budget is spent and the keeper
	// consumes no further blocks. Recovery requires an external restart.
	Terminated
)

// Config carries the engine's startup parameters.
type Config struct {
	// DeploymentBlock is where the initial full scan starts when no
	// checkpoint exists yet.
	DeploymentBlock uint64

	// MaxErrors is the error budget; once this many block iterations have
	// failed the keeper terminates.
	MaxErrors int

	// PollInterval is how often the chain head is polled for a new block.
	PollInterval time.Duration
}

// Keeper is the per-block orchestrator. It is single-threaded by
// construction: Run processes at most one block iteration at a time, since
// every iteration reads and writes the same checkpoint.
type Keeper struct {
	gw    dss.Gateway
	store *datastore.Store
	cfg   Config
	log   *logrus.Entry

	cp       *datastore.Checkpoint
	state    State
	errors   int
	lastHead uint64
}

// New wires the engine together. Run must be called to start processing.
func New(gw dss.Gateway, store *datastore.Store, cfg Config, log *logrus.Entry) *Keeper {
	return &Keeper{
		gw:    gw,
		store: store,
		cfg:   cfg,
		log:   log,
		state: Running,
	}
}

// State returns the orchestrator's current lifecycle state.
func (k *Keeper) State() State {
	return k.state
}

// Errors returns how much of the error budget has been consumed.
func (k *Keeper) Errors() int {
	return k.errors
}

// Run bootstraps the checkpoint and then consumes new blocks until ctx is
// cancelled or the error budget is exhausted. Bootstrap failures are fatal:
// they happen before the block loop and consume no budget.
func (k *Keeper) Run(ctx context.Context) error {
	if err := k.bootstrap(ctx); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	ticker := time.NewTicker(k.cfg.PollInterval)
	defer ticker.Stop()

	for k.state == Running {
		select {
		case <-ctx.Done():
			k.log.Info("keeper stopping")
			return ctx.Err()
		case <-ticker.C:
		}

		head, err := k.gw.BlockNumber(ctx)
		if err != nil {
			k.countError(fmt.Errorf("poll head: %w", err))
			continue
		}
		if head <= k.lastHead {
			continue
		}
		k.lastHead = head
		k.onBlock(ctx, head)
	}

	k.log.Warn("error budget exhausted, keeper terminated")
	return nil
}

// onBlock handles a single new-block notification. The budget check happens
// on entry, so the failure that spends the last of the budget is still fully
// logged before the transition to Terminated.
func (k *Keeper) onBlock(ctx context.Context, head uint64) {
	if k.errors >= k.cfg.MaxErrors {
		k.state = Terminated
		return
	}
	if err := k.processBlock(ctx, head); err != nil {
		k.countError(fmt.Errorf("block %d: %w", head, err))
	}
}

// processBlock runs the per-block pipeline: extend the candidate index,
// resolve leadership, then refresh and cast spells. Leadership runs before
// the scheduler because a freshly lifted candidate's spell can become
// schedulable within the same block.
//
// Each sub-step is committed to the checkpoint individually; a failure
// aborts the rest of the block but does not roll back what earlier steps
// already persisted.
func (k *Keeper) processBlock(ctx context.Context, head uint64) error {
	k.log.WithField("block", head).Debug("processing block")

	if err := k.indexYays(ctx, k.cp, head); err != nil {
		return fmt.Errorf("index yays: %w", err)
	}
	if err := k.store.Save(k.cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	if err := k.checkHat(ctx, k.cp); err != nil {
		return fmt.Errorf("check hat: %w", err)
	}
	if err := k.store.Save(k.cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	now, err := k.gw.BlockTime(ctx, head)
	if err != nil {
		return fmt.Errorf("block time: %w", err)
	}
	if err := k.checkEtas(ctx, k.cp, now); err != nil {
		return fmt.Errorf("check etas: %w", err)
	}
	if err := k.store.Save(k.cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// bootstrap loads the checkpoint, running the initial full historical scan
// when none exists yet.
func (k *Keeper) bootstrap(ctx context.Context) error {
	cp, created, err := k.store.LoadOrCreate(k.cfg.DeploymentBlock)
	if err != nil {
		return err
	}
	k.cp = cp
	if !created {
		return nil
	}

	head, err := k.gw.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("poll head: %w", err)
	}
	k.log.WithFields(logrus.Fields{
		"from": k.cfg.DeploymentBlock,
		"to":   head,
	}).Info("building initial candidate index, this can take a while")

	if err := k.indexYays(ctx, cp, head); err != nil {
		return fmt.Errorf("initial index: %w", err)
	}
	now, err := k.gw.BlockTime(ctx, head)
	if err != nil {
		return fmt.Errorf("block time: %w", err)
	}
	if err := k.refreshEtas(ctx, cp, now); err != nil {
		return fmt.Errorf("initial eta scan: %w", err)
	}
	if err := k.store.Save(cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	k.lastHead = head
	return nil
}

// countError spends one unit of the error budget. The counter never resets.
func (k *Keeper) countError(err error) {
	k.errors++
	k.log.WithFields(logrus.Fields{
		"errors":    k.errors,
		"maxErrors": k.cfg.MaxErrors,
	}).WithError(err).Error("block iteration failed")
}
