// Package datastore persists the keeper's indexing progress between runs.
// The checkpoint is what makes restarts cheap: without it every start would
// rescan the chief's full event history back to its deployment block.
package datastore

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Checkpoint is the durable record of indexing progress and derived
// scheduling state. Its invariants:
//
//   - LastScannedBlock never decreases
//   - Yays only grows, holds no duplicates, and keeps first-seen order
//   - every PendingEtas key is a member of Yays
//   - PendingEtas never holds a zero eta (absence means "not scheduled")
//
// All mutation goes through the methods below, which enforce these.
type Checkpoint struct {
	LastScannedBlock uint64                    `json:"lastScannedBlock"`
	Yays             []common.Address          `json:"candidateSet"`
	PendingEtas      map[common.Address]uint64 `json:"pendingEtas"`
}

// NewCheckpoint returns a fresh checkpoint covering nothing past the chief's
// deployment block.
func NewCheckpoint(deploymentBlock uint64) *Checkpoint {
	return &Checkpoint{
		LastScannedBlock: deploymentBlock,
		PendingEtas:      make(map[common.Address]uint64),
	}
}

// HasYay reports whether the address is already a known candidate.
func (c *Checkpoint) HasYay(yay common.Address) bool {
	for _, known := range c.Yays {
		if known == yay {
			return true
		}
	}
	return false
}

// AddYay appends a candidate, keeping first-seen order. It reports whether
// the address was new; duplicates are dropped.
func (c *Checkpoint) AddYay(yay common.Address) bool {
	if c.HasYay(yay) {
		return false
	}
	c.Yays = append(c.Yays, yay)
	return true
}

// Advance moves LastScannedBlock forward. Moving backward is silently
// ignored so that a re-run over an already-covered span stays a no-op.
func (c *Checkpoint) Advance(block uint64) {
	if block > c.LastScannedBlock {
		c.LastScannedBlock = block
	}
}

// Eta returns the recorded pending eta for a candidate, if any.
func (c *Checkpoint) Eta(yay common.Address) (uint64, bool) {
	eta, ok := c.PendingEtas[yay]
	return eta, ok
}

// SetEta records a pending eta for a known candidate. A zero eta or an
// address outside the candidate set is rejected.
func (c *Checkpoint) SetEta(yay common.Address, eta uint64) error {
	if eta == 0 {
		return fmt.Errorf("refusing zero eta for %s", yay.Hex())
	}
	if !c.HasYay(yay) {
		return fmt.Errorf("eta for unknown candidate %s", yay.Hex())
	}
	if c.PendingEtas == nil {
		c.PendingEtas = make(map[common.Address]uint64)
	}
	c.PendingEtas[yay] = eta
	return nil
}

// DeleteEta forgets a candidate's pending eta.
func (c *Checkpoint) DeleteEta(yay common.Address) {
	delete(c.PendingEtas, yay)
}

// validate checks the cross-field invariants after a load from disk.
func (c *Checkpoint) validate() error {
	seen := make(map[common.Address]struct{}, len(c.Yays))
	for _, yay := range c.Yays {
		if _, dup := seen[yay]; dup {
			return fmt.Errorf("duplicate candidate %s", yay.Hex())
		}
		seen[yay] = struct{}{}
	}
	for yay, eta := range c.PendingEtas {
		if eta == 0 {
			return fmt.Errorf("zero eta recorded for %s", yay.Hex())
		}
		if _, ok := seen[yay]; !ok {
			return fmt.Errorf("eta recorded for unknown candidate %s", yay.Hex())
		}
	}
	return nil
}
