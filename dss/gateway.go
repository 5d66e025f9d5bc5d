package dss

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Etch records a vote-slate creation observed in a DS-Chief log.
type Etch struct {
	// Slate identifies the ordered set of candidate addresses; the members
	// are recovered by indexed lookup through SlateMember.
	Slate common.Hash

	// Block the etch was mined in.
	Block uint64
}

// Gateway is the ledger capability the engine runs against. The production
// implementation is the JSON-RPC Client in this package; tests substitute an
// in-memory fake.
//
// Reads are expected to absorb transient transport failures themselves
// (the Client retries with backoff); an error surfacing from any method is
// charged against the keeper's error budget.
type Gateway interface {
	// BlockNumber returns the current chain head height.
	BlockNumber(ctx context.Context) (uint64, error)

	// BlockTime returns the unix timestamp of the block at the given height.
	BlockTime(ctx context.Context, height uint64) (uint64, error)

	// PastEtches returns the Etch events logged by the chief within
	// [fromBlock, toBlock], both ends inclusive, in log order.
	PastEtches(ctx context.Context, fromBlock, toBlock uint64) ([]Etch, error)

	// SlateMember looks up the index-th address of a slate. ok is false when
	// the index is past the end of the slate; that is the normal terminator
	// for slate unpacking, not an error.
	SlateMember(ctx context.Context, slate common.Hash, index uint64) (addr common.Address, ok bool, err error)

	// MaxYays returns the chief's MAX_YAYS bound on slate length.
	MaxYays(ctx context.Context) (uint64, error)

	// Hat returns the address currently holding governance authority.
	Hat(ctx context.Context) (common.Address, error)

	// Approvals returns the approval weight currently voted onto an address.
	Approvals(ctx context.Context, yay common.Address) (*big.Int, error)

	// IsContract reports whether code is deployed at the address. Candidates
	// can be plain EOAs, which have no spell to schedule or cast.
	IsContract(ctx context.Context, addr common.Address) (bool, error)

	// SpellDone reports whether the spell at the address has been cast.
	SpellDone(ctx context.Context, spell common.Address) (bool, error)

	// SpellEta returns the spell's execution-unlock timestamp, 0 while the
	// spell has not been scheduled.
	SpellEta(ctx context.Context, spell common.Address) (uint64, error)

	// Lift submits a transaction moving the hat to the given address.
	Lift(ctx context.Context, whom common.Address) error

	// Schedule submits a transaction plotting the spell into the pause.
	Schedule(ctx context.Context, spell common.Address) error

	// Cast submits a transaction executing the spell.
	Cast(ctx context.Context, spell common.Address) error
}
