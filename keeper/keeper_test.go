package keeper

import (
	"context"
	"errors"
	"io/ioutil"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/keeper-works/go-chief-keeper/datastore"
	"github.com/keeper-works/go-chief-keeper/dss"
)

// fakeGateway is an in-memory dss.Gateway for engine tests.
type fakeGateway struct {
	head      uint64
	times     map[uint64]uint64
	etches    []dss.Etch
	slates    map[common.Hash][]common.Address
	maxYays   uint64
	hat       common.Address
	approvals map[common.Address]*big.Int
	eoas      map[common.Address]bool
	done      map[common.Address]bool
	etas      map[common.Address]uint64

	lifted    []common.Address
	scheduled []common.Address
	casts     []common.Address

	etchErr   error
	etchCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		times:     make(map[uint64]uint64),
		slates:    make(map[common.Hash][]common.Address),
		maxYays:   5,
		approvals: make(map[common.Address]*big.Int),
		eoas:      make(map[common.Address]bool),
		done:      make(map[common.Address]bool),
		etas:      make(map[common.Address]uint64),
	}
}

func (g *fakeGateway) BlockNumber(ctx context.Context) (uint64, error) {
	return g.head, nil
}

func (g *fakeGateway) BlockTime(ctx context.Context, height uint64) (uint64, error) {
	return g.times[height], nil
}

func (g *fakeGateway) PastEtches(ctx context.Context, fromBlock, toBlock uint64) ([]dss.Etch, error) {
	g.etchCalls++
	if g.etchErr != nil {
		return nil, g.etchErr
	}
	var out []dss.Etch
	for _, e := range g.etches {
		if e.Block >= fromBlock && e.Block <= toBlock {
			out = append(out, e)
		}
	}
	return out, nil
}

func (g *fakeGateway) SlateMember(ctx context.Context, slate common.Hash, index uint64) (common.Address, bool, error) {
	members := g.slates[slate]
	if index >= uint64(len(members)) {
		return common.Address{}, false, nil
	}
	return members[index], true, nil
}

func (g *fakeGateway) MaxYays(ctx context.Context) (uint64, error) {
	return g.maxYays, nil
}

func (g *fakeGateway) Hat(ctx context.Context) (common.Address, error) {
	return g.hat, nil
}

func (g *fakeGateway) Approvals(ctx context.Context, yay common.Address) (*big.Int, error) {
	if a, ok := g.approvals[yay]; ok {
		return new(big.Int).Set(a), nil
	}
	return big.NewInt(0), nil
}

func (g *fakeGateway) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	return !g.eoas[addr], nil
}

func (g *fakeGateway) SpellDone(ctx context.Context, spell common.Address) (bool, error) {
	return g.done[spell], nil
}

func (g *fakeGateway) SpellEta(ctx context.Context, spell common.Address) (uint64, error) {
	return g.etas[spell], nil
}

func (g *fakeGateway) Lift(ctx context.Context, whom common.Address) error {
	g.lifted = append(g.lifted, whom)
	g.hat = whom
	return nil
}

func (g *fakeGateway) Schedule(ctx context.Context, spell common.Address) error {
	g.scheduled = append(g.scheduled, spell)
	return nil
}

func (g *fakeGateway) Cast(ctx context.Context, spell common.Address) error {
	g.casts = append(g.casts, spell)
	return nil
}

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(ioutil.Discard)
	return log.WithField("module", "test")
}

func newTestKeeper(t *testing.T, gw *fakeGateway, maxErrors int) *Keeper {
	store := datastore.NewStore(t.TempDir(), "testnet", testLog())
	return New(gw, store, Config{
		DeploymentBlock: 0,
		MaxErrors:       maxErrors,
		PollInterval:    time.Second,
	}, testLog())
}

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func TestCircuitBreaker(t *testing.T) {
	require := require.New(t)

	gw := newFakeGateway()
	gw.etchErr = errors.New("node exploded")
	k := newTestKeeper(t, gw, 3)
	k.cp = datastore.NewCheckpoint(0)

	ctx := context.Background()

	// Each failing block spends one unit of budget.
	for head := uint64(1); head <= 3; head++ {
		k.onBlock(ctx, head)
		require.Equal(Running, k.State())
	}
	require.Equal(3, k.Errors())
	require.Equal(3, gw.etchCalls)

	// The next notification trips the breaker before any processing.
	k.onBlock(ctx, 4)
	require.Equal(Terminated, k.State())
	require.Equal(3, gw.etchCalls)

	// Terminated is terminal: further notifications do nothing.
	k.onBlock(ctx, 5)
	require.Equal(Terminated, k.State())
	require.Equal(3, gw.etchCalls)
	require.Equal(3, k.Errors())
}

func TestProcessBlockPersistsCheckpoint(t *testing.T) {
	require := require.New(t)

	slate := common.HexToHash("0x01")
	gw := newFakeGateway()
	gw.etches = []dss.Etch{{Slate: slate, Block: 40}}
	gw.slates[slate] = []common.Address{addr(1)}
	gw.hat = addr(1)
	gw.times[50] = 1000

	k := newTestKeeper(t, gw, 100)
	k.cp = datastore.NewCheckpoint(0)
	require.NoError(k.processBlock(context.Background(), 50))

	reloaded, created, err := k.store.LoadOrCreate(0)
	require.NoError(err)
	require.False(created)
	require.Equal(uint64(50), reloaded.LastScannedBlock)
	require.Equal([]common.Address{addr(1)}, reloaded.Yays)
}

func TestBootstrapFreshScan(t *testing.T) {
	require := require.New(t)

	slate := common.HexToHash("0x02")
	gw := newFakeGateway()
	gw.head = 120
	gw.times[120] = 1000
	gw.etches = []dss.Etch{{Slate: slate, Block: 50}}
	gw.slates[slate] = []common.Address{addr(1), addr(2)}
	gw.etas[addr(1)] = 5000 // scheduled in the future

	k := newTestKeeper(t, gw, 100)
	require.NoError(k.bootstrap(context.Background()))

	require.Equal(uint64(120), k.cp.LastScannedBlock)
	require.Equal([]common.Address{addr(1), addr(2)}, k.cp.Yays)

	eta, ok := k.cp.Eta(addr(1))
	require.True(ok)
	require.Equal(uint64(5000), eta)
	_, ok = k.cp.Eta(addr(2))
	require.False(ok, "unscheduled spell must not be tracked")

	// The checkpoint must be on disk already.
	reloaded, created, err := k.store.LoadOrCreate(0)
	require.NoError(err)
	require.False(created)
	require.Equal(k.cp.LastScannedBlock, reloaded.LastScannedBlock)
}
