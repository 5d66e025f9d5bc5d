package keeper

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestRefreshRecordsFutureEtas(t *testing.T) {
	require := require.New(t)

	gw := newFakeGateway()
	gw.etas[addr(1)] = 200 // scheduled in the future
	gw.etas[addr(2)] = 0   // never scheduled
	gw.etas[addr(3)] = 900
	gw.done[addr(3)] = true // already executed
	gw.eoas[addr(4)] = true // plain address, no spell

	k := newTestKeeper(t, gw, 100)
	cp := hatCheckpoint(addr(1), addr(2), addr(3), addr(4))
	require.NoError(k.refreshEtas(context.Background(), cp, 100))

	eta, ok := cp.Eta(addr(1))
	require.True(ok)
	require.Equal(uint64(200), eta)
	for _, yay := range []common.Address{addr(2), addr(3), addr(4)} {
		_, ok := cp.Eta(yay)
		require.False(ok, "%s must not be tracked", yay.Hex())
	}
}

func TestRefreshSkipsAlreadyTracked(t *testing.T) {
	require := require.New(t)

	gw := newFakeGateway()
	gw.etas[addr(1)] = 999

	k := newTestKeeper(t, gw, 100)
	cp := hatCheckpoint(addr(1))
	require.NoError(cp.SetEta(addr(1), 300))

	require.NoError(k.refreshEtas(context.Background(), cp, 100))

	// the recorded eta is not re-derived from the ledger
	eta, ok := cp.Eta(addr(1))
	require.True(ok)
	require.Equal(uint64(300), eta)
}

func TestCastReady(t *testing.T) {
	require := require.New(t)

	gw := newFakeGateway()
	k := newTestKeeper(t, gw, 100)
	cp := hatCheckpoint(addr(1))
	require.NoError(cp.SetEta(addr(1), 100))

	require.NoError(k.castReady(context.Background(), cp, 101))

	require.Equal([]common.Address{addr(1)}, gw.casts)
	_, ok := cp.Eta(addr(1))
	require.False(ok, "cast entries are one-shot")
}

func TestCastSkipsDoneSpell(t *testing.T) {
	require := require.New(t)

	gw := newFakeGateway()
	gw.done[addr(1)] = true

	k := newTestKeeper(t, gw, 100)
	cp := hatCheckpoint(addr(1))
	require.NoError(cp.SetEta(addr(1), 100))

	require.NoError(k.castReady(context.Background(), cp, 101))

	require.Empty(gw.casts)
	_, ok := cp.Eta(addr(1))
	require.False(ok, "done spells are dropped without casting")
}

func TestCastLeavesFutureEtas(t *testing.T) {
	require := require.New(t)

	gw := newFakeGateway()
	k := newTestKeeper(t, gw, 100)
	cp := hatCheckpoint(addr(1))
	require.NoError(cp.SetEta(addr(1), 500))

	require.NoError(k.castReady(context.Background(), cp, 101))

	require.Empty(gw.casts)
	eta, ok := cp.Eta(addr(1))
	require.True(ok)
	require.Equal(uint64(500), eta)
}

func TestCheckEtasIgnoresPastEtaAtDiscovery(t *testing.T) {
	require := require.New(t)

	// eta already passed at refresh time: never tracked, never cast
	gw := newFakeGateway()
	gw.etas[addr(1)] = 50

	k := newTestKeeper(t, gw, 100)
	cp := hatCheckpoint(addr(1))
	require.NoError(k.checkEtas(context.Background(), cp, 100))

	require.Empty(gw.casts)
	_, ok := cp.Eta(addr(1))
	require.False(ok)
}
