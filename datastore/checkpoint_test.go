package datastore

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func TestAddYayDedups(t *testing.T) {
	require := require.New(t)

	cp := NewCheckpoint(0)
	require.True(cp.AddYay(addr(1)))
	require.True(cp.AddYay(addr(2)))
	require.False(cp.AddYay(addr(1)), "duplicates are dropped")

	require.Equal([]common.Address{addr(1), addr(2)}, cp.Yays)
	require.True(cp.HasYay(addr(2)))
	require.False(cp.HasYay(addr(3)))
}

func TestAdvanceIsMonotonic(t *testing.T) {
	require := require.New(t)

	cp := NewCheckpoint(100)
	cp.Advance(150)
	require.Equal(uint64(150), cp.LastScannedBlock)

	cp.Advance(120)
	require.Equal(uint64(150), cp.LastScannedBlock, "the checkpoint never moves backward")

	cp.Advance(150)
	require.Equal(uint64(150), cp.LastScannedBlock)
}

func TestEtaInvariants(t *testing.T) {
	require := require.New(t)

	cp := NewCheckpoint(0)
	cp.AddYay(addr(1))

	require.Error(cp.SetEta(addr(1), 0), "zero etas are never stored")
	require.Error(cp.SetEta(addr(2), 100), "etas only exist for known candidates")

	require.NoError(cp.SetEta(addr(1), 100))
	eta, ok := cp.Eta(addr(1))
	require.True(ok)
	require.Equal(uint64(100), eta)

	cp.DeleteEta(addr(1))
	_, ok = cp.Eta(addr(1))
	require.False(ok)
}

func TestValidateCatchesCorruption(t *testing.T) {
	require := require.New(t)

	{
		cp := NewCheckpoint(0)
		cp.Yays = []common.Address{addr(1), addr(1)}
		require.Error(cp.validate())
	}
	{
		cp := NewCheckpoint(0)
		cp.PendingEtas[addr(1)] = 100 // not in Yays
		require.Error(cp.validate())
	}
	{
		cp := NewCheckpoint(0)
		cp.AddYay(addr(1))
		cp.PendingEtas[addr(1)] = 0
		require.Error(cp.validate())
	}
	{
		cp := NewCheckpoint(0)
		cp.AddYay(addr(1))
		cp.PendingEtas[addr(1)] = 100
		require.NoError(cp.validate())
	}
}
