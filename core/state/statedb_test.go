package state

import (
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/types"
)

var (
	addrA = common.HexToAddress("0x01")
	addrB = common.HexToAddress("0x02")
	slot1 = common.HexToHash("0x11")
)

func TestBalanceAccounting(t *testing.T) {
	s := New(nil)
	require.True(t, s.GetBalance(addrA).IsZero())

	s.AddBalance(addrA, uint256.NewInt(100))
	s.SubBalance(addrA, uint256.NewInt(30))
	require.Equal(t, uint256.NewInt(70), s.GetBalance(addrA))

	// returned balance is a copy
	s.GetBalance(addrA).SetUint64(0)
	require.Equal(t, uint256.NewInt(70), s.GetBalance(addrA))
}

func TestStorageReadWrite(t *testing.T) {
	s := New(nil)
	require.Equal(t, common.Hash{}, s.GetState(addrA, slot1))

	value := common.HexToHash("0xaa")
	s.SetState(addrA, slot1, value)
	require.Equal(t, value, s.GetState(addrA, slot1))
	require.Equal(t, common.Hash{}, s.GetState(addrB, slot1))
}

func TestSnapshotRevert(t *testing.T) {
	s := New(nil)
	s.AddBalance(addrA, uint256.NewInt(100))
	s.SetState(addrA, slot1, common.HexToHash("0x01"))

	snap := s.Snapshot()
	s.SubBalance(addrA, uint256.NewInt(40))
	s.AddBalance(addrB, uint256.NewInt(40))
	s.SetState(addrA, slot1, common.HexToHash("0x02"))
	s.SetNonce(addrA, 5)
	s.AddLog(&types.Log{Address: addrA})

	s.RevertToSnapshot(snap)
	require.Equal(t, uint256.NewInt(100), s.GetBalance(addrA))
	require.True(t, s.GetBalance(addrB).IsZero())
	require.Equal(t, common.HexToHash("0x01"), s.GetState(addrA, slot1))
	require.Zero(t, s.GetNonce(addrA))
	require.Empty(t, s.Logs())
}

func TestNestedSnapshots(t *testing.T) {
	s := New(nil)
	s.AddBalance(addrA, uint256.NewInt(1))
	outer := s.Snapshot()
	s.AddBalance(addrA, uint256.NewInt(2))
	inner := s.Snapshot()
	s.AddBalance(addrA, uint256.NewInt(4))

	s.RevertToSnapshot(inner)
	require.Equal(t, uint256.NewInt(3), s.GetBalance(addrA))
	s.RevertToSnapshot(outer)
	require.Equal(t, uint256.NewInt(1), s.GetBalance(addrA))
}

func TestRevertRemovesCreatedObject(t *testing.T) {
	s := New(nil)
	snap := s.Snapshot()
	s.AddBalance(addrA, uint256.NewInt(10))
	require.True(t, s.Exist(addrA))
	s.RevertToSnapshot(snap)
	require.False(t, s.Exist(addrA))
}

func TestCommitAndReloadLevelDB(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	db, err := NewLevelDatabase(dir)
	require.NoError(t, err)

	s := New(db)
	s.AddBalance(addrA, uint256.NewInt(777))
	s.SetNonce(addrA, 3)
	s.SetState(addrA, slot1, common.HexToHash("0xbeef"))
	s.SetCode(addrA, []byte{0x01})
	require.NoError(t, s.Commit())
	require.NoError(t, db.Close())

	db, err = NewLevelDatabase(dir)
	require.NoError(t, err)
	defer db.Close()

	reloaded := New(db)
	require.Equal(t, uint256.NewInt(777), reloaded.GetBalance(addrA))
	require.Equal(t, uint64(3), reloaded.GetNonce(addrA))
	require.Equal(t, common.HexToHash("0xbeef"), reloaded.GetState(addrA, slot1))
	require.Equal(t, []byte{0x01}, reloaded.GetCode(addrA))
}

func TestCommitAndReloadMemoryDatabase(t *testing.T) {
	db := NewMemoryDatabase()
	s := New(db)
	s.AddBalance(addrA, uint256.NewInt(5))
	require.NoError(t, s.Commit())

	reloaded := New(db)
	require.Equal(t, uint256.NewInt(5), reloaded.GetBalance(addrA))
}

func TestAccountCodecRoundtrip(t *testing.T) {
	obj := &stateObject{
		balance: uint256.NewInt(123),
		nonce:   9,
		code:    []byte{0xca, 0xfe},
		storage: make(map[common.Hash]common.Hash),
	}
	decoded := decodeAccount(encodeAccount(obj))
	require.Equal(t, obj.balance, decoded.balance)
	require.Equal(t, obj.nonce, decoded.nonce)
	require.Equal(t, obj.code, decoded.code)
}
