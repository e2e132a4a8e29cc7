package nonces

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/state"
	"github.com/tessera-chain/go-tessera/core/vm"
)

var accountAddr = common.HexToAddress("0xaa")

func newTestEnv() (*vm.EVM, *NonceManager) {
	evm := vm.NewEVM(vm.BlockContext{ChainID: big.NewInt(31337)}, state.New(nil))
	nm := New(ContractAddress)
	evm.Register(nm.Address, nm)
	return evm, nm
}

func TestFreshAccountStartsAtZero(t *testing.T) {
	evm, nm := newTestEnv()
	require.Zero(t, nm.GetMinNonce(evm, accountAddr).Sign())
}

func TestIncrementAdvancesSequence(t *testing.T) {
	evm, nm := newTestEnv()
	for i := int64(0); i < 3; i++ {
		require.NoError(t, nm.IncrementMinNonceIfEquals(evm, accountAddr, big.NewInt(i)))
	}
	require.Equal(t, big.NewInt(3), nm.GetMinNonce(evm, accountAddr))
}

func TestReplayIsRejected(t *testing.T) {
	evm, nm := newTestEnv()
	require.NoError(t, nm.IncrementMinNonceIfEquals(evm, accountAddr, big.NewInt(0)))

	err := nm.IncrementMinNonceIfEquals(evm, accountAddr, big.NewInt(0))
	require.ErrorIs(t, err, ErrNonceAlreadyUsed)
	// a failed check must not advance the sequence
	require.Equal(t, big.NewInt(1), nm.GetMinNonce(evm, accountAddr))
}

func TestMissingExpectedNonceIsRejected(t *testing.T) {
	evm, nm := newTestEnv()
	err := nm.IncrementMinNonceIfEquals(evm, accountAddr, nil)
	require.ErrorIs(t, err, ErrNonceAlreadyUsed)
	require.Zero(t, nm.GetMinNonce(evm, accountAddr).Sign())
}

func TestFutureNonceIsRejected(t *testing.T) {
	evm, nm := newTestEnv()
	err := nm.IncrementMinNonceIfEquals(evm, accountAddr, big.NewInt(5))
	require.ErrorIs(t, err, ErrNonceAlreadyUsed)
}

func TestSequencesAreIndependentPerAccount(t *testing.T) {
	evm, nm := newTestEnv()
	other := common.HexToAddress("0xbb")
	require.NoError(t, nm.IncrementMinNonceIfEquals(evm, accountAddr, big.NewInt(0)))
	require.Zero(t, nm.GetMinNonce(evm, other).Sign())
}

func TestRunDispatch(t *testing.T) {
	evm, nm := newTestEnv()

	// incrementMinNonceIfEquals acts on the caller's own sequence
	var input []byte
	input = append(input, incrementIfEqualsSelector...)
	input = append(input, common.BigToHash(big.NewInt(0)).Bytes()...)
	_, _, err := evm.Call(accountAddr, nm.Address, input, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1), nm.GetMinNonce(evm, accountAddr))

	// getMinNonce reads any account
	input = append([]byte{}, getMinNonceSelector...)
	input = append(input, common.LeftPadBytes(accountAddr.Bytes(), 32)...)
	ret, _, err := evm.Call(common.HexToAddress("0xcc"), nm.Address, input, nil)
	require.NoError(t, err)
	require.Equal(t, common.BigToHash(big.NewInt(1)).Bytes(), ret)
}

func TestRunRejectsShortCalldata(t *testing.T) {
	evm, nm := newTestEnv()
	_, _, err := nm.Run(evm, accountAddr, new(big.Int), []byte{0x01})
	require.ErrorIs(t, err, vm.ErrExecutionReverted)
}
