package entrypoint

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/state"
	"github.com/tessera-chain/go-tessera/core/types"
	"github.com/tessera-chain/go-tessera/core/vm"
	"github.com/tessera-chain/go-tessera/crypto"
	"github.com/tessera-chain/go-tessera/logger"
	"github.com/tessera-chain/go-tessera/tessera/contracts/account"
	"github.com/tessera-chain/go-tessera/tessera/contracts/minttoken"
)

var (
	accountAddr     = common.HexToAddress("0xa1")
	tokenAddr       = common.HexToAddress("0xf1")
	beneficiaryAddr = common.HexToAddress("0xbe")
)

type env struct {
	evm      *vm.EVM
	ep       *EntryPoint
	ownerKey *btcec.PrivateKey
	owner    common.Address
	acct     *account.SmartAccount
	token    *minttoken.Token
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger.SetTestMode(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PubKey())

	evm := vm.NewEVM(vm.BlockContext{ChainID: big.NewInt(31337)}, state.New(nil))
	ep := New(evm, ContractAddress)
	acct := account.Deploy(evm, accountAddr, owner, account.NewEntryPointBackend(ep.Address))
	token := minttoken.Deploy(evm, tokenAddr)
	evm.StateDB.AddBalance(acct.Address, uint256.NewInt(100_000_000))
	return &env{evm: evm, ep: ep, ownerKey: key, owner: owner, acct: acct, token: token}
}

// mintOp builds an operation that mints amount to the account, signed by key.
func (e *env) mintOp(t *testing.T, key *btcec.PrivateKey, nonce int64, amount int64) *types.PackedUserOperation {
	t.Helper()
	op := &types.PackedUserOperation{
		Sender:             e.acct.Address,
		Nonce:              big.NewInt(nonce),
		CallData:           account.EncodeExecuteCall(e.token.Address, new(big.Int), minttoken.EncodeMintCall(e.acct.Address, big.NewInt(amount))),
		AccountGasLimits:   types.PackGasWord(big.NewInt(2000), big.NewInt(1000)),
		PreVerificationGas: big.NewInt(1000),
		GasFees:            types.PackGasWord(big.NewInt(1), big.NewInt(2)),
	}
	sig, err := crypto.Sign(crypto.PrefixedDigest(e.ep.GetUserOpHash(op)).Bytes(), key)
	require.NoError(t, err)
	op.Signature = sig
	return op
}

func TestHandleOpsMintsAndCompensates(t *testing.T) {
	e := newEnv(t)
	op := e.mintOp(t, e.ownerKey, 0, 50)

	require.NoError(t, e.ep.HandleOps(e.evm, []*types.PackedUserOperation{op}, beneficiaryAddr))
	require.Equal(t, big.NewInt(50), e.token.BalanceOf(e.evm, e.acct.Address))

	// prefund = (2000 + 1000 + 1000) * 2
	require.Equal(t, uint256.NewInt(8000), e.evm.StateDB.GetBalance(beneficiaryAddr))
	require.True(t, e.evm.StateDB.GetBalance(e.ep.Address).IsZero())
	require.Equal(t, big.NewInt(1), e.ep.GetNonce(e.evm, e.acct.Address))
}

func TestHandleOpsBatch(t *testing.T) {
	e := newEnv(t)
	ops := []*types.PackedUserOperation{
		e.mintOp(t, e.ownerKey, 0, 10),
		e.mintOp(t, e.ownerKey, 1, 20),
	}

	require.NoError(t, e.ep.HandleOps(e.evm, ops, beneficiaryAddr))
	require.Equal(t, big.NewInt(30), e.token.BalanceOf(e.evm, e.acct.Address))
	require.Equal(t, uint256.NewInt(16000), e.evm.StateDB.GetBalance(beneficiaryAddr))
}

func TestHandleOpsRejectsUnknownSender(t *testing.T) {
	e := newEnv(t)
	op := e.mintOp(t, e.ownerKey, 0, 50)
	op.Sender = common.HexToAddress("0xdead")
	var failed *FailedOpError
	require.ErrorAs(t, e.ep.HandleOps(e.evm, []*types.PackedUserOperation{op}, beneficiaryAddr), &failed)
	require.Equal(t, codeAccountNotDeployed, failed.Reason)
}

func TestHandleOpsRejectsBadNonce(t *testing.T) {
	e := newEnv(t)
	op := e.mintOp(t, e.ownerKey, 7, 50)
	var failed *FailedOpError
	require.ErrorAs(t, e.ep.HandleOps(e.evm, []*types.PackedUserOperation{op}, beneficiaryAddr), &failed)
	require.Equal(t, codeInvalidNonce, failed.Reason)
}

func TestHandleOpsRejectsMissingNonce(t *testing.T) {
	e := newEnv(t)
	op := e.mintOp(t, e.ownerKey, 0, 50)
	op.Nonce = nil
	var failed *FailedOpError
	require.ErrorAs(t, e.ep.HandleOps(e.evm, []*types.PackedUserOperation{op}, beneficiaryAddr), &failed)
	require.Equal(t, codeInvalidNonce, failed.Reason)
	// the sequencer stays untouched
	require.Zero(t, e.ep.GetNonce(e.evm, e.acct.Address).Sign())
}

func TestHandleOpsRejectsForeignSignatureAndUnwinds(t *testing.T) {
	e := newEnv(t)
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	op := e.mintOp(t, otherKey, 0, 50)

	var failed *FailedOpError
	require.ErrorAs(t, e.ep.HandleOps(e.evm, []*types.PackedUserOperation{op}, beneficiaryAddr), &failed)
	require.Equal(t, codeSignatureError, failed.Reason)

	// rejection unwinds the consumed nonce and the collected prefund
	require.Zero(t, e.ep.GetNonce(e.evm, e.acct.Address).Sign())
	require.True(t, e.evm.StateDB.GetBalance(e.ep.Address).IsZero())
	require.Equal(t, uint256.NewInt(100_000_000), e.evm.StateDB.GetBalance(e.acct.Address))
}

func TestHandleOpsRejectsUnpayablePrefund(t *testing.T) {
	e := newEnv(t)
	op := e.mintOp(t, e.ownerKey, 0, 50)
	// drain the account below the required prefund
	e.evm.StateDB.SubBalance(e.acct.Address, uint256.NewInt(100_000_000))

	var failed *FailedOpError
	require.ErrorAs(t, e.ep.HandleOps(e.evm, []*types.PackedUserOperation{op}, beneficiaryAddr), &failed)
	require.Equal(t, codeDidNotPayPrefund, failed.Reason)
}

func TestHandleOpsRejectsZeroBeneficiary(t *testing.T) {
	e := newEnv(t)
	op := e.mintOp(t, e.ownerKey, 0, 50)
	var failed *FailedOpError
	require.ErrorAs(t, e.ep.HandleOps(e.evm, []*types.PackedUserOperation{op}, common.Address{}), &failed)
	require.Equal(t, codeInvalidBeneficiary, failed.Reason)
}

func TestHandleOpsRevertedExecutionKeepsPrefund(t *testing.T) {
	e := newEnv(t)
	op := e.mintOp(t, e.ownerKey, 0, 50)
	// garbage payload makes the token revert during execution
	op.CallData = account.EncodeExecuteCall(e.token.Address, new(big.Int), []byte{0xde, 0xad, 0xbe, 0xef})
	sig, err := crypto.Sign(crypto.PrefixedDigest(e.ep.GetUserOpHash(op)).Bytes(), e.ownerKey)
	require.NoError(t, err)
	op.Signature = sig

	// the batch itself succeeds; the submitter is still compensated
	require.NoError(t, e.ep.HandleOps(e.evm, []*types.PackedUserOperation{op}, beneficiaryAddr))
	require.Zero(t, e.token.BalanceOf(e.evm, e.acct.Address).Sign())
	require.Equal(t, uint256.NewInt(8000), e.evm.StateDB.GetBalance(beneficiaryAddr))
	require.Equal(t, big.NewInt(1), e.ep.GetNonce(e.evm, e.acct.Address))

	// and the revert is recorded
	var found bool
	for _, log := range e.evm.StateDB.Logs() {
		if len(log.Topics) > 0 && log.Topics[0] == UserOperationRevertTopic {
			found = true
		}
	}
	require.True(t, found)
}

func TestHandleOpsEmitsOperationEvent(t *testing.T) {
	e := newEnv(t)
	op := e.mintOp(t, e.ownerKey, 0, 50)
	require.NoError(t, e.ep.HandleOps(e.evm, []*types.PackedUserOperation{op}, beneficiaryAddr))

	var found bool
	for _, log := range e.evm.StateDB.Logs() {
		if len(log.Topics) == 3 && log.Topics[0] == UserOperationEventTopic {
			require.Equal(t, e.ep.GetUserOpHash(op), log.Topics[1])
			require.Equal(t, common.BytesToHash(e.acct.Address.Bytes()), log.Topics[2])
			found = true
		}
	}
	require.True(t, found)
}

func TestGetUserOpHashBindsEntryPointAndChain(t *testing.T) {
	e := newEnv(t)
	op := e.mintOp(t, e.ownerKey, 0, 50)
	require.Equal(t, types.UserOpHash(op, e.ep.Address, big.NewInt(31337)), e.ep.GetUserOpHash(op))
}

func TestGetRequiredPrefund(t *testing.T) {
	op := &types.PackedUserOperation{
		AccountGasLimits:   types.PackGasWord(big.NewInt(2000), big.NewInt(1000)),
		PreVerificationGas: big.NewInt(1000),
		GasFees:            types.PackGasWord(big.NewInt(1), big.NewInt(2)),
	}
	require.Equal(t, big.NewInt(8000), getRequiredPrefund(op))
}

func TestEffectiveGasPrice(t *testing.T) {
	e := newEnv(t)
	op := &types.PackedUserOperation{
		GasFees: types.PackGasWord(big.NewInt(5), big.NewInt(30)),
	}

	// without a base fee the priority fee wins over the cap
	require.Equal(t, big.NewInt(5), e.ep.effectiveGasPrice(e.evm, op))

	// with a base fee the price is capped at maxFeePerGas
	e.evm.Context.BaseFee = big.NewInt(100)
	require.Equal(t, big.NewInt(30), e.ep.effectiveGasPrice(e.evm, op))

	// below the cap the account pays base + priority
	e.evm.Context.BaseFee = big.NewInt(10)
	require.Equal(t, big.NewInt(15), e.ep.effectiveGasPrice(e.evm, op))
}
