// Package entrypoint implements the trusted aggregation contract of the
// generic model: it accepts batches of signed operation envelopes from
// arbitrary submitters, runs each through the account's Validate -> Fund ->
// Execute pipeline, and compensates the submitter from the collected
// prefunds.
package entrypoint

import (
	"errors"
	"math/big"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/types"
	"github.com/tessera-chain/go-tessera/core/vm"
	"github.com/tessera-chain/go-tessera/crypto"
	"github.com/tessera-chain/go-tessera/logger"
	"github.com/tessera-chain/go-tessera/monitoring"
	"github.com/tessera-chain/go-tessera/tessera/contracts/account"
	"github.com/tessera-chain/go-tessera/tessera/contracts/nonces"
	"github.com/tessera-chain/go-tessera/utils"
)

// ContractAddress is the canonical entry point deployment address.
var ContractAddress = common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")

// Event topics emitted per processed operation.
var (
	UserOperationEventTopic  = crypto.Keccak256Hash([]byte("UserOperationEvent(bytes32,address,address,uint256,bool,uint256,uint256)"))
	UserOperationRevertTopic = crypto.Keccak256Hash([]byte("UserOperationRevertReason(bytes32,address,uint256,bytes)"))
)

// EntryPoint aggregates operation envelopes. It owns its accounts' sequencer
// state: nonces are keyed under the entry point's own storage, checked and
// advanced before account validation runs.
type EntryPoint struct {
	logger.Instance
	Address common.Address

	chainID  *big.Int
	nonces   *nonces.NonceManager
	handling bool
}

// New returns an entry point bound to the given chain, registered with the
// runtime so accounts can look it up.
func New(evm *vm.EVM, addr common.Address) *EntryPoint {
	ep := &EntryPoint{
		Instance: logger.New("entrypoint"),
		Address:  addr,
		chainID:  evm.Context.ChainID,
		nonces:   nonces.New(addr),
	}
	evm.Register(addr, ep)
	return ep
}

// GetUserOpHash returns the canonical digest of op as this entry point on
// this chain would compute it. Submitters sign exactly this digest (under the
// personal-message prefix).
func (ep *EntryPoint) GetUserOpHash(op *types.PackedUserOperation) common.Hash {
	return types.UserOpHash(op, ep.Address, ep.chainID)
}

// GetNonce returns the current sequence number of sender in the entry point's
// sequencer.
func (ep *EntryPoint) GetNonce(evm *vm.EVM, sender common.Address) *big.Int {
	return ep.nonces.GetMinNonce(evm, sender)
}

// getRequiredPrefund is the worst-case fee the account must front for the
// operation: every gas ceiling on the envelope priced at the fee cap.
func getRequiredPrefund(op *types.PackedUserOperation) *big.Int {
	gas := new(big.Int).Add(op.VerificationGasLimit(), op.CallGasLimit())
	if op.PreVerificationGas != nil {
		gas.Add(gas, op.PreVerificationGas)
	}
	return gas.Mul(gas, op.MaxFeePerGas())
}

// effectiveGasPrice is the price actually charged per gas unit: the envelope's
// fee cap, or the priority fee on top of the block base fee, whichever is
// lower.
func (ep *EntryPoint) effectiveGasPrice(evm *vm.EVM, op *types.PackedUserOperation) *big.Int {
	baseFee := evm.Context.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	tipped := new(big.Int).Add(op.MaxPriorityFeePerGas(), baseFee)
	return utils.BigMin(op.MaxFeePerGas(), tipped)
}

// HandleOps processes a batch of operation envelopes and pays the collected
// prefunds to beneficiary. Validation failures reject the whole batch and
// unwind every state change it made; a reverted target call only unwinds that
// operation's execution frame, the prefund stays collected.
func (ep *EntryPoint) HandleOps(evm *vm.EVM, ops []*types.PackedUserOperation, beneficiary common.Address) error {
	if ep.handling {
		return ErrReentrantCall
	}
	ep.handling = true
	defer func() { ep.handling = false }()

	if beneficiary.Cmp(common.Address{}) == 0 {
		return failedOp(0, codeInvalidBeneficiary)
	}

	snapshot := evm.StateDB.Snapshot()
	collected := new(big.Int)
	for i, op := range ops {
		prefund, err := ep.validatePrepayment(evm, i, op)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
			return err
		}
		collected.Add(collected, prefund)
	}
	for i, op := range ops {
		ep.executeUserOp(evm, i, op)
	}
	if collected.Sign() > 0 {
		evm.Transfer(ep.Address, beneficiary, collected)
	}
	return nil
}

// validatePrepayment runs the validation phase for one envelope: the account
// must exist, the nonce must be next in sequence, and the account must report
// a clean signature verdict and pay its prefund. Any deviation rejects the
// batch with the matching standard code.
func (ep *EntryPoint) validatePrepayment(evm *vm.EVM, index int, op *types.PackedUserOperation) (*big.Int, error) {
	if len(evm.StateDB.GetCode(op.Sender)) == 0 {
		return nil, failedOp(index, codeAccountNotDeployed)
	}
	contract, ok := evm.ContractAt(op.Sender)
	if !ok {
		return nil, failedOp(index, codeAccountNotDeployed)
	}
	acct, ok := contract.(*account.SmartAccount)
	if !ok {
		return nil, failedOp(index, codeAccountNotDeployed)
	}

	// envelopes come from arbitrary submitters; a missing sequence number is
	// rejected before the sequencer is touched
	if op.Nonce == nil {
		return nil, failedOp(index, codeInvalidNonce)
	}
	if err := ep.nonces.IncrementMinNonceIfEquals(evm, op.Sender, op.Nonce); err != nil {
		return nil, failedOp(index, codeInvalidNonce)
	}

	prefund := getRequiredPrefund(op)
	opHash := ep.GetUserOpHash(op)
	status, err := acct.ValidateUserOp(evm, ep.Address, op, opHash, prefund)
	if err != nil {
		if errors.Is(err, account.ErrTransferFailed) || errors.Is(err, account.ErrNonPositiveRequiredFunds) {
			return nil, failedOp(index, codeDidNotPayPrefund)
		}
		return nil, failedOp(index, codeValidationReverted)
	}
	if status != account.ValidationSuccess {
		monitoring.OpsSigFailed.Inc()
		return nil, failedOp(index, codeSignatureError)
	}
	monitoring.OpsValidated.Inc()
	return prefund, nil
}

// executeUserOp runs the execution phase for one validated envelope. The
// target call goes through the runtime's call path, so a failure unwinds the
// operation's own effects but never the batch; the outcome is recorded in the
// per-operation event either way.
func (ep *EntryPoint) executeUserOp(evm *vm.EVM, index int, op *types.PackedUserOperation) {
	opHash := ep.GetUserOpHash(op)
	ret, gasUsed, err := evm.Call(ep.Address, op.Sender, op.CallData, nil)
	success := err == nil
	if err != nil {
		monitoring.OpsReverted.Inc()
		ep.Log.WithField("op", index).WithField("err", err).Debug("operation execution reverted")
		evm.StateDB.AddLog(&types.Log{
			Address: ep.Address,
			Topics:  []common.Hash{UserOperationRevertTopic, opHash, common.BytesToHash(op.Sender.Bytes())},
			Data:    ret,
		})
	} else {
		monitoring.OpsExecuted.Inc()
	}
	ep.emitUserOperationEvent(evm, op, opHash, success, gasUsed)
}

func (ep *EntryPoint) emitUserOperationEvent(evm *vm.EVM, op *types.PackedUserOperation, opHash common.Hash, success bool, gasUsed uint64) {
	var data []byte
	successWord := uint64(0)
	if success {
		successWord = 1
	}
	actualGasCost := new(big.Int).Mul(ep.effectiveGasPrice(evm, op), new(big.Int).SetUint64(gasUsed))
	data = types.AppendBigWord(data, op.Nonce)
	data = types.AppendUint64Word(data, successWord)
	data = types.AppendBigWord(data, actualGasCost)
	data = types.AppendUint64Word(data, gasUsed)
	evm.StateDB.AddLog(&types.Log{
		Address: ep.Address,
		Topics:  []common.Hash{UserOperationEventTopic, opHash, common.BytesToHash(op.Sender.Bytes())},
		Data:    data,
	})
}

// Run exposes the entry point on the contract call surface. Batch submission
// happens through the Go API; the call surface only answers sequencer reads
// so accounts and tools can query their next nonce.
func (ep *EntryPoint) Run(evm *vm.EVM, caller common.Address, value *big.Int, input []byte) ([]byte, uint64, error) {
	return ep.nonces.Run(evm, caller, value, input)
}
