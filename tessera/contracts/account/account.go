// Package account implements the programmable authorization account: a
// contract whose outbound calls are gated on a Validate -> Fund -> Execute
// pipeline driven by a trusted intermediary, with signature checks against a
// single stored owner key. The same account logic serves two host runtimes
// through the AuthBackend strategy.
package account

import (
	"math/big"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/types"
	"github.com/tessera-chain/go-tessera/core/vm"
	"github.com/tessera-chain/go-tessera/crypto"
	"github.com/tessera-chain/go-tessera/logger"
)

// Validation status codes returned to the trusted intermediary. A signature
// mismatch is a reportable outcome, not an abort.
const (
	ValidationSuccess   uint64 = 0
	SigValidationFailed uint64 = 1
)

// Method selectors for the account's dispatch surface.
var (
	ExecuteSelector           = crypto.Keccak256([]byte("execute(address,uint256,bytes)"))[:4]
	transferOwnershipSelector = crypto.Keccak256([]byte("transferOwnership(address)"))[:4]
	ownerSelector             = crypto.Keccak256([]byte("owner()"))[:4]
	trustedCallerSelector     = crypto.Keccak256([]byte("trustedIntermediary()"))[:4]
)

// OwnershipTransferredTopic is the topic of the ownership-change event.
var OwnershipTransferredTopic = crypto.Keccak256Hash([]byte("OwnershipTransferred(address,address)"))

// CodeMarker is the one-word code entry written at deployment so the account
// is distinguishable from an externally owned address in persisted state.
var CodeMarker = crypto.Keccak256([]byte("tessera.account.v1"))

// Gas costs reported by the handlers.
const (
	sloadGasCost  uint64 = 2100
	sstoreGasCost uint64 = 20000
	logGasCost    uint64 = 1875
)

// SmartAccount is a deployed account instance bound to its host runtime
// through a backend.
type SmartAccount struct {
	logger.Instance
	Address common.Address
	backend AuthBackend
}

// New wraps an already-deployed account at addr.
func New(addr common.Address, backend AuthBackend) *SmartAccount {
	return &SmartAccount{
		Instance: logger.New("account"),
		Address:  addr,
		backend:  backend,
	}
}

// Deploy registers a fresh account at addr with the given owner key and
// returns it. The owner lands in the ownership store before the account is
// reachable.
func Deploy(evm *vm.EVM, addr common.Address, owner common.Address, backend AuthBackend) *SmartAccount {
	a := New(addr, backend)
	a.setOwner(evm, owner)
	evm.StateDB.SetCode(addr, CodeMarker)
	evm.Register(addr, a)
	return a
}

// Owner reads the ownership store.
func (a *SmartAccount) Owner(evm *vm.EVM) common.Address {
	return common.BytesToAddress(evm.StateDB.GetState(a.Address, common.BigToHash(big.NewInt(ownerSlot))).Bytes())
}

func (a *SmartAccount) setOwner(evm *vm.EVM, owner common.Address) {
	evm.StateDB.SetState(a.Address, common.BigToHash(big.NewInt(ownerSlot)), common.BytesToHash(owner.Bytes()))
}

// TrustedCaller exposes the backend's intermediary identity.
func (a *SmartAccount) TrustedCaller() common.Address {
	return a.backend.TrustedCaller()
}

// requireFromTrustedCaller gates validation entry points on the intermediary
// identity.
func (a *SmartAccount) requireFromTrustedCaller(caller common.Address) error {
	if caller.Cmp(a.backend.TrustedCaller()) != 0 {
		return ErrNotFromTrustedCaller
	}
	return nil
}

// requireFromTrustedCallerOrOwner gates execution entry points: the owner may
// drive the account directly, bypassing the pipeline.
func (a *SmartAccount) requireFromTrustedCallerOrOwner(evm *vm.EVM, caller common.Address) error {
	if caller.Cmp(a.backend.TrustedCaller()) != 0 && caller.Cmp(a.Owner(evm)) != 0 {
		return ErrNotFromTrustedCallerOrOwner
	}
	return nil
}

// TransferOwnership rotates the stored owner key. Only the current owner may
// rotate, and the zero address is rejected so the account cannot be bricked.
func (a *SmartAccount) TransferOwnership(evm *vm.EVM, caller common.Address, newOwner common.Address) (uint64, error) {
	prev := a.Owner(evm)
	if caller.Cmp(prev) != 0 {
		return 0, ErrNotFromOwner
	}
	if newOwner.Cmp(common.Address{}) == 0 {
		return 0, ErrZeroOwner
	}
	a.setOwner(evm, newOwner)
	evm.StateDB.AddLog(&types.Log{
		Address: a.Address,
		Topics: []common.Hash{
			OwnershipTransferredTopic,
			common.BytesToHash(prev.Bytes()),
			common.BytesToHash(newOwner.Bytes()),
		},
	})
	return sloadGasCost + sstoreGasCost + logGasCost, nil
}

// EncodeExecuteCall builds the calldata of execute(address,uint256,bytes).
func EncodeExecuteCall(dest common.Address, value *big.Int, payload []byte) []byte {
	data := make([]byte, 0, 4+32*4+len(payload)+32)
	data = append(data, ExecuteSelector...)
	data = types.AppendAddressWord(data, dest)
	data = types.AppendBigWord(data, value)
	data = types.AppendUint64Word(data, 96)
	data = types.AppendBytesTail(data, payload)
	return data
}

// decodeExecuteArgs parses the argument block of execute(address,uint256,bytes).
func decodeExecuteArgs(args []byte) (common.Address, *big.Int, []byte, error) {
	dest, err := types.AddressAt(args, 0)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	value, err := types.BigAt(args, 1)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	payload, err := types.BytesAt(args, 2)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return dest, value, payload, nil
}

// Run dispatches the account's selector surface. The structured entry points
// (ValidateUserOp, ExecuteTransaction and friends) are called directly by the
// Go-side intermediaries; this surface covers external contract calls.
func (a *SmartAccount) Run(evm *vm.EVM, caller common.Address, value *big.Int, input []byte) ([]byte, uint64, error) {
	if len(input) < 4 {
		// plain value transfer into the account
		return nil, 0, nil
	}
	selector, args := input[:4], input[4:]
	switch {
	case equalSelector(selector, ExecuteSelector):
		dest, callValue, payload, err := decodeExecuteArgs(args)
		if err != nil {
			return nil, 0, vm.ErrExecutionReverted
		}
		return a.Execute(evm, caller, dest, callValue, payload)

	case equalSelector(selector, transferOwnershipSelector):
		newOwner, err := types.AddressAt(args, 0)
		if err != nil {
			return nil, 0, vm.ErrExecutionReverted
		}
		gasUsed, err := a.TransferOwnership(evm, caller, newOwner)
		return nil, gasUsed, err

	case equalSelector(selector, ownerSelector):
		return types.AppendAddressWord(nil, a.Owner(evm)), sloadGasCost, nil

	case equalSelector(selector, trustedCallerSelector):
		return types.AppendAddressWord(nil, a.backend.TrustedCaller()), sloadGasCost, nil
	}
	return nil, 0, vm.ErrExecutionReverted
}

func equalSelector(a, b []byte) bool {
	return len(a) == 4 && len(b) == 4 && a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3]
}
