package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/state"
)

// Call depth past which the runtime refuses to recurse. The account surface
// never legitimately nests deeper than a handful of frames.
const maxCallDepth = 64

// NativeContract is a contract implemented directly in Go and dispatched by
// the runtime instead of interpreted bytecode. Run receives the immediate
// caller identity, the value already transferred to the contract, and the
// raw calldata; it reports the gas its handlers consumed.
type NativeContract interface {
	Run(evm *EVM, caller common.Address, value *big.Int, input []byte) (ret []byte, gasUsed uint64, err error)
}

// BlockContext carries the per-block environment contracts may consult.
type BlockContext struct {
	ChainID     *big.Int
	BlockNumber *big.Int
	BaseFee     *big.Int // nil means a zero base fee
	Time        uint64
}

// EVM hosts native contract execution against a journalled StateDB. Calls
// run to completion one at a time; the runtime provides whole-call atomicity
// by snapshotting the state journal around every frame, so a failure at any
// depth unwinds every effect of that frame.
type EVM struct {
	Context BlockContext
	StateDB *state.StateDB

	contracts map[common.Address]NativeContract
	depth     int
}

// NewEVM returns a runtime bound to the given state.
func NewEVM(ctx BlockContext, statedb *state.StateDB) *EVM {
	return &EVM{
		Context:   ctx,
		StateDB:   statedb,
		contracts: make(map[common.Address]NativeContract),
	}
}

// Register installs a native contract at addr.
func (evm *EVM) Register(addr common.Address, contract NativeContract) {
	evm.contracts[addr] = contract
}

// ContractAt returns the native contract registered at addr, if any.
func (evm *EVM) ContractAt(addr common.Address) (NativeContract, bool) {
	c, ok := evm.contracts[addr]
	return c, ok
}

// CanTransfer reports whether addr holds at least amount.
func (evm *EVM) CanTransfer(addr common.Address, amount *big.Int) bool {
	want, overflow := uint256.FromBig(amount)
	if overflow {
		return false
	}
	return evm.StateDB.GetBalance(addr).Cmp(want) >= 0
}

// Transfer moves amount from sender to recipient. The caller must have
// checked CanTransfer first.
func (evm *EVM) Transfer(sender, recipient common.Address, amount *big.Int) {
	v, _ := uint256.FromBig(amount)
	evm.StateDB.SubBalance(sender, v)
	evm.StateDB.AddBalance(recipient, v)
}

// Call executes the contract at addr with the given input as caller,
// transferring value along with the call. On any error the frame's state
// changes are reverted in full; a plain transfer to an address with no
// native contract succeeds as a value move.
func (evm *EVM) Call(caller, addr common.Address, input []byte, value *big.Int) ([]byte, uint64, error) {
	if evm.depth > maxCallDepth {
		return nil, 0, ErrMaxCallDepth
	}
	if value == nil {
		value = new(big.Int)
	}
	snapshot := evm.StateDB.Snapshot()
	if value.Sign() > 0 {
		if !evm.CanTransfer(caller, value) {
			return nil, 0, ErrInsufficientBalance
		}
		evm.Transfer(caller, addr, value)
	}
	contract, ok := evm.contracts[addr]
	if !ok {
		// plain value transfer to an externally owned account
		return nil, 0, nil
	}
	evm.depth++
	ret, gasUsed, err := contract.Run(evm, caller, value, input)
	evm.depth--
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return ret, gasUsed, err
	}
	return ret, gasUsed, nil
}

// SystemCall executes the contract at addr through the privileged system
// path: no value accounting, caller identity forwarded verbatim. Only
// runtime-level components (the bootloader execution route) use this; the
// failure and rollback semantics are identical to Call.
func (evm *EVM) SystemCall(caller, addr common.Address, input []byte) ([]byte, uint64, error) {
	if evm.depth > maxCallDepth {
		return nil, 0, ErrMaxCallDepth
	}
	contract, ok := evm.contracts[addr]
	if !ok {
		return nil, 0, ErrExecutionReverted
	}
	snapshot := evm.StateDB.Snapshot()
	evm.depth++
	ret, gasUsed, err := contract.Run(evm, caller, new(big.Int), input)
	evm.depth--
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return ret, gasUsed, err
	}
	return ret, gasUsed, nil
}
