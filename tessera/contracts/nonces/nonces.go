// Package nonces implements the nonce sequencer system contract: a trusted
// per-account monotonic counter consulted for replay protection. Accounts
// consume their envelope nonce here strictly before any signature work or
// outbound call in the same flow.
package nonces

import (
	"errors"
	"math/big"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/types"
	"github.com/tessera-chain/go-tessera/core/vm"
	"github.com/tessera-chain/go-tessera/crypto"
)

// ContractAddress is the well-known sequencer address in the system range.
var ContractAddress = common.HexToAddress("0x0000000000000000000000000000000000008003")

// Gas costs reported by the handlers.
const (
	sloadGasCost  uint64 = 2100
	sstoreGasCost uint64 = 20000
)

// Storage layout: mapping(address => uint256) at slot 0.
const minNonceMappingSlot int64 = 0

var ErrNonceAlreadyUsed = errors.New("nonce already used")

// Method selectors for the dispatch surface.
var (
	getMinNonceSelector       = crypto.Keccak256([]byte("getMinNonce(address)"))[:4]
	incrementIfEqualsSelector = crypto.Keccak256([]byte("incrementMinNonceIfEquals(uint256)"))[:4]
)

// NonceManager is the sequencer instance. The address is injected at
// construction rather than read from a package singleton so tests and
// alternative deployments can relocate it.
type NonceManager struct {
	Address common.Address
}

func New(addr common.Address) *NonceManager {
	return &NonceManager{Address: addr}
}

func nonceSlot(account common.Address) common.Hash {
	return crypto.Keccak256Hash(
		common.LeftPadBytes(account.Bytes(), 32),
		common.BigToHash(big.NewInt(minNonceMappingSlot)).Bytes(),
	)
}

// GetMinNonce returns the current sequence number of account.
func (nm *NonceManager) GetMinNonce(evm *vm.EVM, account common.Address) *big.Int {
	return evm.StateDB.GetState(nm.Address, nonceSlot(account)).Big()
}

// IncrementMinNonceIfEquals advances the counter of account by one, but only
// if the stored value equals expected. A mismatch means the nonce was already
// consumed (or skipped ahead) and the whole call must abort; this is the
// replay check, and it is independent of any signature outcome.
func (nm *NonceManager) IncrementMinNonceIfEquals(evm *vm.EVM, account common.Address, expected *big.Int) error {
	if expected == nil {
		return ErrNonceAlreadyUsed
	}
	slot := nonceSlot(account)
	current := evm.StateDB.GetState(nm.Address, slot).Big()
	if current.Cmp(expected) != 0 {
		return ErrNonceAlreadyUsed
	}
	next := new(big.Int).Add(current, big.NewInt(1))
	evm.StateDB.SetState(nm.Address, slot, common.BigToHash(next))
	return nil
}

// Run dispatches the selector surface. incrementMinNonceIfEquals acts on the
// immediate caller identity, so an account can only ever consume its own
// sequence.
func (nm *NonceManager) Run(evm *vm.EVM, caller common.Address, value *big.Int, input []byte) ([]byte, uint64, error) {
	if len(input) < 4 {
		return nil, 0, vm.ErrExecutionReverted
	}
	selector, args := input[:4], input[4:]
	switch {
	case equalSelector(selector, getMinNonceSelector):
		account, err := types.AddressAt(args, 0)
		if err != nil {
			return nil, 0, vm.ErrExecutionReverted
		}
		return types.AppendBigWord(nil, nm.GetMinNonce(evm, account)), sloadGasCost, nil

	case equalSelector(selector, incrementIfEqualsSelector):
		expected, err := types.BigAt(args, 0)
		if err != nil {
			return nil, 0, vm.ErrExecutionReverted
		}
		if err := nm.IncrementMinNonceIfEquals(evm, caller, expected); err != nil {
			return nil, sloadGasCost, err
		}
		return nil, sloadGasCost + sstoreGasCost, nil
	}
	return nil, 0, vm.ErrExecutionReverted
}

func equalSelector(a, b []byte) bool {
	return len(a) == 4 && len(b) == 4 && a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3]
}
