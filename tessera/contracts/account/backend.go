package account

import (
	"math/big"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/vm"
	"github.com/tessera-chain/go-tessera/tessera/contracts/nonces"
)

// AuthBackend is the host-environment strategy of an account. The two ledger
// runtimes this account targets differ only in which intermediary identity
// the gates compare against, when the nonce sequencer is consumed, whether
// funding shortfalls are fatal during validation, and how execution routes
// system-destined calls. Everything else - the validation engine, the
// signature verifier, the ownership store - is shared.
type AuthBackend interface {
	// TrustedCaller is the intermediary identity the authorization gates
	// compare the immediate caller against.
	TrustedCaller() common.Address

	// ConsumeNonce performs the variant's replay-protection step for a
	// validation running inside the account.
	ConsumeNonce(evm *vm.EVM, acct common.Address, nonce *big.Int) error

	// RequireFunds enforces the variant's fatal funding precondition during
	// validation.
	RequireFunds(evm *vm.EVM, acct common.Address, required *big.Int) error

	// Dispatch performs the outbound target call of an execution.
	Dispatch(evm *vm.EVM, from, to common.Address, value *big.Int, payload []byte) ([]byte, uint64, error)
}

// EntryPointBackend adapts the account to the generic aggregator model: the
// trusted caller is a configured entry point contract, which consumes the
// nonce sequencer and settles funding itself before calling into the account.
type EntryPointBackend struct {
	entryPoint common.Address
}

func NewEntryPointBackend(entryPoint common.Address) *EntryPointBackend {
	return &EntryPointBackend{entryPoint: entryPoint}
}

func (b *EntryPointBackend) TrustedCaller() common.Address {
	return b.entryPoint
}

// ConsumeNonce refuses: the entry point checks and advances its sequencer
// before account validation runs, and it is the only replay protection this
// model has. The entry points that consume the sequencer from inside the
// account (the native envelope flows) must not be reachable on an aggregation
// account, or a signed envelope could be executed any number of times.
func (b *EntryPointBackend) ConsumeNonce(evm *vm.EVM, acct common.Address, nonce *big.Int) error {
	return ErrNoAccountSequencer
}

// RequireFunds is a no-op: funding insufficiency surfaces later as a failed
// prefund transfer, which the entry point maps to a rejected operation.
func (b *EntryPointBackend) RequireFunds(evm *vm.EVM, acct common.Address, required *big.Int) error {
	return nil
}

func (b *EntryPointBackend) Dispatch(evm *vm.EVM, from, to common.Address, value *big.Int, payload []byte) ([]byte, uint64, error) {
	return evm.Call(from, to, payload, value)
}

// BootloaderBackend adapts the account to the native runtime: the trusted
// caller is the well-known bootloader, the account consumes the sequencer
// itself at the very start of validation, funding shortfalls abort the whole
// call, and calls aimed at the system deployer are routed through the
// privileged system-call path.
type BootloaderBackend struct {
	bootloader common.Address
	deployer   common.Address
	nonces     *nonces.NonceManager
}

func NewBootloaderBackend(bootloader, deployer common.Address, nm *nonces.NonceManager) *BootloaderBackend {
	return &BootloaderBackend{
		bootloader: bootloader,
		deployer:   deployer,
		nonces:     nm,
	}
}

func (b *BootloaderBackend) TrustedCaller() common.Address {
	return b.bootloader
}

// ConsumeNonce bumps the sequencer before any other validation step. A replay
// fails here, independent of the signature on the envelope.
func (b *BootloaderBackend) ConsumeNonce(evm *vm.EVM, acct common.Address, nonce *big.Int) error {
	return b.nonces.IncrementMinNonceIfEquals(evm, acct, nonce)
}

func (b *BootloaderBackend) RequireFunds(evm *vm.EVM, acct common.Address, required *big.Int) error {
	if !evm.CanTransfer(acct, required) {
		return ErrInsufficientBalance
	}
	return nil
}

// Dispatch routes deployer-bound calls through the system-call path, which
// bypasses value accounting; every other destination takes the generic call
// path. Failure semantics are identical on both routes.
func (b *BootloaderBackend) Dispatch(evm *vm.EVM, from, to common.Address, value *big.Int, payload []byte) ([]byte, uint64, error) {
	if to.Cmp(b.deployer) == 0 {
		return evm.SystemCall(from, to, payload)
	}
	return evm.Call(from, to, payload, value)
}
