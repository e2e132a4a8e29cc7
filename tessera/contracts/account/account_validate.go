package account

import (
	"math/big"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/types"
	"github.com/tessera-chain/go-tessera/core/vm"
	"github.com/tessera-chain/go-tessera/crypto"
	"github.com/tessera-chain/go-tessera/crypto/sigcache"
)

// validateSignature recovers the signer of digest under the personal-message
// prefix and compares it to the stored owner. A malformed signature is
// indistinguishable from a wrong signer: both report SigValidationFailed.
// Nothing here aborts the call.
func (a *SmartAccount) validateSignature(evm *vm.EVM, digest common.Hash, sig []byte) uint64 {
	signer, err := sigcache.Recover(crypto.PrefixedDigest(digest), sig)
	if err != nil {
		return SigValidationFailed
	}
	if signer.Cmp(a.Owner(evm)) != 0 {
		return SigValidationFailed
	}
	return ValidationSuccess
}

// ValidateUserOp is the aggregator-model validation entry point. Only the
// trusted intermediary may call it. The signature verdict is returned as a
// status code, and the prefund transfer runs regardless of that verdict: the
// intermediary has already spent verification work on the operation and is
// compensated for it either way.
func (a *SmartAccount) ValidateUserOp(evm *vm.EVM, caller common.Address, op *types.PackedUserOperation, opHash common.Hash, missingAccountFunds *big.Int) (uint64, error) {
	if err := a.requireFromTrustedCaller(caller); err != nil {
		return 0, err
	}
	status := a.validateSignature(evm, opHash, op.Signature)
	if err := a.payPrefund(evm, caller, missingAccountFunds); err != nil {
		return 0, err
	}
	return status, nil
}

// payPrefund moves the requested funds from the account to the caller. The
// amount must be positive and the transfer must succeed; either failure
// aborts the whole call.
func (a *SmartAccount) payPrefund(evm *vm.EVM, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrNonPositiveRequiredFunds
	}
	if !evm.CanTransfer(a.Address, amount) {
		return ErrTransferFailed
	}
	evm.Transfer(a.Address, to, amount)
	return nil
}

// ValidateTransaction is the native-model validation entry point, called by
// the bootloader. The sequencer nonce is consumed before anything else, so a
// replayed envelope fails here no matter what its signature says. The funding
// check is fatal in this model; the signature verdict stays a soft status.
func (a *SmartAccount) ValidateTransaction(evm *vm.EVM, caller common.Address, tx *types.NativeTransaction) (uint64, error) {
	if err := a.requireFromTrustedCaller(caller); err != nil {
		return 0, err
	}
	if err := a.backend.ConsumeNonce(evm, a.Address, tx.Nonce); err != nil {
		return 0, err
	}
	if err := a.backend.RequireFunds(evm, a.Address, tx.TotalRequiredBalance()); err != nil {
		return 0, err
	}
	status := a.validateSignature(evm, tx.SigningHash(evm.Context.ChainID), tx.Signature)
	return status, nil
}

// PayForTransaction settles the fee with the bootloader after a successful
// validation. A failed transfer is fatal.
func (a *SmartAccount) PayForTransaction(evm *vm.EVM, caller common.Address, tx *types.NativeTransaction) error {
	if err := a.requireFromTrustedCaller(caller); err != nil {
		return err
	}
	fee := new(big.Int).Mul(tx.MaxFeePerGas, tx.GasLimit)
	if !evm.CanTransfer(a.Address, fee) {
		return ErrTransferFailed
	}
	evm.Transfer(a.Address, caller, fee)
	return nil
}
