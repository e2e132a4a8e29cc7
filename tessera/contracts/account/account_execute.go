package account

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/types"
	"github.com/tessera-chain/go-tessera/core/vm"
)

// Execute performs the account's single outbound call. The trusted
// intermediary drives it as the final pipeline phase; the owner may also call
// it directly, bypassing validation entirely. A failed target call is fatal
// and unwinds the whole frame.
func (a *SmartAccount) Execute(evm *vm.EVM, caller common.Address, dest common.Address, value *big.Int, payload []byte) ([]byte, uint64, error) {
	if err := a.requireFromTrustedCallerOrOwner(evm, caller); err != nil {
		return nil, 0, err
	}
	return a.dispatch(evm, dest, value, payload)
}

// ExecuteTransaction runs the execution phase of a native-runtime envelope.
// Same gate and failure semantics as Execute; the destination, value and
// payload come from the envelope the bootloader validated earlier.
func (a *SmartAccount) ExecuteTransaction(evm *vm.EVM, caller common.Address, tx *types.NativeTransaction) ([]byte, uint64, error) {
	if err := a.requireFromTrustedCallerOrOwner(evm, caller); err != nil {
		return nil, 0, err
	}
	return a.dispatch(evm, tx.To, tx.Value, tx.Data)
}

// ExecuteFromOutside lets anyone relay a fully signed envelope without going
// through the trusted intermediary. There is no caller gate, so the signature
// verdict hardens from a status code into a fatal error: an unauthenticated
// path cannot report failure softly and still refuse to act on it. The nonce
// is consumed first, exactly as in the authenticated flow.
func (a *SmartAccount) ExecuteFromOutside(evm *vm.EVM, tx *types.NativeTransaction) ([]byte, uint64, error) {
	if err := a.backend.ConsumeNonce(evm, a.Address, tx.Nonce); err != nil {
		return nil, 0, err
	}
	if a.validateSignature(evm, tx.SigningHash(evm.Context.ChainID), tx.Signature) != ValidationSuccess {
		return nil, 0, ErrInvalidSignature
	}
	return a.dispatch(evm, tx.To, tx.Value, tx.Data)
}

func (a *SmartAccount) dispatch(evm *vm.EVM, dest common.Address, value *big.Int, payload []byte) ([]byte, uint64, error) {
	ret, gasUsed, err := a.backend.Dispatch(evm, a.Address, dest, value, payload)
	if err != nil {
		a.Log.WithField("dest", dest.Hex()).WithField("err", err).Debug("target call failed")
		return ret, gasUsed, errors.Wrap(ErrExecutionFailed, err.Error())
	}
	return ret, gasUsed, nil
}
