// Package bootloader implements the native runtime's transaction driver: the
// privileged component that feeds signed envelopes to accounts, phase by
// phase. It is the trusted intermediary of the native model, so its identity
// is what the account gates compare against.
package bootloader

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/types"
	"github.com/tessera-chain/go-tessera/core/vm"
	"github.com/tessera-chain/go-tessera/logger"
	"github.com/tessera-chain/go-tessera/tessera/contracts/account"
)

// ContractAddress is the well-known bootloader identity in the system range.
var ContractAddress = common.HexToAddress("0x0000000000000000000000000000000000008001")

var (
	ErrAccountNotDeployed = errors.New("sending account is not deployed")
	ErrSignatureRejected  = errors.New("account rejected the transaction signature")
)

// Bootloader drives native envelopes through validation, fee settlement and
// execution against deployed accounts.
type Bootloader struct {
	logger.Instance
	Address common.Address
}

func New(addr common.Address) *Bootloader {
	return &Bootloader{
		Instance: logger.New("bootloader"),
		Address:  addr,
	}
}

// ProcessTransaction runs the full pipeline for one envelope: validation
// (which consumes the nonce and checks funding), fee settlement, then the
// outbound call. Any fatal step unwinds the whole transaction; a clean but
// failed signature verdict aborts after validation, with the consumed nonce
// kept, since the sequencer moved before the verdict was known.
func (b *Bootloader) ProcessTransaction(evm *vm.EVM, tx *types.NativeTransaction) ([]byte, uint64, error) {
	acct, err := b.accountAt(evm, tx.From)
	if err != nil {
		return nil, 0, err
	}

	snapshot := evm.StateDB.Snapshot()
	status, err := acct.ValidateTransaction(evm, b.Address, tx)
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return nil, 0, err
	}
	if status != account.ValidationSuccess {
		return nil, 0, ErrSignatureRejected
	}
	if err := acct.PayForTransaction(evm, b.Address, tx); err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return nil, 0, err
	}
	ret, gasUsed, err := acct.ExecuteTransaction(evm, b.Address, tx)
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return ret, gasUsed, err
	}
	b.Log.WithField("from", tx.From.Hex()).WithField("nonce", tx.Nonce).Debug("transaction processed")
	return ret, gasUsed, nil
}

func (b *Bootloader) accountAt(evm *vm.EVM, addr common.Address) (*account.SmartAccount, error) {
	contract, ok := evm.ContractAt(addr)
	if !ok {
		return nil, ErrAccountNotDeployed
	}
	acct, ok := contract.(*account.SmartAccount)
	if !ok {
		return nil, ErrAccountNotDeployed
	}
	return acct, nil
}

// Run rejects all calls: the bootloader is an identity and a Go-side driver,
// not a callable contract surface.
func (b *Bootloader) Run(evm *vm.EVM, caller common.Address, value *big.Int, input []byte) ([]byte, uint64, error) {
	return nil, 0, vm.ErrExecutionReverted
}
