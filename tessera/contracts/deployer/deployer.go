// Package deployer implements the native runtime's system deployer: the only
// component allowed to bring new accounts into existence. Accounts reach it
// through the privileged system-call route, never through a plain call.
package deployer

import (
	"math/big"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/types"
	"github.com/tessera-chain/go-tessera/core/vm"
	"github.com/tessera-chain/go-tessera/crypto"
	"github.com/tessera-chain/go-tessera/logger"
	"github.com/tessera-chain/go-tessera/tessera/contracts/account"
)

// ContractAddress is the well-known deployer address in the system range.
var ContractAddress = common.HexToAddress("0x0000000000000000000000000000000000008006")

var createAccountSelector = crypto.Keccak256([]byte("createAccount(bytes32,address)"))[:4]

// AccountDeployedTopic is the topic of the deployment event.
var AccountDeployedTopic = crypto.Keccak256Hash([]byte("AccountDeployed(address,address)"))

const createGasCost uint64 = 32000

// Deployer creates accounts at deterministic addresses. The backend it hands
// to every new account is fixed at construction, binding all deployed
// accounts to the same host runtime.
type Deployer struct {
	logger.Instance
	Address common.Address
	backend account.AuthBackend
}

func New(addr common.Address, backend account.AuthBackend) *Deployer {
	return &Deployer{
		Instance: logger.New("deployer"),
		Address:  addr,
		backend:  backend,
	}
}

// AccountAddress derives the deterministic address an account deployed with
// the given owner and salt will live at.
func (d *Deployer) AccountAddress(owner common.Address, salt common.Hash) common.Address {
	h := crypto.Keccak256(
		d.Address.Bytes(),
		common.LeftPadBytes(owner.Bytes(), 32),
		salt.Bytes(),
	)
	return common.BytesToAddress(h[12:])
}

// CreateAccount deploys a fresh account owned by owner at its deterministic
// address and returns it. Deploying twice with the same owner and salt lands
// on the same address; the second deployment simply returns the existing
// account.
func (d *Deployer) CreateAccount(evm *vm.EVM, owner common.Address, salt common.Hash) *account.SmartAccount {
	addr := d.AccountAddress(owner, salt)
	if existing, ok := evm.ContractAt(addr); ok {
		if acct, ok := existing.(*account.SmartAccount); ok {
			return acct
		}
	}
	acct := account.Deploy(evm, addr, owner, d.backend)
	evm.StateDB.AddLog(&types.Log{
		Address: d.Address,
		Topics: []common.Hash{
			AccountDeployedTopic,
			common.BytesToHash(addr.Bytes()),
			common.BytesToHash(owner.Bytes()),
		},
	})
	d.Log.WithField("account", addr.Hex()).WithField("owner", owner.Hex()).Info("account deployed")
	return acct
}

// Run dispatches createAccount(bytes32,address) for callers arriving over the
// system-call route.
func (d *Deployer) Run(evm *vm.EVM, caller common.Address, value *big.Int, input []byte) ([]byte, uint64, error) {
	if len(input) < 4 {
		return nil, 0, vm.ErrExecutionReverted
	}
	selector, args := input[:4], input[4:]
	if !equalSelector(selector, createAccountSelector) {
		return nil, 0, vm.ErrExecutionReverted
	}
	salt, err := types.WordAt(args, 0)
	if err != nil {
		return nil, 0, vm.ErrExecutionReverted
	}
	owner, err := types.AddressAt(args, 1)
	if err != nil {
		return nil, 0, vm.ErrExecutionReverted
	}
	acct := d.CreateAccount(evm, owner, salt)
	return types.AppendAddressWord(nil, acct.Address), createGasCost, nil
}

// EncodeCreateAccountCall builds the calldata of createAccount(bytes32,address).
func EncodeCreateAccountCall(salt common.Hash, owner common.Address) []byte {
	data := make([]byte, 0, 4+64)
	data = append(data, createAccountSelector...)
	data = types.AppendHashWord(data, salt)
	data = types.AppendAddressWord(data, owner)
	return data
}

func equalSelector(a, b []byte) bool {
	return len(a) == 4 && len(b) == 4 && a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3]
}
