// Package minttoken implements a minimal open-mint token used to observe
// account executions end to end: anyone may mint to any address, and the
// balance book records which caller drove the mint.
package minttoken

import (
	"math/big"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/types"
	"github.com/tessera-chain/go-tessera/core/vm"
	"github.com/tessera-chain/go-tessera/crypto"
)

// Storage layout: mapping(address => uint256) balances at slot 0.
const balancesMappingSlot int64 = 0

const (
	sloadGasCost  uint64 = 2100
	sstoreGasCost uint64 = 20000
)

var (
	mintSelector      = crypto.Keccak256([]byte("mint(address,uint256)"))[:4]
	balanceOfSelector = crypto.Keccak256([]byte("balanceOf(address)"))[:4]
)

// TransferTopic is the topic of the mint event (zero-address sender).
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// Token is a deployed mint-token instance.
type Token struct {
	Address common.Address
}

// Deploy registers a token at addr and returns it.
func Deploy(evm *vm.EVM, addr common.Address) *Token {
	t := &Token{Address: addr}
	evm.Register(addr, t)
	return t
}

func balanceSlot(holder common.Address) common.Hash {
	return crypto.Keccak256Hash(
		common.LeftPadBytes(holder.Bytes(), 32),
		common.BigToHash(big.NewInt(balancesMappingSlot)).Bytes(),
	)
}

// BalanceOf returns the token balance of holder.
func (t *Token) BalanceOf(evm *vm.EVM, holder common.Address) *big.Int {
	return evm.StateDB.GetState(t.Address, balanceSlot(holder)).Big()
}

// Mint credits amount to holder.
func (t *Token) Mint(evm *vm.EVM, holder common.Address, amount *big.Int) {
	slot := balanceSlot(holder)
	balance := evm.StateDB.GetState(t.Address, slot).Big()
	balance.Add(balance, amount)
	evm.StateDB.SetState(t.Address, slot, common.BigToHash(balance))
	evm.StateDB.AddLog(&types.Log{
		Address: t.Address,
		Topics: []common.Hash{
			TransferTopic,
			common.Hash{},
			common.BytesToHash(holder.Bytes()),
		},
		Data: types.AppendBigWord(nil, amount),
	})
}

// EncodeMintCall builds the calldata of mint(address,uint256).
func EncodeMintCall(holder common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+64)
	data = append(data, mintSelector...)
	data = types.AppendAddressWord(data, holder)
	data = types.AppendBigWord(data, amount)
	return data
}

func (t *Token) Run(evm *vm.EVM, caller common.Address, value *big.Int, input []byte) ([]byte, uint64, error) {
	if len(input) < 4 {
		return nil, 0, vm.ErrExecutionReverted
	}
	selector, args := input[:4], input[4:]
	switch {
	case equalSelector(selector, mintSelector):
		holder, err := types.AddressAt(args, 0)
		if err != nil {
			return nil, 0, vm.ErrExecutionReverted
		}
		amount, err := types.BigAt(args, 1)
		if err != nil {
			return nil, 0, vm.ErrExecutionReverted
		}
		t.Mint(evm, holder, amount)
		return nil, sloadGasCost + sstoreGasCost, nil

	case equalSelector(selector, balanceOfSelector):
		holder, err := types.AddressAt(args, 0)
		if err != nil {
			return nil, 0, vm.ErrExecutionReverted
		}
		return types.AppendBigWord(nil, t.BalanceOf(evm, holder)), sloadGasCost, nil
	}
	return nil, 0, vm.ErrExecutionReverted
}

func equalSelector(a, b []byte) bool {
	return len(a) == 4 && len(b) == 4 && a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3]
}
