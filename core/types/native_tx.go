package types

import (
	"math/big"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/crypto"
)

// NativeTransaction is the envelope the native-runtime bootloader hands to an
// account for validation. It is the runtime's own transaction representation
// rather than the entry-point wire format; the reserved words exist so the
// layout can grow without breaking signed payloads.
type NativeTransaction struct {
	TxType                 *big.Int
	From                   common.Address
	To                     common.Address
	GasLimit               *big.Int
	GasPerPubdataByteLimit *big.Int
	MaxFeePerGas           *big.Int
	MaxPriorityFeePerGas   *big.Int
	Paymaster              common.Address
	Nonce                  *big.Int
	Value                  *big.Int
	Reserved               [4]*big.Int
	Data                   []byte
	Signature              []byte
	PaymasterInput         []byte
}

// packForSigning serializes every field except the signature into the fixed
// word layout the signing digest is derived from.
func (tx *NativeTransaction) packForSigning() []byte {
	var buf []byte
	buf = AppendBigWord(buf, tx.TxType)
	buf = AppendAddressWord(buf, tx.From)
	buf = AppendAddressWord(buf, tx.To)
	buf = AppendBigWord(buf, tx.GasLimit)
	buf = AppendBigWord(buf, tx.GasPerPubdataByteLimit)
	buf = AppendBigWord(buf, tx.MaxFeePerGas)
	buf = AppendBigWord(buf, tx.MaxPriorityFeePerGas)
	buf = AppendAddressWord(buf, tx.Paymaster)
	buf = AppendBigWord(buf, tx.Nonce)
	buf = AppendBigWord(buf, tx.Value)
	for _, r := range tx.Reserved {
		buf = AppendBigWord(buf, r)
	}
	buf = append(buf, crypto.Keccak256(tx.Data)...)
	buf = append(buf, crypto.Keccak256(tx.PaymasterInput)...)
	return buf
}

// SigningHash derives the digest the owner signs for this transaction on the
// given chain. The signature field itself is excluded from the preimage.
func (tx *NativeTransaction) SigningHash(chainID *big.Int) common.Hash {
	var buf []byte
	buf = AppendBigWord(buf, chainID)
	buf = append(buf, crypto.Keccak256(tx.packForSigning())...)
	return crypto.Keccak256Hash(buf)
}

// TotalRequiredBalance returns the balance the sending account must hold for
// the transaction to be processable: the fee ceiling times the gas ceiling
// plus the value transferred by the call itself.
func (tx *NativeTransaction) TotalRequiredBalance() *big.Int {
	required := new(big.Int).Mul(tx.MaxFeePerGas, tx.GasLimit)
	return required.Add(required, tx.Value)
}
