package types

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/crypto"
)

// PackedUserOperation is the fixed-layout authorization request an external
// submitter hands to the trusted entry point. The field order and the two
// packed gas words match the account-abstraction standard wire layout
// bit-for-bit, so envelopes produced here interoperate with any verifier
// expecting that packing.
//
// The signature covers every other field via the canonical hash; the envelope
// is treated as immutable once signed.
type PackedUserOperation struct {
	Sender             common.Address
	Nonce              *big.Int
	InitCode           []byte
	CallData           []byte
	AccountGasLimits   common.Hash // verificationGasLimit (high 128) || callGasLimit (low 128)
	PreVerificationGas *big.Int
	GasFees            common.Hash // maxPriorityFeePerGas (high 128) || maxFeePerGas (low 128)
	PaymasterAndData   []byte
	Signature          []byte
}

// PackGasWord packs two 128 bit quantities into one big-endian word,
// high in the upper half, low in the lower half.
func PackGasWord(high, low *big.Int) common.Hash {
	var word common.Hash
	h, _ := uint256.FromBig(high)
	l, _ := uint256.FromBig(low)
	hb := h.Bytes32()
	lb := l.Bytes32()
	copy(word[:16], hb[16:])
	copy(word[16:], lb[16:])
	return word
}

func unpackHigh128(word common.Hash) *big.Int {
	v := new(uint256.Int).SetBytes(word[:16])
	return v.ToBig()
}

func unpackLow128(word common.Hash) *big.Int {
	v := new(uint256.Int).SetBytes(word[16:])
	return v.ToBig()
}

// VerificationGasLimit returns the verification gas ceiling from the packed
// accountGasLimits word.
func (op *PackedUserOperation) VerificationGasLimit() *big.Int {
	return unpackHigh128(op.AccountGasLimits)
}

// CallGasLimit returns the execution gas ceiling from the packed
// accountGasLimits word.
func (op *PackedUserOperation) CallGasLimit() *big.Int {
	return unpackLow128(op.AccountGasLimits)
}

// MaxPriorityFeePerGas returns the priority fee cap from the packed gasFees word.
func (op *PackedUserOperation) MaxPriorityFeePerGas() *big.Int {
	return unpackHigh128(op.GasFees)
}

// MaxFeePerGas returns the total fee cap from the packed gasFees word.
func (op *PackedUserOperation) MaxFeePerGas() *big.Int {
	return unpackLow128(op.GasFees)
}

// PackForSigning ABI-encodes the envelope with its dynamic fields collapsed
// to their hashes and the signature excluded. This is the preimage of the
// canonical operation hash.
func (op *PackedUserOperation) PackForSigning() []byte {
	var buf []byte
	buf = AppendAddressWord(buf, op.Sender)
	buf = AppendBigWord(buf, op.Nonce)
	buf = append(buf, crypto.Keccak256(op.InitCode)...)
	buf = append(buf, crypto.Keccak256(op.CallData)...)
	buf = AppendHashWord(buf, op.AccountGasLimits)
	buf = AppendBigWord(buf, op.PreVerificationGas)
	buf = AppendHashWord(buf, op.GasFees)
	buf = append(buf, crypto.Keccak256(op.PaymasterAndData)...)
	return buf
}

// UserOpHash derives the canonical hash of the envelope, bound to the entry
// point that will process it and the chain it targets. Only the trusted entry
// point computes this; the account receives the resulting digest and never
// recomputes it.
func UserOpHash(op *PackedUserOperation, entryPoint common.Address, chainID *big.Int) common.Hash {
	inner := crypto.Keccak256(op.PackForSigning())
	var outer []byte
	outer = append(outer, inner...)
	outer = AppendAddressWord(outer, entryPoint)
	outer = AppendBigWord(outer, chainID)
	return crypto.Keccak256Hash(outer)
}
