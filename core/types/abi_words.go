package types

import (
	"errors"
	"math/big"

	"github.com/tessera-chain/go-tessera/common"
)

// Native contracts exchange calldata in the solidity ABI word format:
// a 4 byte selector followed by 32 byte head words, with dynamic byte
// arguments carried in a length-prefixed tail addressed by head offsets.
// Only the subset of the encoding the account surface needs is implemented
// here; there is no tuple or array support.

var ErrBadCalldata = errors.New("malformed calldata")

const wordSize = 32

// AppendAddressWord appends addr as a left-padded 32 byte word.
func AppendAddressWord(buf []byte, addr common.Address) []byte {
	return append(buf, common.LeftPadBytes(addr.Bytes(), wordSize)...)
}

// AppendBigWord appends v as a 32 byte big-endian word. Values wider than
// 256 bits are cropped from the left; nil encodes as the zero word.
func AppendBigWord(buf []byte, v *big.Int) []byte {
	word := make([]byte, wordSize)
	if v != nil {
		b := v.Bytes()
		if len(b) > wordSize {
			b = b[len(b)-wordSize:]
		}
		copy(word[wordSize-len(b):], b)
	}
	return append(buf, word...)
}

// AppendUint64Word appends v as a 32 byte big-endian word.
func AppendUint64Word(buf []byte, v uint64) []byte {
	return AppendBigWord(buf, new(big.Int).SetUint64(v))
}

// AppendHashWord appends h verbatim as one word.
func AppendHashWord(buf []byte, h common.Hash) []byte {
	return append(buf, h.Bytes()...)
}

// AppendBytesTail appends the dynamic-bytes tail encoding of b: a length
// word followed by the payload padded up to a word boundary.
func AppendBytesTail(buf, b []byte) []byte {
	buf = AppendUint64Word(buf, uint64(len(b)))
	buf = append(buf, b...)
	if rem := len(b) % wordSize; rem != 0 {
		buf = append(buf, make([]byte, wordSize-rem)...)
	}
	return buf
}

// WordAt returns head word i of args (the calldata with the selector already
// stripped).
func WordAt(args []byte, i int) (common.Hash, error) {
	off := i * wordSize
	if off+wordSize > len(args) {
		return common.Hash{}, ErrBadCalldata
	}
	return common.BytesToHash(args[off : off+wordSize]), nil
}

// AddressAt decodes head word i as an address.
func AddressAt(args []byte, i int) (common.Address, error) {
	w, err := WordAt(args, i)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(w.Bytes()), nil
}

// BigAt decodes head word i as an unsigned big integer.
func BigAt(args []byte, i int) (*big.Int, error) {
	w, err := WordAt(args, i)
	if err != nil {
		return nil, err
	}
	return w.Big(), nil
}

// BytesAt decodes head word i as an offset into the dynamic tail and returns
// the bytes argument stored there. The offset and length words come straight
// from untrusted calldata, so every comparison is done without 64-bit
// wraparound.
func BytesAt(args []byte, i int) ([]byte, error) {
	w, err := WordAt(args, i)
	if err != nil {
		return nil, err
	}
	size := uint64(len(args))
	off := w.Big()
	if !off.IsUint64() || off.Uint64() > size || size-off.Uint64() < wordSize {
		return nil, ErrBadCalldata
	}
	start := off.Uint64()
	length := new(big.Int).SetBytes(args[start : start+wordSize])
	if !length.IsUint64() || length.Uint64() > size-(start+wordSize) {
		return nil, ErrBadCalldata
	}
	return common.CopyBytes(args[start+wordSize : start+wordSize+length.Uint64()]), nil
}
