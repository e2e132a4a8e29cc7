package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	becdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/tessera-chain/go-tessera/common"
)

// SignatureLength indicates the byte length required to carry a signature
// with recovery id: 32 bytes r, 32 bytes s, 1 byte recovery id.
const SignatureLength = 64 + 1

var (
	ErrInvalidSignatureLen = errors.New("invalid signature length")
	ErrInvalidRecoveryID   = errors.New("invalid signature recovery id")
)

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates and returns the Keccak256 hash of the input data,
// converting it to an internal Hash data structure.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	copy(h[:], d.Sum(nil))
	return h
}

// Sign calculates an ECDSA signature over the given 32 byte digest.
//
// The produced signature is in the [R || S || V] format where V is 0 or 1.
// The digest must be the result of hashing the actual message; signing raw
// unhashed data is forbidden since an attacker could use it to forge
// signatures over chosen induced digests.
func Sign(digestHash []byte, key *btcec.PrivateKey) ([]byte, error) {
	if len(digestHash) != common.HashLength {
		return nil, fmt.Errorf("digest is required to be exactly %d bytes (%d)", common.HashLength, len(digestHash))
	}
	compact, err := becdsa.SignCompact(key, digestHash, false)
	if err != nil {
		return nil, err
	}
	// btcec orders the signature [V || R || S] with the legacy 27 offset on V.
	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[64] = compact[0] - 27
	return sig, nil
}

// SigToPub recovers the public key that created the given signature over the
// given digest. The signature must be in [R || S || V] format.
func SigToPub(digestHash, sig []byte) (*btcec.PublicKey, error) {
	if len(sig) != SignatureLength {
		return nil, ErrInvalidSignatureLen
	}
	if sig[64] >= 4 {
		return nil, ErrInvalidRecoveryID
	}
	compact := make([]byte, SignatureLength)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])
	pub, _, err := becdsa.RecoverCompact(compact, digestHash)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// RecoverAddress returns the ledger address of the identity that signed the
// given digest. A malformed signature surfaces as an error; callers that must
// treat malformed and mismatched signatures identically do so themselves.
func RecoverAddress(digestHash common.Hash, sig []byte) (common.Address, error) {
	pub, err := SigToPub(digestHash.Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	return PubkeyToAddress(pub), nil
}

// PubkeyToAddress derives the ledger address for the given public key:
// the rightmost 20 bytes of the Keccak256 of the uncompressed key material.
func PubkeyToAddress(pub *btcec.PublicKey) common.Address {
	raw := pub.SerializeUncompressed()
	return common.BytesToAddress(Keccak256(raw[1:])[12:])
}

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}
