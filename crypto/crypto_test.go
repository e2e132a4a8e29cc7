package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessera-chain/go-tessera/common"
)

func TestKeccak256KnownVector(t *testing.T) {
	// keccak256 of the empty string
	require.Equal(t,
		"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		Keccak256Hash(nil).Hex())
}

func TestKeccak256MultiChunk(t *testing.T) {
	whole := Keccak256([]byte("hello world"))
	chunked := Keccak256([]byte("hello "), []byte("world"))
	require.Equal(t, whole, chunked)
}

func TestSignRecoverRoundtrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	addr := PubkeyToAddress(key.PubKey())

	digest := Keccak256Hash([]byte("an operation digest"))
	sig, err := Sign(digest.Bytes(), key)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	require.Less(t, sig[64], byte(4))

	recovered, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	require.Equal(t, addr, recovered)
}

func TestRecoverRejectsMalformedSignature(t *testing.T) {
	digest := Keccak256Hash([]byte("digest"))

	_, err := RecoverAddress(digest, make([]byte, 10))
	require.ErrorIs(t, err, ErrInvalidSignatureLen)

	sig := make([]byte, SignatureLength)
	sig[64] = 29
	_, err = RecoverAddress(digest, sig)
	require.ErrorIs(t, err, ErrInvalidRecoveryID)
}

func TestRecoverWrongDigestYieldsDifferentSigner(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	addr := PubkeyToAddress(key.PubKey())

	digest := Keccak256Hash([]byte("signed digest"))
	sig, err := Sign(digest.Bytes(), key)
	require.NoError(t, err)

	other := Keccak256Hash([]byte("another digest"))
	recovered, err := RecoverAddress(other, sig)
	if err == nil {
		require.NotEqual(t, addr, recovered)
	}
}

func TestSignRejectsNonDigestInput(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	_, err = Sign([]byte("too short"), key)
	require.Error(t, err)
}

func TestTextHashAppliesPrefix(t *testing.T) {
	msg := []byte("hello")
	want := Keccak256Hash([]byte("\x19Ethereum Signed Message:\n5"), msg)
	require.Equal(t, want, TextHash(msg))
}

func TestPrefixedDigestMatchesTextHash(t *testing.T) {
	digest := Keccak256Hash([]byte("op"))
	require.Equal(t, TextHash(digest.Bytes()), PrefixedDigest(digest))
}

func TestPubkeyToAddressDeterministic(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	a := PubkeyToAddress(key.PubKey())
	b := PubkeyToAddress(key.PubKey())
	require.Equal(t, a, b)
	require.NotEqual(t, common.Address{}, a)
}
