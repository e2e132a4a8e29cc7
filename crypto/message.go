package crypto

import (
	"fmt"

	"github.com/tessera-chain/go-tessera/common"
)

// messagePrefix is the personal-message envelope defined by EIP-191. Verifying
// intermediaries hash operation digests through this transform before signer
// recovery, so the account must apply the exact same wrapping.
const messagePrefix = "\x19Ethereum Signed Message:\n"

// TextHash prefixes the given message with the personal-message envelope and
// hashes the result. This is the digest that wallet `personal_sign` calls
// produce for arbitrary data.
func TextHash(data []byte) common.Hash {
	return Keccak256Hash([]byte(fmt.Sprintf("%s%d", messagePrefix, len(data))), data)
}

// PrefixedDigest applies the personal-message envelope to a 32 byte operation
// digest. Signatures over operation envelopes are always made over this
// prefixed form, never over the raw canonical hash.
func PrefixedDigest(digest common.Hash) common.Hash {
	return TextHash(digest.Bytes())
}
