// Package sigcache memoizes signer recovery. ECDSA recovery dominates the
// validation hot path, and the same (digest, signature) pair is recovered at
// least twice per operation: once during simulation and once on-ledger.
package sigcache

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/crypto"
)

var globalCache, _ = lru.New(40000)

// Recover returns the signer address for the given prefixed digest and
// signature, consulting the global cache first. Recovery failures are not
// cached; they are cheap to reproduce and rare in honest traffic.
func Recover(digest common.Hash, sig []byte) (common.Address, error) {
	key := crypto.Keccak256Hash(digest.Bytes(), sig)
	if cached, ok := globalCache.Get(key); ok {
		return cached.(common.Address), nil
	}
	addr, err := crypto.RecoverAddress(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	globalCache.Add(key, addr)
	return addr, nil
}
