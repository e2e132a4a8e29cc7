package types

import "github.com/tessera-chain/go-tessera/common"

// Log represents a contract log event emitted by a native contract while
// handling a call. Logs live in the state journal and unwind with it.
type Log struct {
	// address of the contract that generated the event
	Address common.Address
	// list of topics provided by the contract
	Topics []common.Hash
	// supplied by the contract, usually ABI-encoded
	Data []byte
}
