package state

import (
	"github.com/holiman/uint256"

	"github.com/tessera-chain/go-tessera/common"
)

// journalEntry is a modification entry in the state change journal that can
// be reverted on demand.
type journalEntry interface {
	// revert undoes the change introduced by this entry.
	revert(*StateDB)
}

// journal contains the list of state modifications applied since the last
// state commit. These are tracked to be able to be reverted in the case of
// an execution failure.
type journal struct {
	entries []journalEntry
}

func newJournal() *journal {
	return &journal{}
}

// append inserts a new modification entry to the end of the journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// revert undoes a batch of journalled modifications down to snapshot.
func (j *journal) revert(statedb *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(statedb)
	}
	j.entries = j.entries[:snapshot]
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

type (
	createObjectChange struct {
		account common.Address
	}
	balanceChange struct {
		account common.Address
		prev    *uint256.Int
	}
	nonceChange struct {
		account common.Address
		prev    uint64
	}
	storageChange struct {
		account common.Address
		key     common.Hash
		prev    common.Hash
	}
	codeChange struct {
		account common.Address
		prev    []byte
	}
	addLogChange struct{}
)

func (ch createObjectChange) revert(s *StateDB) {
	delete(s.objects, ch.account)
}

func (ch balanceChange) revert(s *StateDB) {
	s.objects[ch.account].balance = ch.prev
}

func (ch nonceChange) revert(s *StateDB) {
	s.objects[ch.account].nonce = ch.prev
}

func (ch storageChange) revert(s *StateDB) {
	s.objects[ch.account].storage[ch.key] = ch.prev
}

func (ch codeChange) revert(s *StateDB) {
	s.objects[ch.account].code = ch.prev
}

func (ch addLogChange) revert(s *StateDB) {
	s.logs = s.logs[:len(s.logs)-1]
}
