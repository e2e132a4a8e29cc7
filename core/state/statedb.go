package state

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/types"
)

// stateObject is the in-memory representation of one ledger account.
type stateObject struct {
	balance *uint256.Int
	nonce   uint64
	code    []byte
	storage map[common.Hash]common.Hash
}

// StateDB holds the world state the runtime executes against. Every mutation
// is journalled, so any prefix of a call's effects can be unwound with
// RevertToSnapshot. The ledger call model is strictly serialized; a StateDB
// must not be used from multiple goroutines.
type StateDB struct {
	db      Database // optional persistence; nil keeps state purely in memory
	objects map[common.Address]*stateObject
	logs    []*types.Log
	journal *journal
}

// New creates a StateDB on top of db. Pass nil for a purely in-memory state.
func New(db Database) *StateDB {
	return &StateDB{
		db:      db,
		objects: make(map[common.Address]*stateObject),
		journal: newJournal(),
	}
}

func accountKey(addr common.Address) []byte {
	return append([]byte("a"), addr.Bytes()...)
}

func storageKey(addr common.Address, slot common.Hash) []byte {
	key := append([]byte("s"), addr.Bytes()...)
	return append(key, slot.Bytes()...)
}

// getStateObject returns the object for addr, faulting it in from the
// database on first touch. Returns nil for unknown accounts.
func (s *StateDB) getStateObject(addr common.Address) *stateObject {
	if obj, ok := s.objects[addr]; ok {
		return obj
	}
	if s.db == nil {
		return nil
	}
	raw, ok, err := s.db.Get(accountKey(addr))
	if err != nil || !ok {
		return nil
	}
	obj := decodeAccount(raw)
	s.objects[addr] = obj
	return obj
}

// getOrNewStateObject returns the object for addr, creating it if absent.
func (s *StateDB) getOrNewStateObject(addr common.Address) *stateObject {
	if obj := s.getStateObject(addr); obj != nil {
		return obj
	}
	obj := &stateObject{
		balance: uint256.NewInt(0),
		storage: make(map[common.Hash]common.Hash),
	}
	s.objects[addr] = obj
	s.journal.append(createObjectChange{account: addr})
	return obj
}

// Exist reports whether the account is known to the state.
func (s *StateDB) Exist(addr common.Address) bool {
	return s.getStateObject(addr) != nil
}

// GetBalance returns the balance of addr. The returned value is a copy.
func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	if obj := s.getStateObject(addr); obj != nil {
		return new(uint256.Int).Set(obj.balance)
	}
	return uint256.NewInt(0)
}

// AddBalance adds amount to the balance of addr.
func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{account: addr, prev: obj.balance})
	obj.balance = new(uint256.Int).Add(obj.balance, amount)
}

// SubBalance subtracts amount from the balance of addr. The caller must have
// checked the balance covers the amount.
func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{account: addr, prev: obj.balance})
	obj.balance = new(uint256.Int).Sub(obj.balance, amount)
}

// GetNonce returns the nonce of addr.
func (s *StateDB) GetNonce(addr common.Address) uint64 {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.nonce
	}
	return 0
}

// SetNonce sets the nonce of addr.
func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(nonceChange{account: addr, prev: obj.nonce})
	obj.nonce = nonce
}

// GetState returns the storage value of addr at slot.
func (s *StateDB) GetState(addr common.Address, slot common.Hash) common.Hash {
	obj := s.getStateObject(addr)
	if obj == nil {
		return common.Hash{}
	}
	if v, ok := obj.storage[slot]; ok {
		return v
	}
	if s.db != nil {
		if raw, ok, err := s.db.Get(storageKey(addr, slot)); err == nil && ok {
			v := common.BytesToHash(raw)
			obj.storage[slot] = v
			return v
		}
	}
	return common.Hash{}
}

// SetState sets the storage value of addr at slot.
func (s *StateDB) SetState(addr common.Address, slot common.Hash, value common.Hash) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(storageChange{account: addr, key: slot, prev: s.GetState(addr, slot)})
	obj.storage[slot] = value
}

// GetCode returns the code marker of addr. Native contracts carry a one word
// marker rather than executable bytecode.
func (s *StateDB) GetCode(addr common.Address) []byte {
	if obj := s.getStateObject(addr); obj != nil {
		return common.CopyBytes(obj.code)
	}
	return nil
}

// SetCode sets the code marker of addr.
func (s *StateDB) SetCode(addr common.Address, code []byte) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(codeChange{account: addr, prev: obj.code})
	obj.code = common.CopyBytes(code)
}

// AddLog appends a contract event to the journalled log list.
func (s *StateDB) AddLog(log *types.Log) {
	s.journal.append(addLogChange{})
	s.logs = append(s.logs, log)
}

// Logs returns the events emitted so far.
func (s *StateDB) Logs() []*types.Log {
	return s.logs
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	return s.journal.length()
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	s.journal.revert(s, revid)
}

// Commit flushes every loaded account and storage slot to the backing
// database and resets the journal. The state is small enough here that a
// dirty-set optimization isn't warranted.
func (s *StateDB) Commit() error {
	if s.db == nil {
		s.journal = newJournal()
		return nil
	}
	for addr, obj := range s.objects {
		if err := s.db.Put(accountKey(addr), encodeAccount(obj)); err != nil {
			return err
		}
		for slot, value := range obj.storage {
			if err := s.db.Put(storageKey(addr, slot), value.Bytes()); err != nil {
				return err
			}
		}
	}
	s.journal = newJournal()
	return nil
}

// encodeAccount flattens obj into nonce || balance || code.
func encodeAccount(obj *stateObject) []byte {
	buf := make([]byte, 8+32, 8+32+len(obj.code))
	binary.BigEndian.PutUint64(buf[:8], obj.nonce)
	bal := obj.balance.Bytes32()
	copy(buf[8:40], bal[:])
	return append(buf, obj.code...)
}

func decodeAccount(raw []byte) *stateObject {
	obj := &stateObject{
		balance: uint256.NewInt(0),
		storage: make(map[common.Hash]common.Hash),
	}
	if len(raw) < 40 {
		return obj
	}
	obj.nonce = binary.BigEndian.Uint64(raw[:8])
	obj.balance.SetBytes(raw[8:40])
	if len(raw) > 40 {
		obj.code = common.CopyBytes(raw[40:])
	}
	return obj
}
