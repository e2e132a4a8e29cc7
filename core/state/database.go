package state

import (
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Database is the flat key-value backend a StateDB persists into. Keys are
// opaque; the StateDB owns the key schema.
type Database interface {
	Get(key []byte) ([]byte, bool, error)
	Put(key, value []byte) error
	Close() error
}

// memoryDatabase is a throwaway map-backed Database for tests and the demo
// runtime.
type memoryDatabase struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryDatabase returns an empty in-memory Database.
func NewMemoryDatabase() Database {
	return &memoryDatabase{data: make(map[string][]byte)}
}

func (db *memoryDatabase) Get(key []byte) ([]byte, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	cpy := make([]byte, len(v))
	copy(cpy, v)
	return cpy, true, nil
}

func (db *memoryDatabase) Put(key, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cpy := make([]byte, len(value))
	copy(cpy, value)
	db.data[string(key)] = cpy
	return nil
}

func (db *memoryDatabase) Close() error { return nil }

// levelDatabase persists state records in goleveldb with a fastcache layer in
// front of reads. The cache holds raw records keyed identically to the
// underlying store and is updated on every write, so it never serves stale
// data within one process.
type levelDatabase struct {
	db    *leveldb.DB
	cache *fastcache.Cache
}

const levelDatabaseCacheSize = 32 * 1024 * 1024

// NewLevelDatabase opens (or creates) a persistent state database at path.
func NewLevelDatabase(path string) (Database, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open state database")
	}
	return &levelDatabase{
		db:    db,
		cache: fastcache.New(levelDatabaseCacheSize),
	}, nil
}

func (l *levelDatabase) Get(key []byte) ([]byte, bool, error) {
	if v, ok := l.cache.HasGet(nil, key); ok {
		return v, true, nil
	}
	v, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "state database read")
	}
	l.cache.Set(key, v)
	return v, true, nil
}

func (l *levelDatabase) Put(key, value []byte) error {
	if err := l.db.Put(key, value, nil); err != nil {
		return errors.Wrap(err, "state database write")
	}
	l.cache.Set(key, value)
	return nil
}

func (l *levelDatabase) Close() error {
	return l.db.Close()
}
