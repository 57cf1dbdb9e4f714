package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/censo/core"
)

type DB struct {
	mutex sync.RWMutex
	table map[string][]byte
}

var _ core.KVStore = (*DB)(nil)

func Open() *DB {
	return &DB{table: make(map[string][]byte)}
}

func (db *DB) Get(_ context.Context, key string) ([]byte, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	val, ok := db.table[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	return append([]byte(nil), val...), nil
}

func (db *DB) Set(_ context.Context, key string, value []byte) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.table[key] = append([]byte(nil), value...)
	return nil
}

func (db *DB) Update(_ context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	var current []byte
	if val, ok := db.table[key]; ok {
		current = append([]byte(nil), val...)
	}
	val, err := fn(current)
	if err != nil {
		return err
	}
	db.table[key] = append([]byte(nil), val...)
	return nil
}

// Delete removes key; used by tests to simulate missing state.
func (db *DB) Delete(key string) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	delete(db.table, key)
}

func (db *DB) Close() error { return nil }
