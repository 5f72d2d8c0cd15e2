// Package repositories implements the durable side of the room core: a
// badger-backed blob store and the typed snapshot codec layered on top.
package repositories

import (
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStorage implements contract.Storage over a single badger database.
// Values are opaque blobs; encoding is the caller's business.
type BadgerStorage struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerStorage(db *badger.DB, log *slog.Logger) BadgerStorage {
	return BadgerStorage{db: db, log: log}
}

// Load reads one blob. A missing key yields (nil, nil) so callers can treat
// absence as "not yet persisted" without inspecting badger errors.
func (s BadgerStorage) Load(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return value, err
}

func (s BadgerStorage) Save(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// GetAll returns every key/value pair under prefix.
func (s BadgerStorage) GetAll(prefix string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[string(item.Key())] = value
		}
		return nil
	})
	return out, err
}

// SetAll replaces the whole prefix with the given values in one transaction.
func (s BadgerStorage) SetAll(prefix string, values map[string][]byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		p := []byte(prefix)
		var stale [][]byte
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			key := it.Item().KeyCopy(nil)
			if _, keep := values[string(key)]; !keep {
				stale = append(stale, key)
			}
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for key, value := range values {
			if err := txn.Set([]byte(key), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure writes def under key only when the key is missing.
func (s BadgerStorage) Ensure(key string, def []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		s.log.Debug("Initializing storage key", "key", key)
		return txn.Set([]byte(key), def)
	})
}
