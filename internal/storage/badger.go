//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/himanishpuri/SoundAlike/pkg/models"
)

// BadgerStore keeps each record as a JSON value under its key in an
// embedded badger directory.
type BadgerStore struct {
	db  *badger.DB
	log Logger
}

func NewBadgerStore(dir string, log Logger) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return &BadgerStore{db: db, log: log}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Upsert(key string, rec *models.Record) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	val, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
	if err != nil {
		return fmt.Errorf("storing fingerprint %q: %w", key, err)
	}
	s.log.Debugf("stored fingerprint %s", key)
	return nil
}

func (s *BadgerStore) Get(key string) (*models.Record, error) {
	var rec *models.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var derr error
			rec, derr = decodeRecord(key, val)
			return derr
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *BadgerStore) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("deleting fingerprint %q: %w", key, err)
	}
	return nil
}

// Iterate walks keys in byte order inside one read transaction.
func (s *BadgerStore) Iterate(fn func(key string, rec *models.Record) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))

			var rec *models.Record
			err := item.Value(func(val []byte) error {
				var derr error
				rec, derr = decodeRecord(key, val)
				return derr
			})
			if err != nil {
				s.log.Warnf("skipping entry: %v", err)
				continue
			}
			if err := fn(key, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Load() (map[string]*models.Record, error) {
	out := make(map[string]*models.Record)
	err := s.Iterate(func(key string, rec *models.Record) error {
		out[key] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
