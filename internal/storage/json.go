package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/himanishpuri/SoundAlike/pkg/models"
	"github.com/himanishpuri/SoundAlike/pkg/utils"
)

// fileLocks holds one mutex per catalogue file, shared by every JSONStore
// in the process that points at it. Writers in other processes are not
// coordinated.
var fileLocks sync.Map

func lockFor(path string) *sync.Mutex {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	mu, _ := fileLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// JSONStore keeps the whole catalogue in one JSON document that is
// rewritten on every mutation. Only one process may write a given file.
type JSONStore struct {
	mu   *sync.Mutex
	path string
	log  Logger
}

func NewJSONStore(path string, log Logger) *JSONStore {
	return &JSONStore{mu: lockFor(path), path: path, log: log}
}

func (s *JSONStore) Path() string {
	return s.path
}

// readRaw returns the catalogue with values left undecoded, so entries
// this process cannot parse are still written back untouched.
func (s *JSONStore) readRaw() map[string]json.RawMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warnf("%v: reading catalogue %s: %v", models.ErrStoreCorrupt, s.path, err)
		}
		return make(map[string]json.RawMessage)
	}

	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.Warnf("%v: catalogue %s is not a JSON object, treating as empty: %v", models.ErrStoreCorrupt, s.path, err)
		return make(map[string]json.RawMessage)
	}
	return raw
}

func (s *JSONStore) writeRaw(raw map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding catalogue: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalogue: %w", err)
	}
	return nil
}

func (s *JSONStore) Load() (map[string]*models.Record, error) {
	s.mu.Lock()
	raw := s.readRaw()
	s.mu.Unlock()

	out := make(map[string]*models.Record, len(raw))
	for key, data := range raw {
		rec, err := decodeRecord(key, data)
		if err != nil {
			s.log.Warnf("skipping entry: %v", err)
			continue
		}
		out[key] = rec
	}
	return out, nil
}

func (s *JSONStore) Get(key string) (*models.Record, error) {
	s.mu.Lock()
	raw := s.readRaw()
	s.mu.Unlock()

	data, ok := raw[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return decodeRecord(key, data)
}

func (s *JSONStore) Upsert(key string, rec *models.Record) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.readRaw()
	raw[key] = data
	if err := s.writeRaw(raw); err != nil {
		return err
	}
	s.log.Debugf("stored fingerprint %s (%d entries)", key, len(raw))
	return nil
}

func (s *JSONStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.readRaw()
	if _, ok := raw[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(raw, key)
	return s.writeRaw(raw)
}

// Iterate visits readable records in key order.
func (s *JSONStore) Iterate(fn func(key string, rec *models.Record) error) error {
	all, err := s.Load()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := fn(k, all[k]); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONStore) Count() (int, error) {
	all, err := s.Load()
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (s *JSONStore) Close() error {
	return nil
}
