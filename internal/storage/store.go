// Package storage persists fingerprint records behind a single Store
// interface with interchangeable backends.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/himanishpuri/SoundAlike/pkg/logger"
	"github.com/himanishpuri/SoundAlike/pkg/models"
)

var ErrNotFound = errors.New("fingerprint not found")

// Store maps keys to fingerprint records. Implementations must be safe for
// concurrent use and must never drop unrelated keys on Upsert.
type Store interface {
	// Load returns every readable record. Corrupt entries are skipped,
	// a corrupt or missing store reads as empty.
	Load() (map[string]*models.Record, error)
	Get(key string) (*models.Record, error)
	Upsert(key string, rec *models.Record) error
	Delete(key string) error
	Iterate(fn func(key string, rec *models.Record) error) error
	Count() (int, error)
	Close() error
}

type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
	BackendBadger Backend = "badger"
)

func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case "":
		return BackendJSON, nil
	case BackendJSON, BackendSQLite, BackendBadger:
		return b, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q (want json, sqlite or badger)", name)
	}
}

// DefaultPath is where each backend keeps its data when no path is given.
func (b Backend) DefaultPath() string {
	switch b {
	case BackendSQLite:
		return "soundalike.sqlite3"
	case BackendBadger:
		return "soundalike.badger"
	default:
		return "database.json"
	}
}

type Options struct {
	Backend Backend
	Path    string
	Logger  Logger
}

// Open creates the store selected by opts.Backend.
func Open(opts Options) (Store, error) {
	if opts.Backend == "" {
		opts.Backend = BackendJSON
	}
	if opts.Path == "" {
		opts.Path = opts.Backend.DefaultPath()
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger().WithPrefix("storage")
	}

	switch opts.Backend {
	case BackendJSON:
		return NewJSONStore(opts.Path, opts.Logger), nil
	case BackendSQLite:
		return NewSQLiteStore(opts.Path, opts.Logger)
	case BackendBadger:
		return NewBadgerStore(opts.Path, opts.Logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", models.ErrInvalidInput)
	}
	return nil
}

func validateRecord(rec *models.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", models.ErrInvalidInput)
	}
	return rec.Validate()
}

// decodeRecord parses one stored record, tagging failures as store
// corruption. A bare feature bundle (the legacy catalogue layout, which
// kept no hashes) is accepted too.
func decodeRecord(key string, data []byte) (*models.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: record %q: %w", models.ErrStoreCorrupt, key, err)
	}

	var rec models.Record
	if _, ok := fields["features"]; ok {
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("%w: record %q: %w", models.ErrStoreCorrupt, key, err)
		}
	} else if err := json.Unmarshal(data, &rec.Features); err != nil {
		return nil, fmt.Errorf("%w: record %q: %w", models.ErrStoreCorrupt, key, err)
	}

	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: record %q: %w", models.ErrStoreCorrupt, key, err)
	}
	return &rec, nil
}

// encodeRecord serialises rec without its in-memory name; the key already
// identifies it.
func encodeRecord(rec *models.Record) ([]byte, error) {
	stored := *rec
	stored.Name = ""
	return json.Marshal(&stored)
}

func encodeFeatures(rec *models.Record) (string, error) {
	data, err := json.Marshal(&rec.Features)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
