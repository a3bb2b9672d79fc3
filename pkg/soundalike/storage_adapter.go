package soundalike

import (
	"fmt"

	"github.com/himanishpuri/SoundAlike/internal/storage"
)

// OpenStorage opens the backend named by b at path (or the backend's
// default location when path is empty).
func OpenStorage(b storage.Backend, path string, log Logger) (Storage, error) {
	st, err := storage.Open(storage.Options{Backend: b, Path: path, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", b, err)
	}
	return st, nil
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string, log Logger) (Storage, error) {
	return OpenStorage(storage.BackendSQLite, dbPath, log)
}

// NewJSONStorage opens a single-file JSON catalogue.
func NewJSONStorage(path string, log Logger) (Storage, error) {
	return OpenStorage(storage.BackendJSON, path, log)
}

// NewBadgerStorage opens a badger key-value directory.
func NewBadgerStorage(dir string, log Logger) (Storage, error) {
	return OpenStorage(storage.BackendBadger, dir, log)
}
