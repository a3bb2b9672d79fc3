package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OneOfOne/xxhash"
)

// KeyFunc derives the store key for an audio file.
type KeyFunc func(path string) (string, error)

type KeyMode string

const (
	KeyBasename KeyMode = "basename"
	KeyPath     KeyMode = "path"
	KeyContent  KeyMode = "content"
)

func ParseKeyMode(name string) (KeyMode, error) {
	switch m := KeyMode(strings.ToLower(strings.TrimSpace(name))); m {
	case "":
		return KeyBasename, nil
	case KeyBasename, KeyPath, KeyContent:
		return m, nil
	default:
		return "", fmt.Errorf("unknown key mode %q (want basename, path or content)", name)
	}
}

func (m KeyMode) Func() KeyFunc {
	switch m {
	case KeyPath:
		return PathKey
	case KeyContent:
		return ContentKey
	default:
		return BasenameKey
	}
}

// BasenameKey keys by file name alone. Two files with the same name in
// different directories overwrite each other.
func BasenameKey(path string) (string, error) {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name in %q", path)
	}
	return base, nil
}

func PathKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// ContentKey prefixes the file name with an xxhash64 of its bytes, so
// same-named files in different directories get distinct keys.
func ContentKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New64()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return fmt.Sprintf("%016x-%s", h.Sum64(), filepath.Base(path)), nil
}
