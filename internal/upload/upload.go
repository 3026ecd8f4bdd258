// Package upload manages the content area for item images: a flat
// directory of files keyed by their cleaned original filename.
package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrBadFilename is returned for filenames that reduce to nothing usable.
var ErrBadFilename = errors.New("invalid filename")

// Store writes uploaded files into a single directory. Writes to the same
// key overwrite each other; there is no deduplication or renaming.
type Store struct {
	dir string
}

// NewStore creates a content store rooted at dir. The directory is created
// lazily on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// CleanName reduces a client-provided filename to its base component so a
// stored key can never escape the content area. Empty names and the
// dot directories are rejected.
func CleanName(filename string) (string, error) {
	name := filepath.Base(filepath.Clean(filename))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", ErrBadFilename
	}
	return name, nil
}

// Save writes data under the cleaned filename and returns the stored key.
// The content directory is created if absent; saving is idempotent and
// last write wins.
func (s *Store) Save(filename string, data []byte) (string, error) {
	name, err := CleanName(filename)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating content directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return name, nil
}

// Path returns the on-disk path for a stored key.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}
