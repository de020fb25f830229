// Package lake stores record content as flat files, one file per record
// identifier, named by the identifier itself.
package lake

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no blob exists for an id.
var ErrNotFound = errors.New("blob not found")

// Lake is a directory of blobs.
type Lake struct {
	dir string
}

// Open creates dir if needed and returns a Lake rooted at it.
func Open(dir string) (*Lake, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lake dir: %w", err)
	}
	return &Lake{dir: dir}, nil
}

// Dir returns the lake's directory.
func (l *Lake) Dir() string {
	return l.dir
}

// Path returns the file path of id's blob.
func (l *Lake) Path(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	return filepath.Join(l.dir, id), nil
}

// Write stores data as id's blob, replacing any previous content.
// The file is written to a temporary name and renamed into place.
func (l *Lake) Write(id string, data []byte) error {
	path, err := l.Path(id)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.dir, "."+id+".*")
	if err != nil {
		return fmt.Errorf("write blob %s: %w", id, err)
	}
	defer os.Remove(tmp.Name()) // No-op after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write blob %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write blob %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write blob %s: %w", id, err)
	}
	return nil
}

// Read returns id's blob. Returns ErrNotFound if there is none.
func (l *Lake) Read(id string) ([]byte, error) {
	path, err := l.Path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", id, err)
	}
	return data, nil
}

// Exists reports whether id has a blob.
func (l *Lake) Exists(id string) (bool, error) {
	path, err := l.Path(id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat blob %s: %w", id, err)
	}
	return true, nil
}

// validateID rejects ids that would escape the lake directory or collide
// with temporary files.
func validateID(id string) error {
	if id == "" {
		return errors.New("blob id is empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid blob id %q", id)
	}
	return nil
}
