// Package filestore keeps each directory collection in <dir>/<collection>.json.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m3rciful/relaybot/internal/directory"
)

// Store is a directory.Store backed by one JSON file per collection.
type Store struct {
	dir string
}

// New ensures dir exists and returns a Store rooted at it.
func New(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("filestore: dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the file backing c.
func (s *Store) Path(c directory.Collection) string {
	return filepath.Join(s.dir, string(c)+".json")
}

func (s *Store) Read(ctx context.Context, c directory.Collection) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	doc, err := os.ReadFile(s.Path(c))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return doc, true, nil
}

func (s *Store) Write(ctx context.Context, c directory.Collection, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeAtomic(s.Path(c), doc, 0o600)
}

// writeAtomic replaces path through a synced temp file in the same directory.
func writeAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp for %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp for %s: %w", path, err)
	}

	// Directory sync is best effort.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
