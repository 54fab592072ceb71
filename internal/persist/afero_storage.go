package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/nfrund/bosstracker/internal/domain"
	"github.com/spf13/afero"
)

// AferoStorage keeps one JSON document per key under a directory of an
// afero filesystem.
type AferoStorage struct {
	fs  afero.Fs
	dir string
}

// NewAferoStorage creates a storage rooted at dir on fsys.
func NewAferoStorage(fsys afero.Fs, dir string) *AferoStorage {
	return &AferoStorage{fs: fsys, dir: dir}
}

// NewFileStorage stores documents on the OS filesystem under dir.
func NewFileStorage(dir string) *AferoStorage {
	return NewAferoStorage(afero.NewOsFs(), dir)
}

// NewMemoryStorage returns a storage that lives only as long as the process.
func NewMemoryStorage() *AferoStorage {
	return NewAferoStorage(afero.NewMemMapFs(), "")
}

func (s *AferoStorage) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Load reads the document stored under key.
func (s *AferoStorage) Load(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return data, nil
}

// Save replaces the document under key. The document is written to a
// temporary file first and renamed into place.
func (s *AferoStorage) Save(ctx context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Delete removes the document under key. Deleting a missing key is not an
// error.
func (s *AferoStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
