package cache

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileExt = ".json"

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the entries.
func (f *FileStore) Dir() string {
	return f.dir
}

// Path returns the file backing key.
func (f *FileStore) Path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileExt)
}

func (f *FileStore) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set writes the value to a temp file and renames it over the entry, so
// readers never observe a partial write.
func (f *FileStore) Set(key string, value []byte) error {
	target := f.Path(key)

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (f *FileStore) Delete(key string) error {
	err := os.Remove(f.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
