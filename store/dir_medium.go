/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const dirMediumFileExt = ".item"

// DirMedium is a Medium which keeps every item in its own file inside a directory,
// so items survive process restarts. File names are derived from the xxhash of the key,
// the key itself is stored in the file next to the data.
type DirMedium struct {
	mu  sync.RWMutex
	dir string
}

var _ Medium = (*DirMedium)(nil)

type dirMediumItem struct {
	Key  string `json:"key"`
	Data []byte `json:"data"`
}

// NewDirMedium creates a DirMedium, the directory is created if it does not exist.
func NewDirMedium(dir string) (*DirMedium, error) {
	if dir == "" {
		return nil, errors.New("directory for persistent medium cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create medium directory: %w", err)
	}
	return &DirMedium{dir: dir}, nil
}

// Dir returns the directory of the medium.
func (m *DirMedium) Dir() string {
	return m.dir
}

// GetItem reads the item stored under the key.
func (m *DirMedium) GetItem(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, err := readDirMediumItem(m.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if item.Key != key { // xxhash collision, the file belongs to another key
		return nil, false, nil
	}
	return item.Data, true, nil
}

// SetItem writes the item to a temporary file and atomically moves it in place.
func (m *DirMedium) SetItem(key string, data []byte) error {
	encoded, err := json.Marshal(dirMediumItem{Key: key, Data: data})
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tmpFile, err := os.CreateTemp(m.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmpFile.Name()
	if _, err = tmpFile.Write(encoded); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temporary file: %w", err)
	}
	if err = tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err = os.Rename(tmpPath, m.path(key)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temporary file: %w", err)
	}
	return nil
}

// RemoveItem deletes the item file, removing a missing key is not an error.
func (m *DirMedium) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.path(key)
	item, err := readDirMediumItem(path)
	if err == nil && item.Key != key {
		return nil
	}
	if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Keys returns keys of all readable items in the directory.
// Files which cannot be decoded are skipped.
func (m *DirMedium) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dirEntries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read medium directory: %w", err)
	}
	keys := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), dirMediumFileExt) {
			continue
		}
		item, readErr := readDirMediumItem(filepath.Join(m.dir, de.Name()))
		if readErr != nil {
			continue
		}
		keys = append(keys, item.Key)
	}
	return keys, nil
}

func (m *DirMedium) path(key string) string {
	return filepath.Join(m.dir, strconv.FormatUint(xxhash.Sum64String(key), 16)+dirMediumFileExt)
}

func readDirMediumItem(path string) (dirMediumItem, error) {
	var item dirMediumItem
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the medium directory
	if err != nil {
		return item, err
	}
	if err = json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("%w: decode medium item %s: %v", ErrSerialization, filepath.Base(path), err)
	}
	return item, nil
}
