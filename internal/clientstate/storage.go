// Package clientstate keeps small JSON snapshots under string keys, the
// way the web client keeps its stores in local storage.
package clientstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

const (
	CartKey     = "cart-storage"
	WishlistKey = "wishlist-storage"
	LanguageKey = "language-storage"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Storage interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, data []byte) error
	Remove(key string) error
}

type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (m *MemoryStorage) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.data[key] = stored
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// FileStorage writes one <key>.json file per key inside Dir.
type FileStorage struct {
	Dir string
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStorage{Dir: dir}, nil
}

func (f *FileStorage) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.Dir, key+".json"), nil
}

func (f *FileStorage) Load(key string) ([]byte, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Save replaces the file through a rename so readers never see a partial write.
func (f *FileStorage) Save(key string, data []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.Dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (f *FileStorage) Remove(key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

// SaveSnapshot stores state as {"state": ..., "version": n}.
func SaveSnapshot[T any](s Storage, key string, version int, state T) error {
	data, err := json.Marshal(envelope[T]{State: state, Version: version})
	if err != nil {
		return err
	}
	return s.Save(key, data)
}

// LoadSnapshot fills state from a stored snapshot. It reports false when the
// key is absent.
func LoadSnapshot[T any](s Storage, key string, state *T) (bool, error) {
	data, ok, err := s.Load(key)
	if err != nil || !ok {
		return false, err
	}
	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	*state = env.State
	return true, nil
}
