package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileExtension = ".json"

var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrCacheExpired    = errors.New("cache entry expired")
	ErrInvalidCacheKey = errors.New("cache key cannot be empty")
	ErrCacheDisabled   = errors.New("cache is disabled")
)

// FileStore stores entries as JSON files in one directory. Safe for
// concurrent use within a process.
type FileStore struct {
	directory string
	enabled   bool
	ttl       time.Duration

	mu sync.RWMutex
}

// NewFileStore creates the directory if needed. A disabled store accepts
// no directory and fails every operation with ErrCacheDisabled.
func NewFileStore(directory string, enabled bool, ttl time.Duration) (*FileStore, error) {
	if !enabled {
		return &FileStore{}, nil
	}
	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if err := os.MkdirAll(directory, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{directory: directory, enabled: true, ttl: ttl}, nil
}

// Enabled reports whether the store caches anything.
func (s *FileStore) Enabled() bool { return s.enabled }

// Directory returns the cache directory.
func (s *FileStore) Directory() string { return s.directory }

// TTL returns the lifetime given to new entries.
func (s *FileStore) TTL() time.Duration { return s.ttl }

// Get returns the entry for key. Expired entries are removed and reported
// as ErrCacheExpired.
func (s *FileStore) Get(key string) (*Entry, error) {
	if err := s.check(key); err != nil {
		return nil, err
	}

	path := s.path(key)
	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry Entry
	if err = json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	if entry.Expired() {
		s.mu.Lock()
		_ = os.Remove(path)
		s.mu.Unlock()
		return nil, ErrCacheExpired
	}
	return &entry, nil
}

// Set writes data under key, replacing any existing entry.
func (s *FileStore) Set(key string, data json.RawMessage) error {
	if err := s.check(key); err != nil {
		return err
	}

	encoded, err := json.Marshal(NewEntry(key, data, s.ttl))
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, encoded, 0600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// Delete removes key. Missing entries are not an error.
func (s *FileStore) Delete(key string) error {
	if err := s.check(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (s *FileStore) Clear() error {
	return s.sweep(func(string) bool { return true })
}

// CleanupExpired removes expired and unreadable entries.
func (s *FileStore) CleanupExpired() error {
	return s.sweep(func(path string) bool {
		data, err := os.ReadFile(path)
		if err != nil {
			return true
		}
		var entry Entry
		if err = json.Unmarshal(data, &entry); err != nil {
			return true
		}
		return entry.Expired()
	})
}

// Count returns the number of entries on disk.
func (s *FileStore) Count() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.files()
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

func (s *FileStore) sweep(remove func(path string) bool) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.files()
	if err != nil {
		return err
	}
	for _, path := range files {
		if !remove(path) {
			continue
		}
		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove cache file %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func (s *FileStore) files() ([]string, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == fileExtension {
			out = append(out, filepath.Join(s.directory, e.Name()))
		}
	}
	return out, nil
}

func (s *FileStore) check(key string) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}
	return nil
}

// path maps a key to a file name safe on every platform.
func (s *FileStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(key)
	return filepath.Join(s.directory, safe+fileExtension)
}

// GenerateKey derives a deterministic key from namespace and the JSON
// encoding of params. Map keys encode sorted, so equal params give equal keys.
func GenerateKey(namespace string, params any) (string, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encoding cache key params: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return namespace + "-" + hex.EncodeToString(sum[:16]), nil
}

// GetJSON decodes the cached value for key into a T.
func GetJSON[T any](s *FileStore, key string) (T, *Entry, error) {
	var out T
	entry, err := s.Get(key)
	if err != nil {
		return out, nil, err
	}
	if err = json.Unmarshal(entry.Data, &out); err != nil {
		return out, nil, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return out, entry, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(s *FileStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache value: %w", err)
	}
	return s.Set(key, data)
}
