package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
)

// Well-known value file names under the client home.
const (
	IdentityFilename = "identity"
	DeviceFilename   = "device"
	TokenFilename    = "access_token"
)

// ValueFileStore persists one string value in a file.
type ValueFileStore struct {
	dir  string
	name string
	mu   sync.Mutex
}

// NewValueFileStore returns a ValueFileStore for dir/name.
func NewValueFileStore(dir, name string) *ValueFileStore {
	return &ValueFileStore{dir: dir, name: name}
}

// Store atomically replaces the value.
func (s *ValueFileStore) Store(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storeFile(filepath.Join(s.dir, s.name), []byte(value+"\n")); err != nil {
		return autherr.StorageUnavailable(err)
	}
	return nil
}

// Get returns the stored value or a NotFound error.
func (s *ValueFileStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := loadFile(filepath.Join(s.dir, s.name))
	if err != nil {
		return "", autherr.StorageUnavailable(err)
	}
	value := strings.TrimSpace(string(b))
	if value == "" {
		return "", autherr.NotFound(s.name)
	}
	return value, nil
}

// Clear removes the value.
func (s *ValueFileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, s.name))
	if err != nil && !os.IsNotExist(err) {
		return autherr.StorageUnavailable(err)
	}
	return nil
}

// Compile-time assertion that ValueFileStore implements domain.ClientValueStore.
var _ domain.ClientValueStore = (*ValueFileStore)(nil)
