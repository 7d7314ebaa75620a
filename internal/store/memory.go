package store

import (
	"context"
	"sync"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
)

// MemoryValueStore keeps one value in memory.
type MemoryValueStore struct {
	mu    sync.RWMutex
	name  string
	value string
}

// NewMemoryValueStore returns an empty store; name labels NotFound errors.
func NewMemoryValueStore(name string) *MemoryValueStore {
	return &MemoryValueStore{name: name}
}

func (s *MemoryValueStore) Store(value string) error {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryValueStore) Get() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value == "" {
		return "", autherr.NotFound(s.name)
	}
	return s.value, nil
}

// Clear forgets the value.
func (s *MemoryValueStore) Clear() error {
	s.mu.Lock()
	s.value = ""
	s.mu.Unlock()
	return nil
}

// MemoryServerKeys is an in-memory VerificationKeyStore.
type MemoryServerKeys struct {
	mu   sync.RWMutex
	keys map[string]domain.VerificationKey
}

func NewMemoryServerKeys() *MemoryServerKeys {
	return &MemoryServerKeys{keys: make(map[string]domain.VerificationKey)}
}

// Add trusts key for identity.
func (s *MemoryServerKeys) Add(identity string, key domain.VerificationKey) {
	s.mu.Lock()
	s.keys[identity] = key
	s.mu.Unlock()
}

func (s *MemoryServerKeys) Get(_ context.Context, identity string) (domain.VerificationKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[identity]
	if !ok {
		return nil, autherr.NotFound("server key " + autherr.Truncate(identity))
	}
	return k, nil
}

var (
	_ domain.ClientValueStore     = (*MemoryValueStore)(nil)
	_ domain.VerificationKeyStore = (*MemoryServerKeys)(nil)
)
