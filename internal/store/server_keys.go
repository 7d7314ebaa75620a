package store

import (
	"context"
	"path/filepath"
	"sync"

	"betterauth/internal/autherr"
	"betterauth/internal/crypto"
	"betterauth/internal/domain"
)

const serverKeysFilename = "server_keys.json"

// ServerKeyFileStore pins server response keys by server identity.
type ServerKeyFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewServerKeyFileStore returns a ServerKeyFileStore rooted at dir.
func NewServerKeyFileStore(dir string) *ServerKeyFileStore {
	return &ServerKeyFileStore{dir: dir}
}

// Pin records publicKey as the response key of identity.
func (s *ServerKeyFileStore) Pin(identity, publicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, serverKeysFilename)
	pinned := map[string]string{}
	if err := loadJSON(path, &pinned); err != nil {
		return autherr.StorageCorruption(err)
	}
	pinned[identity] = publicKey
	if err := storeJSON(path, pinned); err != nil {
		return autherr.StorageUnavailable(err)
	}
	return nil
}

// Get resolves identity to its pinned key.
func (s *ServerKeyFileStore) Get(_ context.Context, identity string) (domain.VerificationKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pinned := map[string]string{}
	if err := loadJSON(filepath.Join(s.dir, serverKeysFilename), &pinned); err != nil {
		return nil, autherr.StorageCorruption(err)
	}
	pub, ok := pinned[identity]
	if !ok {
		return nil, autherr.NotFound("server key " + autherr.Truncate(identity))
	}
	return crypto.PublicKey(pub), nil
}

// Compile-time assertion that ServerKeyFileStore implements domain.VerificationKeyStore.
var _ domain.VerificationKeyStore = (*ServerKeyFileStore)(nil)
