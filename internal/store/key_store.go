package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"betterauth/internal/autherr"
	"betterauth/internal/crypto"
	"betterauth/internal/domain"
	"betterauth/internal/keys"
)

// keyFile is the plaintext sealed inside a role's key file.
type keyFile struct {
	Algorithm crypto.Algorithm `json:"algorithm"`
	Current   []byte           `json:"current,omitempty"`
	Next      []byte           `json:"next,omitempty"`
	Future    []byte           `json:"future,omitempty"`
}

// KeyFileStore persists the rotating keys of one role, sealed with a
// passphrase. Every state change is written before it becomes visible.
type KeyFileStore struct {
	*keys.Commitment

	path       string
	label      string
	passphrase string
	alg        crypto.Algorithm
	mu         sync.Mutex
}

// OpenKeyFileStore loads (or starts) the key file of role under dir.
func OpenKeyFileStore(
	dir string,
	role domain.Role,
	passphrase string,
	alg crypto.Algorithm,
	hasher domain.Hasher,
) (*KeyFileStore, error) {
	s := &KeyFileStore{
		path:       filepath.Join(dir, "keys."+role.String()+".enc"),
		label:      "keys." + role.String(),
		passphrase: passphrase,
		alg:        alg,
	}
	state, err := s.load()
	if err != nil {
		return nil, err
	}
	s.Commitment = keys.New(alg, hasher, keys.WithState(state), keys.WithPersist(s.save))
	return s, nil
}

func (s *KeyFileStore) load() (keys.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := loadFile(s.path)
	if err != nil {
		return keys.State{}, autherr.StorageUnavailable(err)
	}
	if b == nil {
		return keys.State{}, nil
	}
	pt, err := unseal(s.passphrase, s.label, b)
	if err != nil {
		return keys.State{}, autherr.StorageCorruption(err)
	}
	defer crypto.Wipe(pt)

	var kf keyFile
	if err := json.Unmarshal(pt, &kf); err != nil {
		return keys.State{}, autherr.StorageCorruption(err)
	}
	defer kf.wipe()
	if kf.Algorithm != s.alg {
		return keys.State{}, autherr.StorageCorruption(
			fmt.Errorf("key file holds %s keys, configured for %s", kf.Algorithm, s.alg))
	}

	var state keys.State
	for _, slot := range []struct {
		raw []byte
		dst *crypto.PrivateKey
	}{
		{kf.Current, &state.Current},
		{kf.Next, &state.Next},
		{kf.Future, &state.Future},
	} {
		if slot.raw == nil {
			continue
		}
		k, err := crypto.FromBytes(kf.Algorithm, slot.raw)
		if err != nil {
			return keys.State{}, autherr.StorageCorruption(err)
		}
		*slot.dst = k
	}
	return state, nil
}

func (s *KeyFileStore) save(state keys.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kf := keyFile{Algorithm: s.alg}
	if state.Current != nil {
		kf.Current = state.Current.Bytes()
	}
	if state.Next != nil {
		kf.Next = state.Next.Bytes()
	}
	if state.Future != nil {
		kf.Future = state.Future.Bytes()
	}
	defer kf.wipe()

	raw, err := json.Marshal(kf)
	if err != nil {
		return err
	}
	defer crypto.Wipe(raw)

	ct, err := seal(s.passphrase, s.label, raw, kdfCost())
	if err != nil {
		return err
	}
	return storeFile(s.path, ct)
}

func (kf *keyFile) wipe() {
	crypto.Wipe(kf.Current)
	crypto.Wipe(kf.Next)
	crypto.Wipe(kf.Future)
}

// Compile-time assertion that KeyFileStore implements domain.ClientRotatingKeyStore.
var _ domain.ClientRotatingKeyStore = (*KeyFileStore)(nil)
