package devserver

import (
	"sync"

	"betterauth/internal/autherr"
)

// deviceKey is the authentication key registered for one device together
// with the hash its successor must match.
type deviceKey struct {
	PublicKey    string
	RotationHash string
	Revoked      bool
}

type account struct {
	recoveryHash string
	devices      map[string]*deviceKey
	deleted      bool
}

// Registry is the authentication-key and recovery-hash registry.
type Registry struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{accounts: make(map[string]*account)}
}

// Create registers identity with its first device.
func (r *Registry) Create(identity, device, publicKey, rotationHash, recoveryHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[identity]; ok {
		return autherr.AlreadyExists("identity " + autherr.Truncate(identity))
	}
	r.accounts[identity] = &account{
		recoveryHash: recoveryHash,
		devices: map[string]*deviceKey{
			device: {PublicKey: publicKey, RotationHash: rotationHash},
		},
	}
	return nil
}

// Device returns a copy of the key registered for device.
func (r *Registry) Device(identity, device string) (deviceKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, err := r.live(identity)
	if err != nil {
		return deviceKey{}, err
	}
	d, ok := a.devices[device]
	if !ok {
		return deviceKey{}, autherr.NotFound("device " + autherr.Truncate(device))
	}
	if d.Revoked {
		return deviceKey{}, autherr.DeviceRevoked(device)
	}
	return *d, nil
}

// Rotate replaces the key of device after a verified rotation. It fails if
// the device key changed since expected was read.
func (r *Registry) Rotate(identity, device string, expected deviceKey, publicKey, rotationHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.device(identity, device)
	if err != nil {
		return err
	}
	if d.RotationHash != expected.RotationHash {
		return autherr.Rotation("device key changed concurrently")
	}
	d.PublicKey = publicKey
	d.RotationHash = rotationHash
	return nil
}

// Link adds a new device to identity. Linking the same key twice is a no-op.
func (r *Registry) Link(identity, device, publicKey, rotationHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.live(identity)
	if err != nil {
		return err
	}
	if d, ok := a.devices[device]; ok {
		if !d.Revoked && d.PublicKey == publicKey && d.RotationHash == rotationHash {
			return nil
		}
		return autherr.AlreadyExists("device " + autherr.Truncate(device))
	}
	a.devices[device] = &deviceKey{PublicKey: publicKey, RotationHash: rotationHash}
	return nil
}

// Revoke marks device as unlinked. Revoking twice is a no-op.
func (r *Registry) Revoke(identity, device string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.live(identity)
	if err != nil {
		return err
	}
	d, ok := a.devices[device]
	if !ok {
		return autherr.NotFound("device " + autherr.Truncate(device))
	}
	d.Revoked = true
	return nil
}

// Delete marks identity as deleted.
func (r *Registry) Delete(identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.live(identity)
	if err != nil {
		return err
	}
	a.deleted = true
	return nil
}

// RecoveryHash returns the recovery hash of identity.
func (r *Registry) RecoveryHash(identity string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, err := r.live(identity)
	if err != nil {
		return "", err
	}
	return a.recoveryHash, nil
}

// SetRecoveryHash replaces the recovery hash if it still equals expected.
func (r *Registry) SetRecoveryHash(identity, expected, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.live(identity)
	if err != nil {
		return err
	}
	if expected != "" && a.recoveryHash != expected {
		return autherr.Recovery("recovery hash changed concurrently")
	}
	a.recoveryHash = next
	return nil
}

// Exists reports whether identity is registered and not deleted.
func (r *Registry) Exists(identity string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, err := r.live(identity)
	return err
}

func (r *Registry) live(identity string) (*account, error) {
	a, ok := r.accounts[identity]
	if !ok {
		return nil, autherr.NotFound("identity " + autherr.Truncate(identity))
	}
	if a.deleted {
		return nil, autherr.IdentityDeleted(identity)
	}
	return a, nil
}

func (r *Registry) device(identity, device string) (*deviceKey, error) {
	a, err := r.live(identity)
	if err != nil {
		return nil, err
	}
	d, ok := a.devices[device]
	if !ok {
		return nil, autherr.NotFound("device " + autherr.Truncate(device))
	}
	if d.Revoked {
		return nil, autherr.DeviceRevoked(device)
	}
	return d, nil
}
