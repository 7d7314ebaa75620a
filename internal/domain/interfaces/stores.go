package interfaces

import "context"

// ClientValueStore holds one string value (identity, device or token).
// Get returns an autherr NotFound error when nothing was stored.
type ClientValueStore interface {
	Store(value string) error
	Get() (string, error)
}

// ClientRotatingKeyStore is the two-phase rotating key commitment of one role.
type ClientRotatingKeyStore interface {
	// Initialize generates current and next. It fails with InvalidState
	// when the store already holds keys.
	Initialize(extra string) (identity, publicKey, rotationHash string, err error)
	// Stage generates a replacement current and next without touching the
	// stored state; they take effect only on StagedKeys.Commit.
	Stage(extra string) (StagedKeys, error)
	// Next reveals the successor signer and the hash of the key after it.
	// Repeated calls return the same pair until Rotate.
	Next() (SigningKey, string, error)
	// Rotate commits the revealed successor.
	Rotate() error
	// Signer returns the current key.
	Signer() (SigningKey, error)
}

// StagedKeys is a replacement key state returned by Stage.
type StagedKeys interface {
	// Identity is hash(publicKey || rotationHash || extra).
	Identity() string
	PublicKey() string
	RotationHash() string
	Signer() SigningKey
	// Commit persists the staged keys and makes them the store's state.
	Commit() error
}

// VerificationKeyStore resolves a server identity to its response key.
type VerificationKeyStore interface {
	Get(ctx context.Context, identity string) (VerificationKey, error)
}

// ClearableValueStore is a ClientValueStore that can forget its value.
type ClearableValueStore interface {
	ClientValueStore
	Clear() error
}
