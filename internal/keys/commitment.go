package keys

import (
	"sync"

	"betterauth/internal/autherr"
	"betterauth/internal/crypto"
	"betterauth/internal/domain"
)

// State is the key material of one role. Next is always set once Current is;
// Future is set only between Next() and Rotate().
type State struct {
	Current crypto.PrivateKey
	Next    crypto.PrivateKey
	Future  crypto.PrivateKey
}

// Initialized reports whether the state holds a current key.
func (s State) Initialized() bool { return s.Current != nil && s.Next != nil }

// Commitment is the two-phase rotating key store of one role. All methods
// are safe for concurrent use.
type Commitment struct {
	mu       sync.Mutex
	hasher   domain.Hasher
	generate func() (crypto.PrivateKey, error)
	persist  func(State) error
	state    State
}

// Option configures a Commitment.
type Option func(*Commitment)

// WithState seeds the commitment with previously persisted keys.
func WithState(s State) Option { return func(c *Commitment) { c.state = s } }

// WithPersist registers a hook called with every new state before it
// becomes visible. A failing hook leaves the old state in place.
func WithPersist(fn func(State) error) Option { return func(c *Commitment) { c.persist = fn } }

// WithGenerator overrides key generation.
func WithGenerator(fn func() (crypto.PrivateKey, error)) Option {
	return func(c *Commitment) { c.generate = fn }
}

// New returns an uninitialized commitment generating keys of alg.
func New(alg crypto.Algorithm, hasher domain.Hasher, opts ...Option) *Commitment {
	c := &Commitment{
		hasher:   hasher,
		generate: func() (crypto.PrivateKey, error) { return crypto.Generate(alg) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize generates current and next on an empty commitment and derives
// identity = hash(publicKey || rotationHash || extra). Replacing existing
// keys goes through Stage.
func (c *Commitment) Initialize(extra string) (identity, publicKey, rotationHash string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Initialized() {
		return "", "", "", autherr.InvalidState("keys are already initialized")
	}
	staged, err := c.stage(extra)
	if err != nil {
		return "", "", "", err
	}
	if err := c.commit(staged.state); err != nil {
		return "", "", "", err
	}
	return staged.identity, staged.publicKey, staged.rotationHash, nil
}

// Stage generates a replacement current and next. Signer, Next and the
// persisted state are untouched until the returned keys are committed.
func (c *Commitment) Stage(extra string) (domain.StagedKeys, error) {
	staged, err := c.stage(extra)
	if err != nil {
		return nil, err
	}
	return staged, nil
}

func (c *Commitment) stage(extra string) (*Staged, error) {
	current, err := c.generate()
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidState, err)
	}
	next, err := c.generate()
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidState, err)
	}
	publicKey, err := current.Public()
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidState, err)
	}
	rotationHash, err := c.hashPublic(next)
	if err != nil {
		return nil, err
	}
	return &Staged{
		c:            c,
		state:        State{Current: current, Next: next},
		identity:     c.hasher.Sum([]byte(publicKey + rotationHash + extra)),
		publicKey:    publicKey,
		rotationHash: rotationHash,
	}, nil
}

// Next reveals the successor key and the hash of the key after it. The
// future key is generated once; later calls return the same pair until
// Rotate, so a lost reply can be retried with the identical commitment.
func (c *Commitment) Next() (domain.SigningKey, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Initialized() {
		return nil, "", autherr.InvalidState("keys are not initialized")
	}
	if c.state.Future == nil {
		future, err := c.generate()
		if err != nil {
			return nil, "", autherr.Wrap(autherr.KindRotation, err)
		}
		s := c.state
		s.Future = future
		if err := c.commit(s); err != nil {
			return nil, "", err
		}
	}
	hash, err := c.hashPublic(c.state.Future)
	if err != nil {
		return nil, "", err
	}
	return c.state.Next, hash, nil
}

// Rotate commits current := next, next := future.
func (c *Commitment) Rotate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Initialized() {
		return autherr.InvalidState("keys are not initialized")
	}
	if c.state.Future == nil {
		return autherr.Rotation("next() must be called before rotate()")
	}
	return c.commit(State{Current: c.state.Next, Next: c.state.Future})
}

// Signer returns the current key.
func (c *Commitment) Signer() (domain.SigningKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Initialized() {
		return nil, autherr.InvalidState("keys are not initialized")
	}
	return c.state.Current, nil
}

// RotationHash returns the hash of next.public, the value last committed to
// the server for this role.
func (c *Commitment) RotationHash() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Initialized() {
		return "", autherr.InvalidState("keys are not initialized")
	}
	return c.hashPublic(c.state.Next)
}

// Snapshot returns a copy of the current state.
func (c *Commitment) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Commitment) hashPublic(k crypto.PrivateKey) (string, error) {
	pub, err := k.Public()
	if err != nil {
		return "", autherr.Wrap(autherr.KindInvalidState, err)
	}
	return c.hasher.Sum([]byte(pub)), nil
}

// commit persists s, then publishes it. Callers hold mu.
func (c *Commitment) commit(s State) error {
	if c.persist != nil {
		if err := c.persist(s); err != nil {
			return autherr.StorageUnavailable(err)
		}
	}
	c.state = s
	return nil
}

var _ domain.ClientRotatingKeyStore = (*Commitment)(nil)
