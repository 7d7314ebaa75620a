package keys

import "betterauth/internal/domain"

// Staged is a current/next pair generated by Stage and held outside its
// commitment until Commit.
type Staged struct {
	c            *Commitment
	state        State
	identity     string
	publicKey    string
	rotationHash string
}

func (s *Staged) Identity() string          { return s.identity }
func (s *Staged) PublicKey() string         { return s.publicKey }
func (s *Staged) RotationHash() string      { return s.rotationHash }
func (s *Staged) Signer() domain.SigningKey { return s.state.Current }

// Commit replaces the commitment's state, whatever it is, with the staged
// keys. A failing persist hook leaves the old state in place.
func (s *Staged) Commit() error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.commit(s.state)
}

var _ domain.StagedKeys = (*Staged)(nil)
