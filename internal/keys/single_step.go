package keys

import "betterauth/internal/domain"

// SingleStep exposes a one-call rotation over a two-phase store, for
// deployments whose rotation round trip needs no retry safety.
type SingleStep struct {
	Store domain.ClientRotatingKeyStore
}

// Rotate advances the store and returns the new current public key with the
// hash committing to its successor.
func (s SingleStep) Rotate() (publicKey, rotationHash string, err error) {
	next, hash, err := s.Store.Next()
	if err != nil {
		return "", "", err
	}
	if err := s.Store.Rotate(); err != nil {
		return "", "", err
	}
	publicKey, err = next.Public()
	if err != nil {
		return "", "", err
	}
	return publicKey, hash, nil
}
