package crypto

import (
	"crypto/rand"
	"io"

	"betterauth/internal/domain"
)

// Noncer draws 128-bit nonces from Reader (crypto/rand when nil).
type Noncer struct {
	Reader io.Reader
}

// Generate128 returns a fresh "0A"-coded nonce.
func (n Noncer) Generate128() (string, error) {
	r := n.Reader
	if r == nil {
		r = rand.Reader
	}
	var entropy [16]byte
	if _, err := io.ReadFull(r, entropy[:]); err != nil {
		return "", err
	}
	return qualify(codeNonce128, 2, entropy[:]), nil
}

var _ domain.Noncer = Noncer{}
