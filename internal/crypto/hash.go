package crypto

import (
	"lukechampine.com/blake3"

	"betterauth/internal/domain"
)

// Blake3 hashes with BLAKE3-256 and emits the "E" digest code.
type Blake3 struct{}

// Sum returns the encoded digest of message.
func (Blake3) Sum(message []byte) string {
	sum := blake3.Sum256(message)
	return qualify(codeBlake3Digest, 1, sum[:])
}

var _ domain.Hasher = Blake3{}
