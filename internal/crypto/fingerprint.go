package crypto

import (
	"github.com/mr-tron/base58"
	"lukechampine.com/blake3"
)

// Fingerprint returns a short base58 fingerprint of an encoded public key.
//
// It hashes with BLAKE3 and truncates to 10 bytes.
func Fingerprint(publicKey string) string {
	sum := blake3.Sum256([]byte(publicKey))
	return base58.Encode(sum[:10])
}
