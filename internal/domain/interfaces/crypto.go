package interfaces

import "time"

// Hasher produces a self-describing digest string.
type Hasher interface {
	Sum(message []byte) string
}

// Noncer produces single-use 128-bit nonces.
type Noncer interface {
	Generate128() (string, error)
}

// Verifier checks signatures for one family of keys.
type Verifier interface {
	// SignatureLength is the encoded signature length in characters.
	SignatureLength() int
	Verify(message []byte, signature string, publicKey string) error
}

// VerificationKey is a public key and the verifier able to check it.
type VerificationKey interface {
	Public() (string, error)
	Verifier() Verifier
}

// SigningKey is a key handle able to sign.
type SigningKey interface {
	VerificationKey
	Sign(message []byte) (string, error)
}

// Timestamper owns the clock and the wire format of timestamps.
type Timestamper interface {
	Now() time.Time
	Format(t time.Time) string
	Parse(s string) (time.Time, error)
}

// TokenEncoder converts canonical token payloads to and from their wire form.
type TokenEncoder interface {
	Encode(payload []byte) (string, error)
	Decode(encoded string) ([]byte, error)
}
