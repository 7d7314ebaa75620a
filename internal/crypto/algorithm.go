package crypto

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"betterauth/internal/domain"
)

// SignatureLength is the encoded length of every supported signature.
const SignatureLength = 88

var (
	ErrInvalidKey       = errors.New("crypto: invalid key")
	ErrInvalidSignature = errors.New("crypto: invalid signature")
	ErrUnknownAlgorithm = errors.New("crypto: unknown algorithm")
)

// Algorithm names a signing algorithm.
type Algorithm string

const (
	P256    Algorithm = "p256"
	Ed25519 Algorithm = "ed25519"
)

// ParseAlgorithm accepts "p256" (alias "secp256r1") and "ed25519".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "p256", "secp256r1":
		return P256, nil
	case "ed25519":
		return Ed25519, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

// PrivateKey is a signing key whose secret can be persisted.
type PrivateKey interface {
	domain.SigningKey
	Algorithm() Algorithm
	Bytes() []byte
}

// Generate returns a fresh key for alg.
func Generate(alg Algorithm) (PrivateKey, error) {
	switch alg {
	case P256:
		return GenerateP256()
	case Ed25519:
		return GenerateEd25519()
	}
	return nil, ErrUnknownAlgorithm
}

// FromBytes rebuilds a key of alg from the output of PrivateKey.Bytes.
func FromBytes(alg Algorithm, b []byte) (PrivateKey, error) {
	switch alg {
	case P256:
		return P256FromBytes(b)
	case Ed25519:
		return Ed25519FromSeed(b)
	}
	return nil, ErrUnknownAlgorithm
}

// Derive deterministically draws a key of alg from r.
func Derive(alg Algorithm, r io.Reader) (PrivateKey, error) {
	buf := make([]byte, 32)
	defer Wipe(buf)
	// P-256 scalars outside [1, n-1] are rejected and redrawn.
	for range 16 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		k, err := FromBytes(alg, buf)
		if errors.Is(err, ErrInvalidKey) {
			continue
		}
		return k, err
	}
	return nil, ErrInvalidKey
}

// Verifiers dispatches on the public key code.
type Verifiers struct{}

func (Verifiers) SignatureLength() int { return SignatureLength }

func (Verifiers) Verify(message []byte, signature, publicKey string) error {
	switch {
	case strings.HasPrefix(publicKey, codeP256Public):
		return P256Verifier{}.Verify(message, signature, publicKey)
	case strings.HasPrefix(publicKey, codeEd25519Public):
		return Ed25519Verifier{}.Verify(message, signature, publicKey)
	}
	return ErrInvalidKey
}

// PublicKey is a bare verification key, e.g. a pinned server key.
type PublicKey string

func (k PublicKey) Public() (string, error) { return string(k), nil }

func (k PublicKey) Verifier() domain.Verifier { return Verifiers{} }

var (
	_ domain.Verifier        = Verifiers{}
	_ domain.VerificationKey = PublicKey("")
)
