package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"betterauth/internal/domain"
)

// Ed25519Key signs with Ed25519.
type Ed25519Key struct {
	priv   ed25519.PrivateKey
	public string
}

// GenerateEd25519 returns a new Ed25519 signing key.
func GenerateEd25519() (*Ed25519Key, error) {
	_, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return newEd25519(sk), nil
}

// Ed25519FromSeed rebuilds a key from its 32-byte seed.
func Ed25519FromSeed(seed []byte) (*Ed25519Key, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidKey
	}
	return newEd25519(ed25519.NewKeyFromSeed(seed)), nil
}

func newEd25519(sk ed25519.PrivateKey) *Ed25519Key {
	pub := sk.Public().(ed25519.PublicKey)
	return &Ed25519Key{priv: sk, public: qualify(codeEd25519Public, 1, pub)}
}

func (k *Ed25519Key) Public() (string, error) { return k.public, nil }

func (k *Ed25519Key) Verifier() domain.Verifier { return Ed25519Verifier{} }

func (k *Ed25519Key) Algorithm() Algorithm { return Ed25519 }

// Bytes returns a copy of the seed.
func (k *Ed25519Key) Bytes() []byte { return append([]byte(nil), k.priv.Seed()...) }

// Sign returns the "0B"-coded signature of message.
func (k *Ed25519Key) Sign(message []byte) (string, error) {
	return qualify(codeEd25519Signature, 2, ed25519.Sign(k.priv, message)), nil
}

// Ed25519Verifier checks "0B" signatures against "D" public keys.
type Ed25519Verifier struct{}

func (Ed25519Verifier) SignatureLength() int { return SignatureLength }

func (Ed25519Verifier) Verify(message []byte, signature, publicKey string) error {
	pub, err := unqualify(publicKey, codeEd25519Public, 1, ed25519.PublicKeySize)
	if err != nil {
		return ErrInvalidKey
	}
	sig, err := unqualify(signature, codeEd25519Signature, 2, ed25519.SignatureSize)
	if err != nil {
		return ErrInvalidSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), message, sig) {
		return ErrInvalidSignature
	}
	return nil
}

var (
	_ domain.SigningKey = (*Ed25519Key)(nil)
	_ domain.Verifier   = Ed25519Verifier{}
)
