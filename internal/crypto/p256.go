package crypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"betterauth/internal/domain"
)

const p256ScalarSize = 32

// P256Key signs with ECDSA over secp256r1 and SHA-256, emitting raw r||s.
type P256Key struct {
	priv   *ecdsa.PrivateKey
	public string
}

// GenerateP256 returns a new random P-256 signing key.
func GenerateP256() (*P256Key, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return newP256(priv), nil
}

// P256FromBytes rebuilds a key from its 32-byte big-endian scalar.
func P256FromBytes(d []byte) (*P256Key, error) {
	if len(d) != p256ScalarSize {
		return nil, ErrInvalidKey
	}
	ek, err := ecdh.P256().NewPrivateKey(d)
	if err != nil {
		return nil, ErrInvalidKey
	}
	point := ek.PublicKey().Bytes() // 0x04 || X || Y
	priv := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(point[1 : 1+p256ScalarSize]),
			Y:     new(big.Int).SetBytes(point[1+p256ScalarSize:]),
		},
		D: new(big.Int).SetBytes(d),
	}
	return newP256(priv), nil
}

func newP256(priv *ecdsa.PrivateKey) *P256Key {
	compressed := elliptic.MarshalCompressed(elliptic.P256(), priv.X, priv.Y)
	return &P256Key{priv: priv, public: qualify(codeP256Public, 3, compressed)}
}

func (k *P256Key) Public() (string, error) { return k.public, nil }

func (k *P256Key) Verifier() domain.Verifier { return P256Verifier{} }

func (k *P256Key) Algorithm() Algorithm { return P256 }

// Bytes returns a copy of the private scalar.
func (k *P256Key) Bytes() []byte {
	return k.priv.D.FillBytes(make([]byte, p256ScalarSize))
}

// Sign returns the "0I"-coded signature of message.
func (k *P256Key) Sign(message []byte) (string, error) {
	digest := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, k.priv, digest[:])
	if err != nil {
		return "", err
	}
	sig := make([]byte, 2*p256ScalarSize)
	r.FillBytes(sig[:p256ScalarSize])
	s.FillBytes(sig[p256ScalarSize:])
	return qualify(codeP256Signature, 2, sig), nil
}

// P256Verifier checks "0I" signatures against "1AAI" public keys.
type P256Verifier struct{}

func (P256Verifier) SignatureLength() int { return SignatureLength }

func (P256Verifier) Verify(message []byte, signature, publicKey string) error {
	raw, err := unqualify(publicKey, codeP256Public, 3, p256ScalarSize+1)
	if err != nil {
		return ErrInvalidKey
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), raw)
	if x == nil {
		return ErrInvalidKey
	}
	sig, err := unqualify(signature, codeP256Signature, 2, 2*p256ScalarSize)
	if err != nil {
		return ErrInvalidSignature
	}
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	digest := sha256.Sum256(message)
	r := new(big.Int).SetBytes(sig[:p256ScalarSize])
	s := new(big.Int).SetBytes(sig[p256ScalarSize:])
	if !ecdsa.Verify(pub, digest[:], r, s) {
		return ErrInvalidSignature
	}
	return nil
}

var (
	_ domain.SigningKey = (*P256Key)(nil)
	_ domain.Verifier   = P256Verifier{}
)
