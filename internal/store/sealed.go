package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"betterauth/internal/crypto"
)

// sealedVersion is the layout version written by seal.
const sealedVersion = 2

var (
	errWrongPassphrase = errors.New("wrong passphrase or corrupted key file")
	errNoPassphrase    = errors.New("a passphrase is required to protect key material")
)

// kdfParams are the scrypt costs recorded next to each sealed file.
type kdfParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

func defaultKDF() kdfParams { return kdfParams{N: 1 << 15, R: 8, P: 1} }

// kdfCost is swapped out in tests.
var kdfCost = defaultKDF

// sealed is the on-disk form of a key file. Label names what the file holds
// and is authenticated with the ciphertext, so files cannot be swapped
// between roles.
type sealed struct {
	Version int       `json:"version"`
	Label   string    `json:"label"`
	KDF     kdfParams `json:"kdf"`
	Salt    []byte    `json:"salt"`
	Nonce   []byte    `json:"nonce"`
	Cipher  []byte    `json:"cipher"`
}

func (s *sealed) additionalData() []byte {
	return append([]byte(fmt.Sprintf("betterauth/%d/%s/", s.Version, s.Label)), s.Salt...)
}

// seal encrypts plaintext under a key derived from passphrase with
// XChaCha20-Poly1305.
func seal(passphrase, label string, plaintext []byte, kdf kdfParams) ([]byte, error) {
	if passphrase == "" {
		return nil, errNoPassphrase
	}
	s := sealed{
		Version: sealedVersion,
		Label:   label,
		KDF:     kdf,
		Salt:    make([]byte, 16),
		Nonce:   make([]byte, chacha20poly1305.NonceSizeX),
	}
	if _, err := rand.Read(s.Salt); err != nil {
		return nil, err
	}
	if _, err := rand.Read(s.Nonce); err != nil {
		return nil, err
	}

	key, err := deriveKey(passphrase, s.Salt, kdf)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	s.Cipher = aead.Seal(nil, s.Nonce, plaintext, s.additionalData())
	return json.Marshal(s)
}

// unseal reverses seal. The label must match the one sealed.
func unseal(passphrase, label string, data []byte) ([]byte, error) {
	var s sealed
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Version != sealedVersion {
		return nil, fmt.Errorf("unsupported key file version %d", s.Version)
	}
	if s.Label != label {
		return nil, fmt.Errorf("key file holds %q, expected %q", s.Label, label)
	}

	key, err := deriveKey(passphrase, s.Salt, s.KDF)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(s.Nonce) != aead.NonceSize() {
		return nil, errWrongPassphrase
	}
	plaintext, err := aead.Open(nil, s.Nonce, s.Cipher, s.additionalData())
	if err != nil {
		return nil, errWrongPassphrase
	}
	return plaintext, nil
}

func deriveKey(passphrase string, salt []byte, kdf kdfParams) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, kdf.N, kdf.R, kdf.P, chacha20poly1305.KeySize)
}
