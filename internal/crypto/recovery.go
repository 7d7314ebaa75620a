package crypto

import (
	"crypto/sha256"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

var recoveryInfo = []byte("betterauth recovery key v1")

// NewRecoveryPhrase returns a fresh 24-word BIP-39 mnemonic.
func NewRecoveryPhrase() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	defer Wipe(entropy)
	return bip39.NewMnemonic(entropy)
}

// RecoveryKey derives the recovery signing key held behind a mnemonic.
// The same mnemonic, passphrase and algorithm always yield the same key.
func RecoveryKey(alg Algorithm, mnemonic, passphrase string) (PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer Wipe(seed)
	return Derive(alg, hkdf.New(sha256.New, seed, nil, recoveryInfo))
}
