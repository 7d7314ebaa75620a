// Package crypto provides the concrete primitives behind the domain
// capability interfaces.
//
// Contents
//
//   - BLAKE3-256 hashing (Blake3)
//   - 128-bit nonces (Noncer)
//   - P-256 and Ed25519 signing keys and verifiers (GenerateP256,
//     GenerateEd25519, Verifiers)
//   - Deterministic recovery keys from BIP-39 phrases (RecoveryKey)
//   - Short public-key fingerprints for display (Fingerprint)
//   - Best-effort memory wiping (Wipe)
//
// # Notes
//
// Every primitive travels as text: url-safe base64 of the raw bytes,
// left-padded with zero bytes and with the leading characters replaced by a
// type code ("E" digest, "0A" nonce, "1AAI"/"D" public keys, "0I"/"0B"
// signatures). Both signature codes encode to 88 characters.
package crypto
