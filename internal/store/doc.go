// Package store provides persistence for the client's protocol state.
//
// It contains file-backed and in-memory implementations of the domain
// storage interfaces. File writes go through a temp file and rename, and all
// methods are concurrency-safe via internal locking. Files live under the
// configured client home.
//
// The package includes stores for:
//   - Identity, device and access token values (ValueFileStore)
//   - Rotating keys per role, sealed with scrypt + XChaCha20-Poly1305
//     (KeyFileStore)
//   - Pinned server response keys (ServerKeyFileStore)
//   - In-memory equivalents for tests and embedding (MemoryValueStore,
//     MemoryServerKeys, keys.Commitment)
package store
