package types

// TokenClaims is the signed body of an access token.
//
// Timestamps are kept in their wire form so that the canonical payload
// recomposes byte for byte.
type TokenClaims[T any] struct {
	Identity      string `json:"identity"`
	PublicKey     string `json:"publicKey"`
	RotationHash  string `json:"rotationHash"`
	IssuedAt      string `json:"issuedAt"`
	Expiry        string `json:"expiry"`
	RefreshExpiry string `json:"refreshExpiry"`
	Attributes    T      `json:"attributes"`
}

// Attributes is the attribute shape used when the caller does not care about
// the server's attribute schema.
type Attributes = map[string]any
