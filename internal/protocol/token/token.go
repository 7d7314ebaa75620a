// Package token implements access tokens: a signature over the canonical
// claims followed by the encoded claims.
package token

import (
	"encoding/json"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
	"betterauth/internal/domain/types"
	"betterauth/internal/protocol/canonical"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Token is a decoded access token.
type Token[T any] struct {
	Claims    types.TokenClaims[T]
	Signature string
	Raw       string
}

// Issue signs claims with key and returns the wire token.
func Issue[T any](claims types.TokenClaims[T], key domain.SigningKey, enc domain.TokenEncoder) (string, error) {
	payload, err := canonical.Compose(claims)
	if err != nil {
		return "", err
	}
	signature, err := key.Sign(payload)
	if err != nil {
		return "", autherr.Wrap(autherr.KindInvalidState, err)
	}
	encoded, err := enc.Encode(payload)
	if err != nil {
		return "", err
	}
	return signature + encoded, nil
}

// Parse splits raw after signatureLength characters and decodes the claims.
// It does not verify the signature.
func Parse[T any](raw string, signatureLength int, enc domain.TokenEncoder) (*Token[T], error) {
	if signatureLength <= 0 || len(raw) <= signatureLength {
		return nil, autherr.InvalidToken("token is shorter than its signature")
	}
	signature, encoded := raw[:signatureLength], raw[signatureLength:]
	payload, err := enc.Decode(encoded)
	if err != nil {
		return nil, autherr.InvalidToken("payload could not be decoded: " + err.Error())
	}
	t := &Token[T]{Signature: signature, Raw: raw}
	if err := json.Unmarshal(payload, &t.Claims); err != nil {
		return nil, autherr.InvalidToken("claims could not be parsed: " + err.Error())
	}
	if t.Claims.Identity == "" || t.Claims.PublicKey == "" || t.Claims.RotationHash == "" {
		return nil, autherr.InvalidToken("claims are incomplete")
	}
	return t, nil
}

// Verify checks the token signature against the issuer's public key.
func (t *Token[T]) Verify(verifier domain.Verifier, publicKey string) error {
	payload, err := canonical.Compose(t.Claims)
	if err != nil {
		return err
	}
	if err := verifier.Verify(payload, t.Signature, publicKey); err != nil {
		return autherr.SignatureVerificationFailed(publicKey, "token")
	}
	return nil
}

// CheckFresh enforces issuedAt <= now <= expiry.
func (t *Token[T]) CheckFresh(ts domain.Timestamper) error {
	return t.check(ts, t.Claims.Expiry, typeAccess)
}

// CheckRefreshable enforces issuedAt <= now <= refreshExpiry.
func (t *Token[T]) CheckRefreshable(ts domain.Timestamper) error {
	return t.check(ts, t.Claims.RefreshExpiry, typeRefresh)
}

func (t *Token[T]) check(ts domain.Timestamper, expiry, tokenType string) error {
	now := ts.Now()
	issuedAt, err := ts.Parse(t.Claims.IssuedAt)
	if err != nil {
		return autherr.InvalidToken("issuedAt: " + err.Error())
	}
	if now.Before(issuedAt) {
		return autherr.FutureToken(t.Claims.IssuedAt, ts.Format(now), issuedAt.Sub(now))
	}
	expiresAt, err := ts.Parse(expiry)
	if err != nil {
		return autherr.InvalidToken(tokenType + " expiry: " + err.Error())
	}
	if now.After(expiresAt) {
		return autherr.ExpiredToken(expiry, ts.Format(now), tokenType)
	}
	return nil
}
