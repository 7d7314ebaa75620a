package devserver

import (
	"betterauth/internal/autherr"
	"betterauth/internal/crypto"
	"betterauth/internal/domain"
	"betterauth/internal/protocol/envelope"
	"betterauth/internal/protocol/token"
)

// AccessVerifier checks requests made under an access token.
type AccessVerifier struct {
	Verifier    domain.Verifier
	TokenKey    domain.VerificationKey
	Encoder     domain.TokenEncoder
	Timestamper domain.Timestamper
	Nonces      *TimeLock
	// Registry, when set, rejects tokens of deleted identities.
	Registry *Registry
}

// Token decodes raw and verifies it was issued by TokenKey. Freshness is
// left to the caller.
func (v *AccessVerifier) Token(raw string) (*token.Token[domain.Attributes], error) {
	t, err := token.Parse[domain.Attributes](raw, crypto.SignatureLength, v.Encoder)
	if err != nil {
		return nil, err
	}
	issuer, err := v.TokenKey.Public()
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidState, err)
	}
	if err := t.Verify(v.TokenKey.Verifier(), issuer); err != nil {
		return nil, err
	}
	return t, nil
}

// VerifyAccess parses an access request and accepts it only if:
//   - the token verifies and is fresh,
//   - the request timestamp is within the nonce lifetime and not ahead of now,
//   - the request is signed by the access key named in the token,
//   - the nonce has not been seen within its lifetime.
func VerifyAccess[T any](v *AccessVerifier, body []byte) (
	*envelope.Signed[envelope.AccessPayload[T]],
	*token.Token[domain.Attributes],
	error,
) {
	req, err := envelope.ParseAccessRequest[T](body)
	if err != nil {
		return nil, nil, err
	}
	access := req.Payload.Access

	t, err := v.Token(access.Token)
	if err != nil {
		return nil, nil, err
	}
	if err := t.CheckFresh(v.Timestamper); err != nil {
		return nil, nil, err
	}
	if v.Registry != nil {
		if err := v.Registry.Exists(t.Claims.Identity); err != nil {
			return nil, nil, err
		}
	}

	now := v.Timestamper.Now()
	sent, err := v.Timestamper.Parse(access.Timestamp)
	if err != nil {
		return nil, nil, autherr.InvalidMessage("access.timestamp", err.Error())
	}
	if age := now.Sub(sent); age > v.Nonces.Lifetime() {
		return nil, nil, autherr.StaleRequest(access.Timestamp, v.Timestamper.Format(now), v.Nonces.Lifetime())
	}
	if sent.After(now) {
		return nil, nil, autherr.FutureRequest(access.Timestamp, v.Timestamper.Format(now), sent.Sub(now))
	}

	if err := req.Verify(v.Verifier, t.Claims.PublicKey); err != nil {
		return nil, nil, err
	}
	if err := v.Nonces.Reserve(access.Nonce); err != nil {
		return nil, nil, err
	}
	return req, t, nil
}
