package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterauth/internal/autherr"
	"betterauth/internal/crypto"
	"betterauth/internal/domain"
	"betterauth/internal/domain/types"
	"betterauth/internal/protocol/token"
	"betterauth/internal/timestamp"
	"betterauth/internal/tokenenc"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clockAt(t time.Time) timestamp.RFC3339Nano {
	return timestamp.RFC3339Nano{Clock: func() time.Time { return t }}
}

func claims(ts timestamp.RFC3339Nano, issued, expiry, refresh time.Time) types.TokenClaims[domain.Attributes] {
	return types.TokenClaims[domain.Attributes]{
		Identity:      "Eidentity",
		PublicKey:     "1AAIaccess",
		RotationHash:  "Erotation",
		IssuedAt:      ts.Format(issued),
		Expiry:        ts.Format(expiry),
		RefreshExpiry: ts.Format(refresh),
		Attributes:    domain.Attributes{"permissions": map[string]any{"admin": []any{"read"}}},
	}
}

func issue(t *testing.T, c types.TokenClaims[domain.Attributes]) (string, *crypto.P256Key) {
	t.Helper()
	key, err := crypto.GenerateP256()
	require.NoError(t, err)
	raw, err := token.Issue(c, key, tokenenc.Gzip{})
	require.NoError(t, err)
	return raw, key
}

func TestIssueParseVerify(t *testing.T) {
	ts := clockAt(base)
	raw, key := issue(t, claims(ts, base, base.Add(15*time.Minute), base.Add(12*time.Hour)))
	assert.True(t, strings.HasPrefix(raw, "0I"))

	tok, err := token.Parse[domain.Attributes](raw, crypto.SignatureLength, tokenenc.Gzip{})
	require.NoError(t, err)
	assert.Equal(t, "Eidentity", tok.Claims.Identity)
	assert.Equal(t, raw, tok.Raw)

	pub, _ := key.Public()
	require.NoError(t, tok.Verify(crypto.Verifiers{}, pub))
	require.NoError(t, tok.CheckFresh(ts))
}

func TestVerify_WrongIssuer(t *testing.T) {
	ts := clockAt(base)
	raw, _ := issue(t, claims(ts, base, base.Add(time.Minute), base.Add(time.Hour)))
	other, err := crypto.GenerateP256()
	require.NoError(t, err)
	otherPub, _ := other.Public()

	tok, err := token.Parse[domain.Attributes](raw, crypto.SignatureLength, tokenenc.Gzip{})
	require.NoError(t, err)
	assert.ErrorIs(t, tok.Verify(crypto.Verifiers{}, otherPub), autherr.ErrSignatureVerificationFailed)
}

func TestFreshness(t *testing.T) {
	ts := clockAt(base)

	t.Run("issued one second in the future", func(t *testing.T) {
		raw, _ := issue(t, claims(ts, base.Add(time.Second), base.Add(time.Hour), base.Add(2*time.Hour)))
		tok, err := token.Parse[domain.Attributes](raw, crypto.SignatureLength, tokenenc.Gzip{})
		require.NoError(t, err)
		assert.ErrorIs(t, tok.CheckFresh(ts), autherr.ErrFutureToken)
	})

	t.Run("expired one second ago", func(t *testing.T) {
		raw, _ := issue(t, claims(ts, base.Add(-time.Hour), base.Add(-time.Second), base.Add(time.Hour)))
		tok, err := token.Parse[domain.Attributes](raw, crypto.SignatureLength, tokenenc.Gzip{})
		require.NoError(t, err)
		err = tok.CheckFresh(ts)
		assert.ErrorIs(t, err, autherr.ErrExpiredToken)
		require.NoError(t, tok.CheckRefreshable(ts))
	})

	t.Run("exactly at expiry is accepted", func(t *testing.T) {
		raw, _ := issue(t, claims(ts, base.Add(-time.Hour), base, base.Add(time.Hour)))
		tok, err := token.Parse[domain.Attributes](raw, crypto.SignatureLength, tokenenc.Gzip{})
		require.NoError(t, err)
		require.NoError(t, tok.CheckFresh(ts))
	})

	t.Run("refresh window elapsed", func(t *testing.T) {
		raw, _ := issue(t, claims(ts, base.Add(-2*time.Hour), base.Add(-time.Hour), base.Add(-time.Second)))
		tok, err := token.Parse[domain.Attributes](raw, crypto.SignatureLength, tokenenc.Gzip{})
		require.NoError(t, err)
		err = tok.CheckRefreshable(ts)
		require.ErrorIs(t, err, autherr.ErrExpiredToken)
		var ae *autherr.Error
		require.ErrorAs(t, err, &ae)
		v, _ := ae.Value("tokenType")
		assert.Equal(t, "refresh", v)
	})
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{"", "short", strings.Repeat("A", crypto.SignatureLength) + "!!!notbase64"} {
		_, err := token.Parse[domain.Attributes](raw, crypto.SignatureLength, tokenenc.Gzip{})
		assert.ErrorIs(t, err, autherr.ErrInvalidToken, raw)
	}
}
