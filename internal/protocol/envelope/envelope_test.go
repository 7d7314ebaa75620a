package envelope_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterauth/internal/autherr"
	"betterauth/internal/crypto"
	"betterauth/internal/domain"
	"betterauth/internal/protocol/envelope"
)

type fooRequest struct {
	Foo string `json:"foo"`
	Bar string `json:"bar"`
}

type trusted map[string]domain.VerificationKey

func (t trusted) Get(_ context.Context, identity string) (domain.VerificationKey, error) {
	k, ok := t[identity]
	if !ok {
		return nil, autherr.NotFound("server key")
	}
	return k, nil
}

func newKey(t *testing.T) *crypto.P256Key {
	t.Helper()
	k, err := crypto.GenerateP256()
	require.NoError(t, err)
	return k
}

func TestRequest_SignSerializeParseVerify(t *testing.T) {
	key := newKey(t)
	pub, _ := key.Public()

	req := envelope.NewRequest("0Anonce", fooRequest{Foo: "bar", Bar: "foo"})
	require.NoError(t, req.Sign(key))

	wire, err := req.Serialize()
	require.NoError(t, err)
	assert.Regexp(t, `^\{"payload":\{"access":\{"nonce":"0Anonce"\},"request":\{"foo":"bar","bar":"foo"\}\},"signature":"0I[A-Za-z0-9_-]{86}"\}$`, string(wire))

	parsed, err := envelope.ParseRequest[fooRequest](wire)
	require.NoError(t, err)
	assert.Equal(t, req.Payload, parsed.Payload)
	require.NoError(t, parsed.Verify(key.Verifier(), pub))
}

func TestVerify_FailsOnTamperedPayload(t *testing.T) {
	key := newKey(t)
	pub, _ := key.Public()

	req := envelope.NewRequest("0Anonce", fooRequest{Foo: "bar"})
	require.NoError(t, req.Sign(key))
	req.Payload.Request.Foo = "baz"

	err := req.Verify(key.Verifier(), pub)
	assert.ErrorIs(t, err, autherr.ErrSignatureVerificationFailed)
}

func TestVerify_MissingSignatureIsInvalidMessage(t *testing.T) {
	key := newKey(t)
	pub, _ := key.Public()

	req := envelope.NewRequest("0Anonce", fooRequest{})
	assert.ErrorIs(t, req.Verify(key.Verifier(), pub), autherr.ErrInvalidMessage)

	_, err := req.Serialize()
	assert.ErrorIs(t, err, autherr.ErrInvalidMessage)
}

func TestSign_NilPayloadIsInvalidState(t *testing.T) {
	var p *fooRequest
	env := envelope.New(p)
	assert.ErrorIs(t, env.Sign(newKey(t)), autherr.ErrInvalidState)
}

func TestSerializeUnsigned(t *testing.T) {
	env := envelope.NewRequest("0An", map[string]string{"identity": "Eid"})
	b, err := env.SerializeUnsigned()
	require.NoError(t, err)
	assert.Equal(t, `{"payload":{"access":{"nonce":"0An"},"request":{"identity":"Eid"}}}`, string(b))
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{``, `{`, `{"signature":"x"}`, `{"payload":null}`, `{"payload":"str"}`} {
		_, err := envelope.Parse[fooRequest]([]byte(in))
		assert.ErrorIs(t, err, autherr.ErrDeserialization, in)
	}
}

func TestParseResponse_IgnoresUnknownKeys(t *testing.T) {
	in := `{"payload":{"access":{"nonce":"0An","serverIdentity":"Es","extra":1},"response":{"foo":"x"},"more":true},"signature":"0Isig"}`
	resp, err := envelope.ParseResponse[fooRequest]([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, "0An", resp.Payload.Access.Nonce)
	assert.Equal(t, "x", resp.Payload.Response.Foo)
	assert.Equal(t, "0Isig", resp.Signature)
}

func TestParseResponse_ReturnsWireError(t *testing.T) {
	in := `{"error":{"code":"BA904","message":"Device has been revoked"}}`
	_, err := envelope.ParseResponse[fooRequest]([]byte(in))
	assert.ErrorIs(t, err, autherr.ErrDeviceRevoked)
}

func TestVerifyResponse(t *testing.T) {
	serverKey := newKey(t)
	serverPub, _ := serverKey.Public()
	serverIdentity := crypto.Blake3{}.Sum([]byte(serverPub))
	keys := trusted{serverIdentity: crypto.PublicKey(serverPub)}
	ctx := context.Background()

	resp := envelope.NewResponse("0Anonce", serverIdentity, fooRequest{Foo: "ok"})
	require.NoError(t, resp.Sign(serverKey))

	t.Run("ok", func(t *testing.T) {
		require.NoError(t, envelope.VerifyResponse(ctx, resp, keys, "0Anonce"))
	})
	t.Run("nonce mismatch", func(t *testing.T) {
		err := envelope.VerifyResponse(ctx, resp, keys, "0Aother")
		assert.ErrorIs(t, err, autherr.ErrIncorrectNonce)
	})
	t.Run("unknown server", func(t *testing.T) {
		err := envelope.VerifyResponse(ctx, resp, trusted{}, "0Anonce")
		assert.ErrorIs(t, err, autherr.ErrInvalidIdentity)
	})
	t.Run("wrong signer", func(t *testing.T) {
		forged := envelope.NewResponse("0Anonce", serverIdentity, fooRequest{Foo: "ok"})
		require.NoError(t, forged.Sign(newKey(t)))
		err := envelope.VerifyResponse(ctx, forged, keys, "0Anonce")
		assert.ErrorIs(t, err, autherr.ErrSignatureVerificationFailed)
	})
}

func TestAccessRequest_RoundTrip(t *testing.T) {
	key := newKey(t)
	pub, _ := key.Public()

	req := envelope.NewAccessRequest("0An", "2025-01-01T00:00:00.000000000Z", "0Itoken", fooRequest{Foo: "a"})
	require.NoError(t, req.Sign(key))
	wire, err := req.Serialize()
	require.NoError(t, err)

	parsed, err := envelope.ParseAccessRequest[fooRequest](wire)
	require.NoError(t, err)
	assert.Equal(t, "0Itoken", parsed.Payload.Access.Token)
	require.NoError(t, parsed.Verify(crypto.Verifiers{}, pub))
}
