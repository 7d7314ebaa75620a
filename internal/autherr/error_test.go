package autherr_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterauth/internal/autherr"
)

func TestCodesAreStable(t *testing.T) {
	cases := map[autherr.Kind]string{
		autherr.KindInvalidMessage:       "BA101",
		autherr.KindInvalidIdentity:      "BA102",
		autherr.KindInvalidDevice:        "BA103",
		autherr.KindInvalidHash:          "BA104",
		autherr.KindIncorrectNonce:       "BA203",
		autherr.KindMismatchedIdentities: "BA302",
		autherr.KindExpiredToken:         "BA401",
		autherr.KindFutureToken:          "BA403",
		autherr.KindStaleRequest:         "BA501",
		autherr.KindFutureRequest:        "BA502",
		autherr.KindIdentityDeleted:      "BA905",
	}
	for kind, code := range cases {
		assert.Equal(t, code, kind.Code(), kind.String())
		assert.Equal(t, kind, autherr.KindForCode(code))
	}
	assert.Equal(t, autherr.KindUnknown, autherr.KindForCode("BA999"))
}

func TestIncorrectNonce_TruncatesContext(t *testing.T) {
	err := autherr.IncorrectNonce("0A1234567890abcdefghijkl", "0Azyxwvutsrqponmlkjihgfe")

	expected, ok := err.Value("expected")
	require.True(t, ok)
	assert.Equal(t, "0A1234567890abcd...", expected)
	assert.Equal(t, "Response nonce does not match request nonce", err.Message)
}

func TestMarshal_WireShapeKeepsContextOrder(t *testing.T) {
	err := autherr.MismatchedIdentities("Elink", "Ereq")

	b, mErr := json.Marshal(err)
	require.NoError(t, mErr)
	assert.Equal(t,
		`{"error":{"code":"BA302","message":"Link container identity does not match request identity","context":{"linkContainerIdentity":"Elink","requestIdentity":"Ereq"}}}`,
		string(b),
	)

	parsed, pErr := autherr.Parse(b)
	require.NoError(t, pErr)
	assert.Equal(t, autherr.KindMismatchedIdentities, parsed.Kind)
	require.Len(t, parsed.Context, 2)
	assert.Equal(t, "linkContainerIdentity", parsed.Context[0].Key)
	assert.Equal(t, "requestIdentity", parsed.Context[1].Key)
}

func TestMarshal_OmitsEmptyContext(t *testing.T) {
	b, err := json.Marshal(autherr.New(autherr.KindInvalidIdentity))
	require.NoError(t, err)
	assert.Equal(t, `{"error":{"code":"BA102","message":"Identity verification failed"}}`, string(b))
}

func TestIs_MatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create account: %w", autherr.InvalidState("identity already stored"))

	assert.True(t, errors.Is(err, autherr.ErrInvalidState))
	assert.False(t, errors.Is(err, autherr.ErrRotation))
	assert.Equal(t, autherr.KindInvalidState, autherr.KindOf(err))
}

func TestWrap_KeepsCauseAndPassesThroughTaxonomyErrors(t *testing.T) {
	cause := errors.New("disk full")
	err := autherr.StorageUnavailable(cause)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, autherr.Is(err, autherr.KindStorageUnavailable))

	inner := autherr.InvalidToken("bad")
	assert.Same(t, inner, autherr.Wrap(autherr.KindDeserialization, inner))
	assert.Nil(t, autherr.Wrap(autherr.KindDeserialization, nil))
}

func TestParse_RejectsNonErrorBodies(t *testing.T) {
	_, err := autherr.Parse([]byte(`{"payload":{}}`))
	assert.Error(t, err)
}
