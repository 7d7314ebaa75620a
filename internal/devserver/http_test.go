package devserver_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterauth/internal/autherr"
	"betterauth/internal/devserver"
)

func TestStatusFor(t *testing.T) {
	tests := map[autherr.Kind]int{
		autherr.KindNotFound:                    http.StatusNotFound,
		autherr.KindAlreadyExists:               http.StatusConflict,
		autherr.KindIdentityDeleted:             http.StatusGone,
		autherr.KindDeviceRevoked:               http.StatusForbidden,
		autherr.KindMismatchedIdentities:        http.StatusForbidden,
		autherr.KindSignatureVerificationFailed: http.StatusUnauthorized,
		autherr.KindNonceReplay:                 http.StatusUnauthorized,
		autherr.KindExpiredToken:                http.StatusUnauthorized,
		autherr.KindRotation:                    http.StatusConflict,
		autherr.KindStorageUnavailable:          http.StatusInternalServerError,
		autherr.KindInvalidMessage:              http.StatusBadRequest,
		autherr.KindStaleRequest:                http.StatusBadRequest,
	}
	for kind, want := range tests {
		assert.Equal(t, want, devserver.StatusFor(kind), kind.String())
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	devserver.WriteError(rec, autherr.NonceReplay("0Anonce"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	wire, err := autherr.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, autherr.KindNonceReplay, wire.Kind)

	// Errors outside the taxonomy do not leak their text.
	rec = httptest.NewRecorder()
	devserver.WriteError(rec, errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
	wire, err = autherr.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, autherr.KindUnknown, wire.Kind)
}

func TestRouter(t *testing.T) {
	srv, err := devserver.New(devserver.Options{})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	t.Run("key", func(t *testing.T) {
		resp, err := http.Get(ts.URL + devserver.KeyPath)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var key struct {
			Identity  string `json:"identity"`
			PublicKey string `json:"publicKey"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&key))
		assert.Equal(t, srv.Identity(), key.Identity)
		assert.Equal(t, srv.ResponsePublicKey(), key.PublicKey)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(ts.URL+devserver.EchoPath, "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		wire, err := autherr.Parse(body)
		require.NoError(t, err)
		assert.Equal(t, autherr.KindDeserialization, wire.Kind)
	})

	t.Run("unknown identity", func(t *testing.T) {
		body := `{"payload":{"access":{"nonce":"0Anonce"},"request":{"authentication":{"identity":"Enobody"}}}}`
		resp, err := http.Post(ts.URL+"/session/request", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(ts.URL + devserver.EchoPath)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	assert.Positive(t, srv.Requests())
}
