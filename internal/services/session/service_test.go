package session_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterauth/internal/autherr"
	"betterauth/internal/crypto"
	"betterauth/internal/devserver"
	"betterauth/internal/domain"
	"betterauth/internal/keys"
	"betterauth/internal/services/access"
	"betterauth/internal/services/account"
	"betterauth/internal/services/flow"
	"betterauth/internal/services/session"
	"betterauth/internal/store"
	"betterauth/internal/timestamp"
	"betterauth/internal/tokenenc"
)

// flakyNetwork fails requests to down with a connection error.
type flakyNetwork struct {
	next domain.Network
	down atomic.Value
}

func (n *flakyNetwork) SendRequest(ctx context.Context, path string, message []byte) ([]byte, error) {
	if down, _ := n.down.Load().(string); down == path {
		return nil, autherr.Connection(errors.New("connection reset"))
	}
	return n.next.SendRequest(ctx, path, message)
}

// flakyStore fails every Store while failing is set.
type flakyStore struct {
	*store.MemoryValueStore
	failing atomic.Bool
}

func (s *flakyStore) Store(value string) error {
	if s.failing.Load() {
		return errors.New("disk full")
	}
	return s.MemoryValueStore.Store(value)
}

type fixture struct {
	network  *flakyNetwork
	tokens   *flakyStore
	failKeys *atomic.Bool
	access   *flow.Role
	sessions *session.Service
	client   *access.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv, err := devserver.New(devserver.Options{})
	require.NoError(t, err)
	trusted := store.NewMemoryServerKeys()
	trusted.Add(srv.Identity(), crypto.PublicKey(srv.ResponsePublicKey()))

	f := &fixture{
		network:  &flakyNetwork{next: devserver.LocalNetwork{Server: srv}},
		tokens:   &flakyStore{MemoryValueStore: store.NewMemoryValueStore("token")},
		failKeys: &atomic.Bool{},
	}
	run := &flow.Runner{Network: f.network, Noncer: crypto.Noncer{}, ServerKeys: trusted}
	hasher := crypto.Blake3{}
	identity := store.NewMemoryValueStore("identity")
	device := store.NewMemoryValueStore("device")
	auth := flow.NewRole(keys.New(crypto.P256, hasher))
	f.access = flow.NewRole(keys.New(crypto.P256, hasher, keys.WithPersist(func(keys.State) error {
		if f.failKeys.Load() {
			return errors.New("disk full")
		}
		return nil
	})))

	ts := timestamp.RFC3339Nano{}
	paths := domain.DefaultPaths()
	f.sessions = session.New(run, auth, f.access, identity, device, session.Tokens{
		Store:       f.tokens,
		Timestamper: ts,
		Verifier:    crypto.Verifiers{},
		Encoder:     tokenenc.Gzip{},
	}, paths)
	f.client = access.New(run, f.access, f.tokens, ts, crypto.Verifiers{}, tokenenc.Gzip{})

	accounts := account.New(run, auth, hasher, identity, device, paths)
	_, err = accounts.CreateAccount(context.Background(), hasher.Sum([]byte("recovery")))
	require.NoError(t, err)
	require.NoError(t, f.sessions.CreateSession(context.Background()))
	return f
}

func (f *fixture) echo(t *testing.T) {
	t.Helper()
	got, err := access.Request[map[string]any, map[string]any](
		context.Background(), f.client, devserver.EchoPath, map[string]any{"ping": "pong"})
	require.NoError(t, err)
	assert.Equal(t, "pong", got["ping"])
}

func (f *fixture) accessPublic(t *testing.T) string {
	t.Helper()
	signer, err := f.access.Keys.Signer()
	require.NoError(t, err)
	pub, err := signer.Public()
	require.NoError(t, err)
	return pub
}

func TestCreateSession_FailedCreateKeepsWorkingSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	before, err := f.sessions.Token()
	require.NoError(t, err)
	key := f.accessPublic(t)

	f.network.down.Store(domain.DefaultPaths().Session.Create)
	assert.ErrorIs(t, f.sessions.CreateSession(ctx), autherr.ErrConnection)
	f.network.down.Store("")

	after, err := f.sessions.Token()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, key, f.accessPublic(t))
	f.echo(t)
	require.NoError(t, f.sessions.RefreshSession(ctx))
	f.echo(t)
}

func TestRefreshSession_TokenWriteFailureKeepsKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	before, err := f.sessions.Token()
	require.NoError(t, err)
	key := f.accessPublic(t)

	f.tokens.failing.Store(true)
	assert.Error(t, f.sessions.RefreshSession(ctx))
	f.tokens.failing.Store(false)

	after, err := f.sessions.Token()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, key, f.accessPublic(t))
	// The kept token was refreshed on the server but still grants access.
	f.echo(t)
}

func TestCreateSession_KeyCommitFailureRestoresToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	before, err := f.sessions.Token()
	require.NoError(t, err)
	key := f.accessPublic(t)

	f.failKeys.Store(true)
	assert.ErrorIs(t, f.sessions.CreateSession(ctx), autherr.ErrStorageUnavailable)
	f.failKeys.Store(false)

	after, err := f.sessions.Token()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, key, f.accessPublic(t))
	f.echo(t)
}
