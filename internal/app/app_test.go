package app_test

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterauth/internal/app"
	"betterauth/internal/autherr"
	"betterauth/internal/crypto"
	"betterauth/internal/devserver"
	"betterauth/internal/domain"
	"betterauth/internal/keys"
	"betterauth/internal/protocol/messages"
	"betterauth/internal/store"
)

// clock is a wall clock that tests can move forward.
type clock struct{ offset atomic.Int64 }

func (c *clock) Now() time.Time { return time.Now().Add(time.Duration(c.offset.Load())) }
func (c *clock) Advance(d time.Duration) { c.offset.Add(int64(d)) }

type harness struct {
	t      *testing.T
	server *devserver.Server
	keys   *store.MemoryServerKeys
	clock  *clock
}

func newHarness(t *testing.T, opts devserver.Options) *harness {
	t.Helper()
	c := &clock{}
	opts.Clock = c.Now
	srv, err := devserver.New(opts)
	require.NoError(t, err)

	keys := store.NewMemoryServerKeys()
	keys.Add(srv.Identity(), crypto.PublicKey(srv.ResponsePublicKey()))
	return &harness{t: t, server: srv, keys: keys, clock: c}
}

// client returns an in-memory client talking to the server in process.
func (h *harness) client() *app.App {
	h.t.Helper()
	a, err := app.New(app.Config{
		InMemory:   true,
		Network:    devserver.LocalNetwork{Server: h.server},
		ServerKeys: h.keys,
		Clock:      h.clock.Now,
	})
	require.NoError(h.t, err)
	return a
}

// recovery returns a fresh recovery key and its hash.
func recovery(t *testing.T, a *app.App) (mnemonic string, key domain.SigningKey, hash string) {
	t.Helper()
	mnemonic, err := crypto.NewRecoveryPhrase()
	require.NoError(t, err)
	key, hash, err = a.RecoveryKey(mnemonic, "")
	require.NoError(t, err)
	return mnemonic, key, hash
}

func echo(ctx context.Context, a *app.App, body map[string]any) (map[string]any, error) {
	return app.Request[map[string]any, map[string]any](ctx, a, devserver.EchoPath, body)
}

func authPublic(t *testing.T, a *app.App) string {
	t.Helper()
	signer, err := a.Wire().Auth.Keys.Signer()
	require.NoError(t, err)
	pub, err := signer.Public()
	require.NoError(t, err)
	return pub
}

func TestAccountSessionAndAccess(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{})
	a := h.client()
	_, _, recoveryHash := recovery(t, a)

	identity, err := a.CreateAccount(ctx, recoveryHash)
	require.NoError(t, err)
	stored, err := a.Identity()
	require.NoError(t, err)
	assert.Equal(t, identity, stored)

	device, err := a.Device()
	require.NoError(t, err)
	assert.Equal(t, crypto.Blake3{}.Sum([]byte(authPublic(t, a))), device)

	_, err = a.CreateAccount(ctx, recoveryHash)
	assert.ErrorIs(t, err, autherr.ErrInvalidState)

	// No token yet.
	_, err = echo(ctx, a, map[string]any{"foo": "bar"})
	assert.ErrorIs(t, err, autherr.ErrNotFound)

	require.NoError(t, a.CreateSession(ctx))
	got, err := echo(ctx, a, map[string]any{"foo": "bar"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar"}, got)

	first, err := a.Token()
	require.NoError(t, err)
	require.NoError(t, a.RefreshSession(ctx))
	second, err := a.Token()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	got, err = echo(ctx, a, map[string]any{"n": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, float64(2), got["n"])

	// Rotation keeps the device id and sessions keep working.
	before := authPublic(t, a)
	require.NoError(t, a.RotateDevice(ctx))
	require.NoError(t, a.RotateDevice(ctx))
	assert.NotEqual(t, before, authPublic(t, a))
	again, err := a.Device()
	require.NoError(t, err)
	assert.Equal(t, device, again)
	require.NoError(t, a.CreateSession(ctx))
}

func TestAccess_ExpiredTokenRefreshes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{AccessLifetime: time.Minute})
	a := h.client()
	_, _, recoveryHash := recovery(t, a)
	_, err := a.CreateAccount(ctx, recoveryHash)
	require.NoError(t, err)
	require.NoError(t, a.CreateSession(ctx))

	h.clock.Advance(2 * time.Minute)
	_, err = echo(ctx, a, map[string]any{})
	assert.ErrorIs(t, err, autherr.ErrExpiredToken)

	require.NoError(t, a.RefreshSession(ctx))
	_, err = echo(ctx, a, map[string]any{})
	require.NoError(t, err)

	// Past the refresh window only a new session helps.
	h.clock.Advance(13 * time.Hour)
	assert.ErrorIs(t, a.RefreshSession(ctx), autherr.ErrExpiredToken)
	require.NoError(t, a.CreateSession(ctx))
}

func TestAccess_ResponseUnderWrongNonce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{})
	a := h.client()
	_, _, recoveryHash := recovery(t, a)
	_, err := a.CreateAccount(ctx, recoveryHash)
	require.NoError(t, err)
	require.NoError(t, a.CreateSession(ctx))

	_, err = app.Request[map[string]any, map[string]any](ctx, a, devserver.BadNoncePath, map[string]any{})
	assert.ErrorIs(t, err, autherr.ErrIncorrectNonce)
}

func TestLinkAndUnlinkDevice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{})
	first := h.client()
	_, _, recoveryHash := recovery(t, first)
	identity, err := first.CreateAccount(ctx, recoveryHash)
	require.NoError(t, err)

	second := h.client()
	container, err := second.GenerateLinkContainer(identity)
	require.NoError(t, err)
	secondDevice, err := second.Device()
	require.NoError(t, err)

	require.NoError(t, first.LinkDevice(ctx, container))
	require.NoError(t, second.CreateSession(ctx))
	_, err = echo(ctx, second, map[string]any{"from": "second"})
	require.NoError(t, err)

	// The second device rotates independently.
	require.NoError(t, second.RotateDevice(ctx))

	require.NoError(t, first.UnlinkDevice(ctx, secondDevice))
	assert.ErrorIs(t, second.CreateSession(ctx), autherr.ErrDeviceRevoked)
	assert.ErrorIs(t, second.RotateDevice(ctx), autherr.ErrDeviceRevoked)
	require.NoError(t, first.CreateSession(ctx))
}

func TestLinkDevice_RejectsForeignContainer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{})
	a := h.client()
	_, _, recoveryHash := recovery(t, a)
	_, err := a.CreateAccount(ctx, recoveryHash)
	require.NoError(t, err)

	other := h.client()
	container, err := other.GenerateLinkContainer("Esomeone-else")
	require.NoError(t, err)

	before := authPublic(t, a)
	assert.ErrorIs(t, a.LinkDevice(ctx, container), autherr.ErrMismatchedIdentities)
	assert.Equal(t, before, authPublic(t, a))
}

func TestRecoverChangeAndDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{})
	lost := h.client()
	_, recoveryKey, recoveryHash := recovery(t, lost)
	identity, err := lost.CreateAccount(ctx, recoveryHash)
	require.NoError(t, err)

	fresh := h.client()
	_, nextKey, nextHash := recovery(t, fresh)
	require.NoError(t, fresh.RecoverAccount(ctx, identity, recoveryKey, nextHash))
	stored, err := fresh.Identity()
	require.NoError(t, err)
	assert.Equal(t, identity, stored)
	require.NoError(t, fresh.CreateSession(ctx))

	// The old recovery key is spent.
	again := h.client()
	_, _, anotherHash := recovery(t, again)
	assert.ErrorIs(t, again.RecoverAccount(ctx, identity, recoveryKey, anotherHash), autherr.ErrInvalidHash)

	// Change the recovery key from a device, then recover with the new one.
	_, thirdKey, thirdHash := recovery(t, fresh)
	require.NoError(t, fresh.ChangeRecoveryKey(ctx, thirdHash))
	assert.ErrorIs(t, again.RecoverAccount(ctx, identity, nextKey, anotherHash), autherr.ErrInvalidHash)
	require.NoError(t, again.RecoverAccount(ctx, identity, thirdKey, anotherHash))

	require.NoError(t, fresh.DeleteAccount(ctx))
	_, err = fresh.Identity()
	assert.ErrorIs(t, err, autherr.ErrNotFound)
	assert.ErrorIs(t, lost.CreateSession(ctx), autherr.ErrIdentityDeleted)
	assert.ErrorIs(t, again.RotateDevice(ctx), autherr.ErrIdentityDeleted)
}

// account returns a client with a registered identity and a live session,
// plus its recovery key.
func (h *harness) account(t *testing.T) (*app.App, domain.SigningKey) {
	t.Helper()
	a := h.client()
	_, key, hash := recovery(t, a)
	_, err := a.CreateAccount(context.Background(), hash)
	require.NoError(t, err)
	require.NoError(t, a.CreateSession(context.Background()))
	return a, key
}

// localState is everything a flow may commit on the client.
type localState struct {
	identity, device, token string
	auth, access            string
}

func snapshot(t *testing.T, a *app.App) localState {
	t.Helper()
	value := func(v string, _ error) string { return v }
	public := func(ks domain.ClientRotatingKeyStore) string {
		signer, err := ks.Signer()
		if err != nil {
			return ""
		}
		pub, err := signer.Public()
		require.NoError(t, err)
		return pub
	}
	return localState{
		identity: value(a.Identity()),
		device:   value(a.Device()),
		token:    value(a.Token()),
		auth:     public(a.Wire().Auth.Keys),
		access:   public(a.Wire().Access.Keys),
	}
}

// misbound runs fn while the server answers under foreign nonces and checks
// it fails with IncorrectNonce without touching local state.
func (h *harness) misbound(t *testing.T, a *app.App, fn func() error) {
	t.Helper()
	before := snapshot(t, a)
	h.server.MisbindNonces(true)
	err := fn()
	h.server.MisbindNonces(false)
	assert.ErrorIs(t, err, autherr.ErrIncorrectNonce)
	assert.Equal(t, before, snapshot(t, a))
}

// usable checks the session of a still grants access and refreshes.
func usable(t *testing.T, a *app.App) {
	t.Helper()
	ctx := context.Background()
	_, err := echo(ctx, a, map[string]any{"still": "here"})
	require.NoError(t, err)
	require.NoError(t, a.RefreshSession(ctx))
	_, err = echo(ctx, a, map[string]any{"still": "here"})
	require.NoError(t, err)
}

func TestResponseNonceMismatchCommitsNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{})

	t.Run("create account", func(t *testing.T) {
		a := h.client()
		_, _, recoveryHash := recovery(t, a)
		h.misbound(t, a, func() error {
			_, err := a.CreateAccount(ctx, recoveryHash)
			return err
		})
		_, err := a.Wire().Auth.Keys.Signer()
		assert.ErrorIs(t, err, autherr.ErrInvalidState)

		// Nothing was kept, so the client can register again.
		_, err = a.CreateAccount(ctx, recoveryHash)
		require.NoError(t, err)
	})

	t.Run("recover account on a fresh client", func(t *testing.T) {
		owner, recoveryKey := h.account(t)
		identity, err := owner.Identity()
		require.NoError(t, err)

		a := h.client()
		_, _, nextHash := recovery(t, a)
		h.misbound(t, a, func() error { return a.RecoverAccount(ctx, identity, recoveryKey, nextHash) })
		_, err = a.Wire().Auth.Keys.Signer()
		assert.ErrorIs(t, err, autherr.ErrInvalidState)
	})

	t.Run("recover account on a working device", func(t *testing.T) {
		a, recoveryKey := h.account(t)
		identity, err := a.Identity()
		require.NoError(t, err)
		_, _, nextHash := recovery(t, a)

		h.misbound(t, a, func() error { return a.RecoverAccount(ctx, identity, recoveryKey, nextHash) })
		require.NoError(t, a.RotateDevice(ctx))
		usable(t, a)
	})

	t.Run("link device", func(t *testing.T) {
		a, _ := h.account(t)
		identity, err := a.Identity()
		require.NoError(t, err)
		b := h.client()
		container, err := b.GenerateLinkContainer(identity)
		require.NoError(t, err)

		h.misbound(t, a, func() error { return a.LinkDevice(ctx, container) })
		// The server linked and rotated; the retried rotation converges.
		require.NoError(t, a.RotateDevice(ctx))
		require.NoError(t, a.RotateDevice(ctx))
		require.NoError(t, b.CreateSession(ctx))
		usable(t, a)
	})

	t.Run("unlink device", func(t *testing.T) {
		a, _ := h.account(t)
		identity, err := a.Identity()
		require.NoError(t, err)
		b := h.client()
		container, err := b.GenerateLinkContainer(identity)
		require.NoError(t, err)
		require.NoError(t, a.LinkDevice(ctx, container))
		target, err := b.Device()
		require.NoError(t, err)

		h.misbound(t, a, func() error { return a.UnlinkDevice(ctx, target) })
		require.NoError(t, a.RotateDevice(ctx))
		assert.ErrorIs(t, b.CreateSession(ctx), autherr.ErrDeviceRevoked)
		usable(t, a)
	})

	t.Run("change recovery key", func(t *testing.T) {
		a, _ := h.account(t)
		_, _, nextHash := recovery(t, a)

		h.misbound(t, a, func() error { return a.ChangeRecoveryKey(ctx, nextHash) })
		require.NoError(t, a.RotateDevice(ctx))
		usable(t, a)
	})

	t.Run("delete account", func(t *testing.T) {
		a, _ := h.account(t)
		h.misbound(t, a, func() error { return a.DeleteAccount(ctx) })
		assert.ErrorIs(t, a.RotateDevice(ctx), autherr.ErrIdentityDeleted)
	})

	t.Run("rotate device", func(t *testing.T) {
		a, _ := h.account(t)
		before := authPublic(t, a)
		h.misbound(t, a, func() error { return a.RotateDevice(ctx) })

		// The server already moved on; the retry presents the same key and
		// both sides converge.
		require.NoError(t, a.RotateDevice(ctx))
		assert.NotEqual(t, before, authPublic(t, a))
		require.NoError(t, a.RotateDevice(ctx))
	})

	t.Run("refresh session", func(t *testing.T) {
		a, _ := h.account(t)
		h.misbound(t, a, func() error { return a.RefreshSession(ctx) })

		// The kept token still signs with the kept access key.
		_, err := echo(ctx, a, map[string]any{})
		require.NoError(t, err)
	})

	t.Run("create session", func(t *testing.T) {
		a, _ := h.account(t)
		h.misbound(t, a, func() error { return a.CreateSession(ctx) })
		usable(t, a)
		require.NoError(t, a.CreateSession(ctx))
	})
}

func TestRecoverAccount_WrongKeyKeepsDevice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{})
	a, _ := h.account(t)
	identity, err := a.Identity()
	require.NoError(t, err)
	before := snapshot(t, a)

	_, wrongKey, nextHash := recovery(t, a)
	assert.ErrorIs(t, a.RecoverAccount(ctx, identity, wrongKey, nextHash), autherr.ErrInvalidHash)
	assert.Equal(t, before, snapshot(t, a))
	require.NoError(t, a.RotateDevice(ctx))
	usable(t, a)
}

func TestGenerateLinkContainer_RefusesRegisteredClient(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{})
	a, _ := h.account(t)
	before := snapshot(t, a)

	_, err := a.GenerateLinkContainer("Esomeone-else")
	assert.ErrorIs(t, err, autherr.ErrInvalidState)
	assert.Equal(t, before, snapshot(t, a))
	require.NoError(t, a.RotateDevice(ctx))

	// A container already generated binds the client too.
	b := h.client()
	identity, err := a.Identity()
	require.NoError(t, err)
	_, err = b.GenerateLinkContainer(identity)
	require.NoError(t, err)
	_, err = b.GenerateLinkContainer(identity)
	assert.ErrorIs(t, err, autherr.ErrInvalidState)
}

func TestLinkDevice_ChecksContainerBeforeRevealingNextKey(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{})
	a, _ := h.account(t)
	identity, err := a.Identity()
	require.NoError(t, err)
	container, err := h.client().GenerateLinkContainer(identity)
	require.NoError(t, err)

	tamper := func(edit func(*messages.DeviceAuthentication)) string {
		link, err := messages.DecodeLinkContainer([]byte(container))
		require.NoError(t, err)
		edit(&link.Payload.Authentication)
		out, err := link.Serialize()
		require.NoError(t, err)
		return string(out)
	}
	commitment := a.Wire().Auth.Keys.(*keys.Commitment)

	tests := []struct {
		name      string
		container string
		want      error
	}{
		{"edited rotation hash", tamper(func(l *messages.DeviceAuthentication) { l.RotationHash = "Etampered" }), autherr.ErrSignatureVerificationFailed},
		{"foreign device id", tamper(func(l *messages.DeviceAuthentication) { l.Device = "Eforeign" }), autherr.ErrInvalidDevice},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, a.LinkDevice(ctx, tc.container), tc.want)
			assert.Nil(t, commitment.Snapshot().Future)
		})
	}
	require.NoError(t, a.LinkDevice(ctx, container))
}

func TestOverHTTP_FileBackedClient(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, devserver.Options{Algorithm: crypto.Ed25519})
	ts := httptest.NewServer(h.server.Router())
	defer ts.Close()

	cfg := app.Config{
		Home:       t.TempDir(),
		ServerURL:  ts.URL,
		Algorithm:  string(crypto.Ed25519),
		Passphrase: "correct horse battery staple",
		Retry:      app.RetryConfig{MaxElapsed: time.Second},
		RateLimit:  app.RateLimitConfig{PerSecond: 100, Burst: 10},
	}
	a, err := app.New(cfg)
	require.NoError(t, err)
	defer a.Close()

	serverIdentity, fingerprint, err := a.TrustServer(ctx, devserver.KeyPath)
	require.NoError(t, err)
	assert.Equal(t, h.server.Identity(), serverIdentity)
	assert.Equal(t, crypto.Fingerprint(h.server.ResponsePublicKey()), fingerprint)

	_, _, recoveryHash := recovery(t, a)
	identity, err := a.CreateAccount(ctx, recoveryHash)
	require.NoError(t, err)
	require.NoError(t, a.CreateSession(ctx))
	require.NoError(t, a.RotateDevice(ctx))

	// State survives reopening the home directory.
	reopened, err := app.New(cfg)
	require.NoError(t, err)
	defer reopened.Close()
	stored, err := reopened.Identity()
	require.NoError(t, err)
	assert.Equal(t, identity, stored)
	assert.Equal(t, authPublic(t, a), authPublic(t, reopened))

	got, err := echo(ctx, reopened, map[string]any{"over": "http"})
	require.NoError(t, err)
	assert.Equal(t, "http", got["over"])
	require.NoError(t, reopened.RefreshSession(ctx))

	// Server errors arrive in the wire taxonomy.
	_, err = reopened.CreateAccount(ctx, recoveryHash)
	assert.ErrorIs(t, err, autherr.ErrInvalidState)
	_, err = app.Request[map[string]any, map[string]any](ctx, reopened, "/missing", map[string]any{})
	assert.Error(t, err)
}
