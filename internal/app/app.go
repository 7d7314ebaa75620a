package app

import (
	"context"
	"errors"

	"betterauth/internal/autherr"
	"betterauth/internal/crypto"
	"betterauth/internal/domain"
	accesssvc "betterauth/internal/services/access"
	"betterauth/internal/transport"
)

// App is the client facade used by the CLI and by embedding programs.
type App struct {
	w *Wire
}

// New builds an App from cfg.
func New(cfg Config) (*App, error) {
	w, err := NewWire(cfg)
	if err != nil {
		return nil, err
	}
	return &App{w: w}, nil
}

// Wire exposes the underlying dependency graph.
func (a *App) Wire() *Wire { return a.w }

func (a *App) Identity() (string, error) { return a.w.Identity.Get() }

func (a *App) Device() (string, error) { return a.w.Device.Get() }

func (a *App) Token() (string, error) { return a.w.Token.Get() }

// RecoveryKey derives the recovery signing key behind mnemonic and returns it
// with its hash, the value committed to the server.
func (a *App) RecoveryKey(mnemonic, passphrase string) (domain.SigningKey, string, error) {
	key, err := crypto.RecoveryKey(a.w.Algorithm, mnemonic, passphrase)
	if err != nil {
		return nil, "", err
	}
	pub, err := key.Public()
	if err != nil {
		return nil, "", err
	}
	return key, a.w.Hasher.Sum([]byte(pub)), nil
}

func (a *App) CreateAccount(ctx context.Context, recoveryHash string) (string, error) {
	return a.w.Accounts.CreateAccount(ctx, recoveryHash)
}

func (a *App) RecoverAccount(ctx context.Context, identity string, recoveryKey domain.SigningKey, nextRecoveryHash string) error {
	return a.w.Accounts.RecoverAccount(ctx, identity, recoveryKey, nextRecoveryHash)
}

func (a *App) DeleteAccount(ctx context.Context) error {
	return a.w.Accounts.DeleteAccount(ctx)
}

func (a *App) ChangeRecoveryKey(ctx context.Context, recoveryHash string) error {
	return a.w.Accounts.ChangeRecoveryKey(ctx, recoveryHash)
}

func (a *App) GenerateLinkContainer(identity string) (string, error) {
	return a.w.Devices.GenerateLinkContainer(identity)
}

func (a *App) LinkDevice(ctx context.Context, container string) error {
	return a.w.Devices.LinkDevice(ctx, container)
}

func (a *App) UnlinkDevice(ctx context.Context, device string) error {
	return a.w.Devices.UnlinkDevice(ctx, device)
}

func (a *App) RotateDevice(ctx context.Context) error {
	return a.w.Devices.RotateDevice(ctx)
}

func (a *App) CreateSession(ctx context.Context) error {
	return a.w.Sessions.CreateSession(ctx)
}

func (a *App) RefreshSession(ctx context.Context) error {
	return a.w.Sessions.RefreshSession(ctx)
}

// ErrNoTransport is returned by TrustServer when the client was built with
// a custom Network or custom server keys.
var ErrNoTransport = errors.New("server keys are not fetched over http in this configuration")

// TrustServer fetches the server response key from path and pins it. It
// returns the server identity and the key fingerprint for the user to compare.
func (a *App) TrustServer(ctx context.Context, path string) (identity, fingerprint string, err error) {
	if a.w.Transport == nil || a.w.Pins == nil {
		return "", "", ErrNoTransport
	}
	var key transport.KeyResponse
	if key, err = a.w.Transport.FetchServerKey(ctx, path); err != nil {
		return "", "", err
	}
	if calculated := a.w.Hasher.Sum([]byte(key.PublicKey)); calculated != key.Identity {
		return "", "", autherr.InvalidIdentity("server identity " + autherr.Truncate(key.Identity) +
			" is not the hash of its response key")
	}
	if err := a.w.Pins.Pin(key.Identity, key.PublicKey); err != nil {
		return "", "", err
	}
	return key.Identity, crypto.Fingerprint(key.PublicKey), nil
}

// Close releases idle transport connections.
func (a *App) Close() {
	a.w.HTTP.CloseIdleConnections()
}

// Request sends an application request to path under the current access
// token and returns the verified response body.
func Request[Req, Resp any](ctx context.Context, a *App, path string, request Req) (Resp, error) {
	return accesssvc.Request[Req, Resp](ctx, a.w.Client, path, request)
}

// Compile-time assertions that App serves every client flow.
var (
	_ domain.AccountService = (*App)(nil)
	_ domain.DeviceService  = (*App)(nil)
	_ domain.SessionService = (*App)(nil)
)
