package app

import (
	"fmt"
	"net/http"
	"os"

	"betterauth/internal/crypto"
	"betterauth/internal/domain"
	"betterauth/internal/keys"
	"betterauth/internal/metrics"
	accesssvc "betterauth/internal/services/access"
	accountsvc "betterauth/internal/services/account"
	devicesvc "betterauth/internal/services/device"
	"betterauth/internal/services/flow"
	sessionsvc "betterauth/internal/services/session"
	"betterauth/internal/store"
	"betterauth/internal/timestamp"
	"betterauth/internal/tokenenc"
	"betterauth/internal/transport"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Identity domain.ClearableValueStore
	Device   domain.ClearableValueStore
	Token    domain.ClearableValueStore

	Auth   *flow.Role
	Access *flow.Role

	Accounts *accountsvc.Service
	Devices  *devicesvc.Service
	Sessions *sessionsvc.Service
	Client   *accesssvc.Client

	// Transport is nil when Config.Network replaced it.
	Transport *transport.HTTP
	// Pins is nil when Config.ServerKeys replaced the pinned key file.
	Pins *store.ServerKeyFileStore

	Algorithm   crypto.Algorithm
	Hasher      domain.Hasher
	Timestamper domain.Timestamper
	Metrics     *metrics.Metrics
	HTTP        *http.Client
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	alg, err := crypto.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	w := &Wire{
		Algorithm:   alg,
		Hasher:      crypto.Blake3{},
		Timestamper: timestamp.RFC3339Nano{Clock: cfg.Clock},
		Metrics:     metrics.New(cfg.Registerer),
	}

	// Value and key stores
	var authKeys, accessKeys domain.ClientRotatingKeyStore
	if cfg.InMemory {
		w.Identity = store.NewMemoryValueStore(store.IdentityFilename)
		w.Device = store.NewMemoryValueStore(store.DeviceFilename)
		w.Token = store.NewMemoryValueStore(store.TokenFilename)
		authKeys = keys.New(alg, w.Hasher)
		accessKeys = keys.New(alg, w.Hasher)
	} else {
		if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
			return nil, fmt.Errorf("create home: %w", err)
		}
		w.Identity = store.NewValueFileStore(cfg.Home, store.IdentityFilename)
		w.Device = store.NewValueFileStore(cfg.Home, store.DeviceFilename)
		w.Token = store.NewValueFileStore(cfg.Home, store.TokenFilename)
		if authKeys, err = store.OpenKeyFileStore(cfg.Home, domain.RoleAuthentication, cfg.Passphrase, alg, w.Hasher); err != nil {
			return nil, fmt.Errorf("open authentication keys: %w", err)
		}
		if accessKeys, err = store.OpenKeyFileStore(cfg.Home, domain.RoleAccess, cfg.Passphrase, alg, w.Hasher); err != nil {
			return nil, fmt.Errorf("open access keys: %w", err)
		}
	}
	w.Auth = flow.NewRole(authKeys)
	w.Access = flow.NewRole(accessKeys)

	// Pinned server response keys
	serverKeys := cfg.ServerKeys
	if serverKeys == nil {
		if cfg.InMemory {
			return nil, fmt.Errorf("in-memory clients need explicit server keys")
		}
		w.Pins = store.NewServerKeyFileStore(cfg.Home)
		serverKeys = w.Pins
	}

	// Transport (uses provided HTTP client)
	w.HTTP = cfg.HTTP
	if w.HTTP == nil {
		w.HTTP = &http.Client{Timeout: cfg.Timeout}
	}
	network := cfg.Network
	if network == nil {
		opts := []transport.Option{
			transport.WithHTTPClient(w.HTTP),
			transport.WithMetrics(w.Metrics),
		}
		if cfg.Retry.MaxElapsed > 0 {
			opts = append(opts, transport.WithRetry(cfg.Retry.InitialInterval, cfg.Retry.MaxElapsed))
		}
		if cfg.RateLimit.PerSecond > 0 {
			opts = append(opts, transport.WithRateLimit(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst))
		}
		w.Transport = transport.NewHTTP(cfg.ServerURL, opts...)
		network = w.Transport
	}

	run := &flow.Runner{
		Network:    network,
		Noncer:     crypto.Noncer{},
		ServerKeys: serverKeys,
		Metrics:    w.Metrics,
	}

	// High-level services
	verifier := crypto.Verifiers{}
	encoder := tokenenc.Gzip{}
	w.Accounts = accountsvc.New(run, w.Auth, w.Hasher, w.Identity, w.Device, cfg.Paths)
	w.Devices = devicesvc.New(run, w.Auth, w.Hasher, verifier, w.Identity, w.Device, cfg.Paths)
	w.Sessions = sessionsvc.New(run, w.Auth, w.Access, w.Identity, w.Device, sessionsvc.Tokens{
		Store:       w.Token,
		Timestamper: w.Timestamper,
		Verifier:    verifier,
		Encoder:     encoder,
	}, cfg.Paths)
	w.Client = accesssvc.New(run, w.Access, w.Token, w.Timestamper, verifier, encoder)
	return w, nil
}
