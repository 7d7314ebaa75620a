package devserver

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"betterauth/internal/autherr"
	"betterauth/internal/crypto"
	"betterauth/internal/domain"
	"betterauth/internal/domain/types"
	"betterauth/internal/metrics"
	"betterauth/internal/protocol/envelope"
	"betterauth/internal/protocol/token"
	"betterauth/internal/timestamp"
	"betterauth/internal/tokenenc"
)

// Extra routes served next to the protocol paths.
const (
	KeyPath      = "/key/response"
	EchoPath     = "/foo/bar"
	BadNoncePath = "/bad/nonce"
)

// Options configures a Server. Zero values take defaults.
type Options struct {
	Algorithm         crypto.Algorithm
	Paths             domain.Paths
	AccessLifetime    time.Duration
	RefreshLifetime   time.Duration
	NonceLifetime     time.Duration
	ChallengeLifetime time.Duration
	Clock             func() time.Time
	Attributes        domain.Attributes
	Metrics           *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.Algorithm == "" {
		o.Algorithm = crypto.P256
	}
	o.Paths = o.Paths.Merge(domain.DefaultPaths())
	if o.AccessLifetime <= 0 {
		o.AccessLifetime = 15 * time.Minute
	}
	if o.RefreshLifetime <= 0 {
		o.RefreshLifetime = 12 * time.Hour
	}
	if o.NonceLifetime <= 0 {
		o.NonceLifetime = 30 * time.Second
	}
	if o.ChallengeLifetime <= 0 {
		o.ChallengeLifetime = time.Minute
	}
	if o.Attributes == nil {
		o.Attributes = domain.Attributes{"permissions": []string{"read", "write"}}
	}
	return o
}

type handler func(ctx context.Context, body []byte) ([]byte, error)

// Server is an in-memory reference implementation of the server side of the
// protocol. All state is lost when it is dropped.
type Server struct {
	opts        Options
	hasher      domain.Hasher
	noncer      domain.Noncer
	timestamper domain.Timestamper
	encoder     domain.TokenEncoder
	verifier    domain.Verifier

	responseKey crypto.PrivateKey
	tokenKey    crypto.PrivateKey
	identity    string

	registry   *Registry
	nonces     *TimeLock
	refreshed  *TimeLock
	challenges *challenges
	access     *AccessVerifier

	routes   map[string]handler
	misbind  atomic.Bool
	requests atomic.Int64
}

// New generates the server's response and token keys and builds the route
// table.
func New(opts Options) (*Server, error) {
	opts = opts.withDefaults()
	responseKey, err := crypto.Generate(opts.Algorithm)
	if err != nil {
		return nil, err
	}
	tokenKey, err := crypto.Generate(opts.Algorithm)
	if err != nil {
		return nil, err
	}
	responsePublic, err := responseKey.Public()
	if err != nil {
		return nil, err
	}
	tokenPublic, err := tokenKey.Public()
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:        opts,
		hasher:      crypto.Blake3{},
		noncer:      crypto.Noncer{},
		timestamper: timestamp.RFC3339Nano{Clock: opts.Clock},
		encoder:     tokenenc.Gzip{},
		verifier:    crypto.Verifiers{},
		responseKey: responseKey,
		tokenKey:    tokenKey,
		registry:    NewRegistry(),
		nonces:      NewTimeLock(opts.NonceLifetime),
		refreshed:   NewTimeLock(opts.RefreshLifetime),
		challenges:  newChallenges(opts.ChallengeLifetime),
	}
	s.identity = s.hasher.Sum([]byte(responsePublic))
	s.access = &AccessVerifier{
		Verifier:    s.verifier,
		TokenKey:    crypto.PublicKey(tokenPublic),
		Encoder:     s.encoder,
		Timestamper: s.timestamper,
		Nonces:      s.nonces,
		Registry:    s.registry,
	}

	p := opts.Paths
	s.routes = map[string]handler{
		p.Account.Create:  s.createAccount,
		p.Account.Recover: s.recoverAccount,
		p.Account.Delete:  s.deleteAccount,
		p.Recovery.Change: s.changeRecoveryKey,
		p.Device.Link:     s.linkDevice,
		p.Device.Unlink:   s.unlinkDevice,
		p.Device.Rotate:   s.rotateDevice,
		p.Session.Request: s.requestSession,
		p.Session.Create:  s.createSession,
		p.Session.Refresh: s.refreshSession,
		EchoPath:          s.echo,
		BadNoncePath:      s.badNonce,
	}
	return s, nil
}

// Identity is the server identity named in every response.
func (s *Server) Identity() string { return s.identity }

// ResponsePublicKey is the key that signs responses.
func (s *Server) ResponsePublicKey() string {
	pub, _ := s.responseKey.Public()
	return pub
}

// Registry exposes the account registry.
func (s *Server) Registry() *Registry { return s.registry }

// Requests counts handled requests.
func (s *Server) Requests() int64 { return s.requests.Load() }

// MisbindNonces makes every later response carry a fresh nonce instead of
// the request nonce, for exercising client nonce binding.
func (s *Server) MisbindNonces(on bool) { s.misbind.Store(on) }

// Handle dispatches one serialized request to the handler for path.
func (s *Server) Handle(ctx context.Context, path string, body []byte) (out []byte, err error) {
	s.requests.Add(1)
	logger := log.WithField("route", path)
	defer func() {
		s.opts.Metrics.ObserveServer(path, err)
		if err != nil {
			logger.WithField("code", autherr.KindOf(err).Code()).Debug("request rejected")
		}
	}()

	h, ok := s.routes[path]
	if !ok {
		return nil, autherr.NotFound("route " + path)
	}
	if err := ctx.Err(); err != nil {
		return nil, autherr.Timeout(err)
	}
	return h(ctx, body)
}

// reply signs response under nonce with the response key.
func reply[T any](s *Server, nonce string, response T) ([]byte, error) {
	if s.misbind.Load() {
		fresh, err := s.noncer.Generate128()
		if err != nil {
			return nil, autherr.Wrap(autherr.KindInvalidState, err)
		}
		nonce = fresh
	}
	env := envelope.NewResponse(nonce, s.identity, response)
	if err := env.Sign(s.responseKey); err != nil {
		return nil, err
	}
	return env.Serialize()
}

// issue signs a token for identity bound to the given access key.
func (s *Server) issue(identity, publicKey, rotationHash string, attributes domain.Attributes) (string, error) {
	now := s.timestamper.Now()
	claims := types.TokenClaims[domain.Attributes]{
		Identity:      identity,
		PublicKey:     publicKey,
		RotationHash:  rotationHash,
		IssuedAt:      s.timestamper.Format(now),
		Expiry:        s.timestamper.Format(now.Add(s.opts.AccessLifetime)),
		RefreshExpiry: s.timestamper.Format(now.Add(s.opts.RefreshLifetime)),
		Attributes:    attributes,
	}
	return token.Issue(claims, s.tokenKey, s.encoder)
}
