package session

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
	"betterauth/internal/protocol/messages"
	"betterauth/internal/protocol/token"
	"betterauth/internal/services/flow"
)

// Service obtains and refreshes access tokens.
//
// A session is an access key commitment plus the token the server issued for
// its current key. This service handles:
//   - Requesting a challenge nonce for the stored identity.
//   - Answering it with the authentication key while committing a fresh
//     access key.
//   - Refreshing the token by revealing the next access key.
//   - Persisting each token after it has been checked against the key it
//     was issued for.
type Service struct {
	run         *flow.Runner
	auth        *flow.Role
	access      *flow.Role
	identity    domain.ClientValueStore
	device      domain.ClientValueStore
	token       domain.ClientValueStore
	timestamper domain.Timestamper
	verifier    domain.Verifier
	encoder     domain.TokenEncoder
	paths       domain.SessionPaths
}

// Tokens groups what is needed to decode and check access tokens locally.
type Tokens struct {
	Store       domain.ClientValueStore
	Timestamper domain.Timestamper
	Verifier    domain.Verifier
	Encoder     domain.TokenEncoder
}

// New constructs a session Service.
func New(
	run *flow.Runner,
	auth, access *flow.Role,
	identity, device domain.ClientValueStore,
	tokens Tokens,
	paths domain.Paths,
) *Service {
	return &Service{
		run:         run,
		auth:        auth,
		access:      access,
		identity:    identity,
		device:      device,
		token:       tokens.Store,
		timestamper: tokens.Timestamper,
		verifier:    tokens.Verifier,
		encoder:     tokens.Encoder,
		paths:       paths.Session,
	}
}

// CreateSession runs the two-step session handshake.
//
// Steps:
//  1. Send an unsigned session request naming the identity and receive a
//     challenge nonce.
//  2. Stage fresh access keys.
//  3. Sign the challenge answer, committing the new access key, with the
//     current authentication key.
//  4. Check the issued token names the new access key and is fresh, then
//     store it and commit the staged keys.
//
// Until step 4 the previous token and access keys stay in place and usable.
func (s *Service) CreateSession(ctx context.Context) (err error) {
	identity, err := s.identity.Get()
	if err != nil {
		return err
	}
	challenge, err := s.requestSession(ctx, identity)
	if err != nil {
		return err
	}

	done := s.run.Track(messages.FlowCreateSession)
	defer func() { done(err) }()

	s.access.Lock()
	defer s.access.Unlock()
	s.auth.RLock()
	defer s.auth.RUnlock()

	device, err := s.device.Get()
	if err != nil {
		return err
	}
	signer, err := s.auth.Keys.Signer()
	if err != nil {
		return err
	}
	staged, err := s.access.Keys.Stage("")
	if err != nil {
		return err
	}

	request := messages.CreateSessionRequest{
		Access: messages.SessionKey{PublicKey: staged.PublicKey(), RotationHash: staged.RotationHash()},
		Authentication: messages.ChallengeAnswer{
			Device: device,
			Nonce:  challenge,
		},
	}
	resp, err := flow.Exchange(ctx, s.run, s.paths.Create, signer, request, messages.DecodeSessionResponse)
	if err != nil {
		return err
	}
	issued, err := s.checkIssued(resp.Access.Token, identity, staged.PublicKey())
	if err != nil {
		return err
	}
	return s.install(issued, staged.Commit)
}

func (s *Service) requestSession(ctx context.Context, identity string) (_ string, err error) {
	done := s.run.Track(messages.FlowRequestSession)
	defer func() { done(err) }()

	request := messages.RequestSessionRequest{
		Authentication: messages.SessionIdentity{Identity: identity},
	}
	resp, err := flow.ExchangeUnsigned(ctx, s.run, s.paths.Request, request, messages.DecodeRequestSessionResponse)
	if err != nil {
		return "", err
	}
	if resp.Authentication.Nonce == "" {
		return "", autherr.InvalidMessage("authentication.nonce", "challenge nonce is missing")
	}
	return resp.Authentication.Nonce, nil
}

// RefreshSession exchanges the stored token for a new one bound to the next
// access key, then stores the new token and rotates the access keys.
func (s *Service) RefreshSession(ctx context.Context) (err error) {
	done := s.run.Track(messages.FlowRefreshSession)
	defer func() { done(err) }()

	s.access.Lock()
	defer s.access.Unlock()

	raw, err := s.token.Get()
	if err != nil {
		return err
	}
	current, err := token.Parse[domain.Attributes](raw, s.verifier.SignatureLength(), s.encoder)
	if err != nil {
		return err
	}
	if err := current.CheckRefreshable(s.timestamper); err != nil {
		return err
	}

	next, err := flow.Reveal(s.access.Keys)
	if err != nil {
		return err
	}
	request := messages.RefreshSessionRequest{
		Access: messages.RefreshKey{
			PublicKey:    next.PublicKey,
			RotationHash: next.RotationHash,
			Token:        raw,
		},
	}
	resp, err := flow.Exchange(ctx, s.run, s.paths.Refresh, next.Signer, request, messages.DecodeSessionResponse)
	if err != nil {
		return err
	}
	issued, err := s.checkIssued(resp.Access.Token, current.Claims.Identity, next.PublicKey)
	if err != nil {
		return err
	}
	return s.install(issued, s.access.Keys.Rotate)
}

// install stores issued and then runs commit, which moves the access keys to
// the ones issued is bound to. When commit fails the previous token is put
// back, so token and keys keep matching. Callers hold the access write lock.
func (s *Service) install(issued string, commit func() error) error {
	previous, err := s.token.Get()
	if err != nil && !errors.Is(err, autherr.ErrNotFound) {
		return err
	}
	if err := s.token.Store(issued); err != nil {
		return err
	}
	if err := commit(); err != nil {
		var restore error
		if previous != "" {
			restore = s.token.Store(previous)
		} else if c, ok := s.token.(domain.ClearableValueStore); ok {
			restore = c.Clear()
		}
		if restore != nil {
			return multierror.Append(err, restore)
		}
		return err
	}
	return nil
}

// Token returns the stored access token.
func (s *Service) Token() (string, error) { return s.token.Get() }

// checkIssued decodes a freshly issued token and checks it was issued for
// identity and publicKey.
func (s *Service) checkIssued(raw, identity, publicKey string) (string, error) {
	issued, err := token.Parse[domain.Attributes](raw, s.verifier.SignatureLength(), s.encoder)
	if err != nil {
		return "", err
	}
	if issued.Claims.Identity != identity {
		return "", autherr.InvalidToken("token identity " + autherr.Truncate(issued.Claims.Identity) +
			" does not match " + autherr.Truncate(identity))
	}
	if issued.Claims.PublicKey != publicKey {
		return "", autherr.InvalidToken("token is not bound to the access key")
	}
	if err := issued.CheckFresh(s.timestamper); err != nil {
		return "", err
	}
	return raw, nil
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
