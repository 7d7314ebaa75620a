package account

import (
	"context"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
	"betterauth/internal/protocol/messages"
	"betterauth/internal/services/flow"
)

// Service runs the account lifecycle flows.
//
// Every flow signs with the authentication role and commits identity, device
// or key rotation only after the server reply is verified:
//   - CreateAccount registers a fresh identity with its recovery hash.
//   - RecoverAccount re-keys an identity with the recovery key.
//   - DeleteAccount removes the identity on the server.
//   - ChangeRecoveryKey replaces the recovery hash.
type Service struct {
	run      *flow.Runner
	auth     *flow.Role
	hasher   domain.Hasher
	identity domain.ClientValueStore
	device   domain.ClientValueStore
	paths    domain.AccountPaths
	recovery domain.RecoveryPaths
}

// New constructs an account Service.
func New(
	run *flow.Runner,
	auth *flow.Role,
	hasher domain.Hasher,
	identity domain.ClientValueStore,
	device domain.ClientValueStore,
	paths domain.Paths,
) *Service {
	return &Service{
		run:      run,
		auth:     auth,
		hasher:   hasher,
		identity: identity,
		device:   device,
		paths:    paths.Account,
		recovery: paths.Recovery,
	}
}

// CreateAccount stages fresh authentication keys, registers the derived
// identity with recoveryHash and, once the server accepts, commits the keys
// and stores identity and device.
//
// It refuses to run when an identity is already stored, so a second call can
// never silently reuse or overwrite a registered account.
func (s *Service) CreateAccount(ctx context.Context, recoveryHash string) (_ string, err error) {
	done := s.run.Track(messages.FlowCreateAccount)
	defer func() { done(err) }()

	if recoveryHash == "" {
		return "", autherr.InvalidMessage("recoveryHash", "recovery hash is required")
	}

	s.auth.Lock()
	defer s.auth.Unlock()

	if err := flow.RequireNoIdentity(s.identity); err != nil {
		return "", err
	}

	staged, err := s.auth.Keys.Stage(recoveryHash)
	if err != nil {
		return "", err
	}
	identity := staged.Identity()
	device := s.hasher.Sum([]byte(staged.PublicKey()))

	request := messages.CreateAccountRequest{
		Authentication: messages.RecoveryCommitment{
			Device:       device,
			Identity:     identity,
			PublicKey:    staged.PublicKey(),
			RecoveryHash: recoveryHash,
			RotationHash: staged.RotationHash(),
		},
	}
	if _, err := flow.Exchange(ctx, s.run, s.paths.Create, staged.Signer(), request, messages.DecodeEmptyResponse); err != nil {
		return "", err
	}

	if err := flow.CommitDevice(staged, s.identity, s.device, identity, device); err != nil {
		return "", err
	}
	return identity, nil
}

// RecoverAccount proves control of identity with recoveryKey, registers
// freshly staged authentication keys as a new device and replaces the
// recovery hash with nextRecoveryHash. The keys, identity and device of this
// client change only after the server accepts.
func (s *Service) RecoverAccount(
	ctx context.Context,
	identity string,
	recoveryKey domain.SigningKey,
	nextRecoveryHash string,
) (err error) {
	done := s.run.Track(messages.FlowRecoverAccount)
	defer func() { done(err) }()

	switch {
	case identity == "":
		return autherr.InvalidMessage("identity", "identity is required")
	case recoveryKey == nil:
		return autherr.InvalidMessage("recoveryKey", "recovery key is required")
	case nextRecoveryHash == "":
		return autherr.InvalidMessage("recoveryHash", "next recovery hash is required")
	}
	recoveryPublic, err := recoveryKey.Public()
	if err != nil {
		return autherr.Wrap(autherr.KindRecovery, err)
	}

	s.auth.Lock()
	defer s.auth.Unlock()

	staged, err := s.auth.Keys.Stage("")
	if err != nil {
		return err
	}
	device := s.hasher.Sum([]byte(staged.PublicKey()))

	request := messages.RecoverAccountRequest{
		Authentication: messages.RecoveryAuthentication{
			Device:       device,
			Identity:     identity,
			PublicKey:    staged.PublicKey(),
			RecoveryHash: nextRecoveryHash,
			RecoveryKey:  recoveryPublic,
			RotationHash: staged.RotationHash(),
		},
	}
	if _, err := flow.Exchange(ctx, s.run, s.paths.Recover, recoveryKey, request, messages.DecodeEmptyResponse); err != nil {
		return err
	}
	return flow.CommitDevice(staged, s.identity, s.device, identity, device)
}

// DeleteAccount deletes the stored identity on the server. The key
// commitment is still advanced so local state matches the server's last
// view, and the local identifiers are cleared when the stores support it.
func (s *Service) DeleteAccount(ctx context.Context) (err error) {
	done := s.run.Track(messages.FlowDeleteAccount)
	defer func() { done(err) }()

	s.auth.Lock()
	defer s.auth.Unlock()

	authentication, next, err := flow.Authenticate(s.auth.Keys, s.identity, s.device)
	if err != nil {
		return err
	}
	request := messages.DeleteAccountRequest{Authentication: authentication}
	if _, err := flow.Exchange(ctx, s.run, s.paths.Delete, next.Signer, request, messages.DecodeEmptyResponse); err != nil {
		return err
	}
	if err := s.auth.Keys.Rotate(); err != nil {
		return err
	}

	for _, v := range []domain.ClientValueStore{s.identity, s.device} {
		if c, ok := v.(domain.ClearableValueStore); ok {
			if err := c.Clear(); err != nil {
				return err
			}
		}
	}
	return nil
}

// ChangeRecoveryKey replaces the recovery hash registered for the identity.
func (s *Service) ChangeRecoveryKey(ctx context.Context, recoveryHash string) (err error) {
	done := s.run.Track(messages.FlowChangeRecoveryKey)
	defer func() { done(err) }()

	if recoveryHash == "" {
		return autherr.InvalidMessage("recoveryHash", "recovery hash is required")
	}

	s.auth.Lock()
	defer s.auth.Unlock()

	authentication, next, err := flow.Authenticate(s.auth.Keys, s.identity, s.device)
	if err != nil {
		return err
	}
	request := messages.ChangeRecoveryKeyRequest{
		Authentication: messages.RecoveryCommitment{
			Device:       authentication.Device,
			Identity:     authentication.Identity,
			PublicKey:    authentication.PublicKey,
			RecoveryHash: recoveryHash,
			RotationHash: authentication.RotationHash,
		},
	}
	if _, err := flow.Exchange(ctx, s.run, s.recovery.Change, next.Signer, request, messages.DecodeEmptyResponse); err != nil {
		return err
	}
	return s.auth.Keys.Rotate()
}

// Compile-time assertion that Service implements domain.AccountService.
var _ domain.AccountService = (*Service)(nil)
