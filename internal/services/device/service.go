package device

import (
	"context"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
	"betterauth/internal/protocol/envelope"
	"betterauth/internal/protocol/messages"
	"betterauth/internal/services/flow"
)

// Service links, unlinks and rotates devices of an identity.
type Service struct {
	run      *flow.Runner
	auth     *flow.Role
	hasher   domain.Hasher
	verifier domain.Verifier
	identity domain.ClientValueStore
	device   domain.ClientValueStore
	paths    domain.DevicePaths
}

// New constructs a device Service.
func New(
	run *flow.Runner,
	auth *flow.Role,
	hasher domain.Hasher,
	verifier domain.Verifier,
	identity domain.ClientValueStore,
	device domain.ClientValueStore,
	paths domain.Paths,
) *Service {
	return &Service{
		run:      run,
		auth:     auth,
		hasher:   hasher,
		verifier: verifier,
		identity: identity,
		device:   device,
		paths:    paths.Device,
	}
}

// GenerateLinkContainer runs on the device being added. It generates the
// authentication keys, stores identity and the new device id, and returns a
// container signed by the new key for an existing device to submit.
//
// A client that already holds an identity is refused: its keys are
// registered and replacing them would orphan that device.
func (s *Service) GenerateLinkContainer(identity string) (string, error) {
	if identity == "" {
		return "", autherr.InvalidMessage("identity", "identity is required")
	}

	s.auth.Lock()
	defer s.auth.Unlock()

	if err := flow.RequireNoIdentity(s.identity); err != nil {
		return "", err
	}

	staged, err := s.auth.Keys.Stage("")
	if err != nil {
		return "", err
	}
	device := s.hasher.Sum([]byte(staged.PublicKey()))

	container := envelope.New(messages.LinkContainerPayload{
		Authentication: messages.DeviceAuthentication{
			Device:       device,
			Identity:     identity,
			PublicKey:    staged.PublicKey(),
			RotationHash: staged.RotationHash(),
		},
	})
	if err := container.Sign(staged.Signer()); err != nil {
		return "", err
	}
	out, err := container.Serialize()
	if err != nil {
		return "", err
	}

	if err := flow.CommitDevice(staged, s.identity, s.device, identity, device); err != nil {
		return "", err
	}
	return string(out), nil
}

// LinkDevice runs on an existing device and submits container, counter-signed
// by this device's next authentication key. The container must name this
// identity, carry a device id derived from its key and be signed by that key
// before the next key is revealed. The local key commitment rotates once the
// server accepts.
func (s *Service) LinkDevice(ctx context.Context, container string) (err error) {
	done := s.run.Track(messages.FlowLinkDevice)
	defer func() { done(err) }()

	link, err := messages.DecodeLinkContainer([]byte(container))
	if err != nil {
		return err
	}

	s.auth.Lock()
	defer s.auth.Unlock()

	if err := s.checkContainer(link); err != nil {
		return err
	}
	authentication, next, err := flow.Authenticate(s.auth.Keys, s.identity, s.device)
	if err != nil {
		return err
	}

	request := messages.LinkDeviceRequest{Authentication: authentication, Link: *link}
	if _, err := flow.Exchange(ctx, s.run, s.paths.Link, next.Signer, request, messages.DecodeEmptyResponse); err != nil {
		return err
	}
	return s.auth.Keys.Rotate()
}

// checkContainer verifies link against the stored identity.
func (s *Service) checkContainer(link *messages.LinkContainer) error {
	l := link.Payload.Authentication
	identity, err := s.identity.Get()
	if err != nil {
		return err
	}
	if l.Identity != identity {
		return autherr.MismatchedIdentities(l.Identity, identity)
	}
	if calculated := s.hasher.Sum([]byte(l.PublicKey)); calculated != l.Device {
		return autherr.InvalidDevice(l.Device, calculated)
	}
	return link.Verify(s.verifier, l.PublicKey)
}

// UnlinkDevice revokes target, which may be any device of the identity.
func (s *Service) UnlinkDevice(ctx context.Context, target string) (err error) {
	done := s.run.Track(messages.FlowUnlinkDevice)
	defer func() { done(err) }()

	if target == "" {
		return autherr.InvalidMessage("link.device", "device is required")
	}

	s.auth.Lock()
	defer s.auth.Unlock()

	authentication, next, err := flow.Authenticate(s.auth.Keys, s.identity, s.device)
	if err != nil {
		return err
	}
	request := messages.UnlinkDeviceRequest{
		Authentication: authentication,
		Link:           messages.UnlinkTarget{Device: target},
	}
	if _, err := flow.Exchange(ctx, s.run, s.paths.Unlink, next.Signer, request, messages.DecodeEmptyResponse); err != nil {
		return err
	}
	return s.auth.Keys.Rotate()
}

// RotateDevice moves the authentication key to its committed successor.
func (s *Service) RotateDevice(ctx context.Context) (err error) {
	done := s.run.Track(messages.FlowRotateDevice)
	defer func() { done(err) }()

	s.auth.Lock()
	defer s.auth.Unlock()

	authentication, next, err := flow.Authenticate(s.auth.Keys, s.identity, s.device)
	if err != nil {
		return err
	}
	request := messages.RotateDeviceRequest{Authentication: authentication}
	if _, err := flow.Exchange(ctx, s.run, s.paths.Rotate, next.Signer, request, messages.DecodeEmptyResponse); err != nil {
		return err
	}
	return s.auth.Keys.Rotate()
}

// Device returns the stored device id.
func (s *Service) Device() (string, error) { return s.device.Get() }

// Compile-time assertion that Service implements domain.DeviceService.
var _ domain.DeviceService = (*Service)(nil)
