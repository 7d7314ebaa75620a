package devserver

import (
	"context"

	"betterauth/internal/autherr"
	"betterauth/internal/protocol/messages"
)

// checkDevice enforces device == hash(publicKey).
func (s *Server) checkDevice(device, publicKey string) error {
	if calculated := s.hasher.Sum([]byte(publicKey)); calculated != device {
		return autherr.InvalidDevice(device, calculated)
	}
	return nil
}

// authorizeRotation checks a rotation-bearing request: the device must be
// live, the presented key must hash to the committed rotation hash and must
// have signed the request.
func authorizeRotation[T any](
	s *Server,
	req *messages.Request[T],
	a messages.DeviceAuthentication,
) (deviceKey, error) {
	key, err := s.registry.Device(a.Identity, a.Device)
	if err != nil {
		return deviceKey{}, err
	}
	// A retried rotation whose first reply was lost presents the key that is
	// already registered; it is accepted again so the client can commit.
	repeated := key.PublicKey == a.PublicKey && key.RotationHash == a.RotationHash
	if actual := s.hasher.Sum([]byte(a.PublicKey)); !repeated && actual != key.RotationHash {
		return deviceKey{}, autherr.InvalidHash(key.RotationHash, actual, "rotation")
	}
	if err := req.Verify(s.verifier, a.PublicKey); err != nil {
		return deviceKey{}, err
	}
	if err := s.nonces.Reserve(req.Payload.Access.Nonce); err != nil {
		return deviceKey{}, err
	}
	return key, nil
}

func (s *Server) createAccount(_ context.Context, body []byte) ([]byte, error) {
	req, err := messages.DecodeCreateAccountRequest(body)
	if err != nil {
		return nil, err
	}
	a := req.Payload.Request.Authentication
	if err := s.checkDevice(a.Device, a.PublicKey); err != nil {
		return nil, err
	}
	if identity := s.hasher.Sum([]byte(a.PublicKey + a.RotationHash + a.RecoveryHash)); identity != a.Identity {
		return nil, autherr.InvalidIdentity("identity does not match its commitment")
	}
	if err := req.Verify(s.verifier, a.PublicKey); err != nil {
		return nil, err
	}
	if err := s.nonces.Reserve(req.Payload.Access.Nonce); err != nil {
		return nil, err
	}
	if err := s.registry.Create(a.Identity, a.Device, a.PublicKey, a.RotationHash, a.RecoveryHash); err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, messages.Empty{})
}

func (s *Server) recoverAccount(_ context.Context, body []byte) ([]byte, error) {
	req, err := messages.DecodeRecoverAccountRequest(body)
	if err != nil {
		return nil, err
	}
	a := req.Payload.Request.Authentication
	recoveryHash, err := s.registry.RecoveryHash(a.Identity)
	if err != nil {
		return nil, err
	}
	if actual := s.hasher.Sum([]byte(a.RecoveryKey)); actual != recoveryHash {
		return nil, autherr.InvalidHash(recoveryHash, actual, "recovery")
	}
	if err := req.Verify(s.verifier, a.RecoveryKey); err != nil {
		return nil, err
	}
	if err := s.checkDevice(a.Device, a.PublicKey); err != nil {
		return nil, err
	}
	if err := s.nonces.Reserve(req.Payload.Access.Nonce); err != nil {
		return nil, err
	}
	if err := s.registry.SetRecoveryHash(a.Identity, recoveryHash, a.RecoveryHash); err != nil {
		return nil, err
	}
	if err := s.registry.Link(a.Identity, a.Device, a.PublicKey, a.RotationHash); err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, messages.Empty{})
}

func (s *Server) deleteAccount(_ context.Context, body []byte) ([]byte, error) {
	req, err := messages.DecodeDeleteAccountRequest(body)
	if err != nil {
		return nil, err
	}
	a := req.Payload.Request.Authentication
	key, err := authorizeRotation(s, req, a)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Rotate(a.Identity, a.Device, key, a.PublicKey, a.RotationHash); err != nil {
		return nil, err
	}
	if err := s.registry.Delete(a.Identity); err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, messages.Empty{})
}

func (s *Server) changeRecoveryKey(_ context.Context, body []byte) ([]byte, error) {
	req, err := messages.DecodeChangeRecoveryKeyRequest(body)
	if err != nil {
		return nil, err
	}
	r := req.Payload.Request.Authentication
	if r.RecoveryHash == "" {
		return nil, autherr.InvalidMessage("authentication.recoveryHash", "recovery hash is required")
	}
	a := messages.DeviceAuthentication{
		Device:       r.Device,
		Identity:     r.Identity,
		PublicKey:    r.PublicKey,
		RotationHash: r.RotationHash,
	}
	key, err := authorizeRotation(s, req, a)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Rotate(a.Identity, a.Device, key, a.PublicKey, a.RotationHash); err != nil {
		return nil, err
	}
	if err := s.registry.SetRecoveryHash(a.Identity, "", r.RecoveryHash); err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, messages.Empty{})
}

func (s *Server) linkDevice(_ context.Context, body []byte) ([]byte, error) {
	req, err := messages.DecodeLinkDeviceRequest(body)
	if err != nil {
		return nil, err
	}
	a := req.Payload.Request.Authentication
	link := req.Payload.Request.Link
	l := link.Payload.Authentication
	if l.Identity != a.Identity {
		return nil, autherr.MismatchedIdentities(l.Identity, a.Identity)
	}
	if err := s.checkDevice(l.Device, l.PublicKey); err != nil {
		return nil, err
	}
	if err := link.Verify(s.verifier, l.PublicKey); err != nil {
		return nil, err
	}
	key, err := authorizeRotation(s, req, a)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Link(l.Identity, l.Device, l.PublicKey, l.RotationHash); err != nil {
		return nil, err
	}
	if err := s.registry.Rotate(a.Identity, a.Device, key, a.PublicKey, a.RotationHash); err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, messages.Empty{})
}

func (s *Server) unlinkDevice(_ context.Context, body []byte) ([]byte, error) {
	req, err := messages.DecodeUnlinkDeviceRequest(body)
	if err != nil {
		return nil, err
	}
	a := req.Payload.Request.Authentication
	key, err := authorizeRotation(s, req, a)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Rotate(a.Identity, a.Device, key, a.PublicKey, a.RotationHash); err != nil {
		return nil, err
	}
	if err := s.registry.Revoke(a.Identity, req.Payload.Request.Link.Device); err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, messages.Empty{})
}

func (s *Server) rotateDevice(_ context.Context, body []byte) ([]byte, error) {
	req, err := messages.DecodeRotateDeviceRequest(body)
	if err != nil {
		return nil, err
	}
	a := req.Payload.Request.Authentication
	key, err := authorizeRotation(s, req, a)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Rotate(a.Identity, a.Device, key, a.PublicKey, a.RotationHash); err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, messages.Empty{})
}

func (s *Server) requestSession(_ context.Context, body []byte) ([]byte, error) {
	req, err := messages.DecodeRequestSessionRequest(body)
	if err != nil {
		return nil, err
	}
	identity := req.Payload.Request.Authentication.Identity
	if err := s.registry.Exists(identity); err != nil {
		return nil, err
	}
	if err := s.nonces.Reserve(req.Payload.Access.Nonce); err != nil {
		return nil, err
	}
	challenge, err := s.noncer.Generate128()
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidState, err)
	}
	if err := s.challenges.issue(challenge, identity); err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, messages.RequestSessionResponse{
		Authentication: messages.SessionChallenge{Nonce: challenge},
	})
}

func (s *Server) createSession(_ context.Context, body []byte) ([]byte, error) {
	req, err := messages.DecodeCreateSessionRequest(body)
	if err != nil {
		return nil, err
	}
	r := req.Payload.Request
	identity, err := s.challenges.take(r.Authentication.Nonce)
	if err != nil {
		return nil, err
	}
	key, err := s.registry.Device(identity, r.Authentication.Device)
	if err != nil {
		return nil, err
	}
	if err := req.Verify(s.verifier, key.PublicKey); err != nil {
		return nil, err
	}
	if err := s.nonces.Reserve(req.Payload.Access.Nonce); err != nil {
		return nil, err
	}
	issued, err := s.issue(identity, r.Access.PublicKey, r.Access.RotationHash, s.opts.Attributes)
	if err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, messages.SessionResponse{
		Access: messages.IssuedToken{Token: issued},
	})
}

func (s *Server) refreshSession(_ context.Context, body []byte) ([]byte, error) {
	req, err := messages.DecodeRefreshSessionRequest(body)
	if err != nil {
		return nil, err
	}
	r := req.Payload.Request.Access
	current, err := s.access.Token(r.Token)
	if err != nil {
		return nil, err
	}
	if err := current.CheckRefreshable(s.timestamper); err != nil {
		return nil, err
	}
	if err := s.registry.Exists(current.Claims.Identity); err != nil {
		return nil, err
	}
	if actual := s.hasher.Sum([]byte(r.PublicKey)); actual != current.Claims.RotationHash {
		return nil, autherr.InvalidHash(current.Claims.RotationHash, actual, "rotation")
	}
	if err := req.Verify(s.verifier, r.PublicKey); err != nil {
		return nil, err
	}
	if err := s.nonces.Reserve(req.Payload.Access.Nonce); err != nil {
		return nil, err
	}
	if err := s.refreshed.Reserve(current.Signature); err != nil {
		return nil, autherr.InvalidToken("token was already refreshed")
	}
	issued, err := s.issue(current.Claims.Identity, r.PublicKey, r.RotationHash, current.Claims.Attributes)
	if err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, messages.SessionResponse{
		Access: messages.IssuedToken{Token: issued},
	})
}

// echo returns the request body of a verified access request.
func (s *Server) echo(_ context.Context, body []byte) ([]byte, error) {
	req, _, err := VerifyAccess[map[string]any](s.access, body)
	if err != nil {
		return nil, err
	}
	return reply(s, req.Payload.Access.Nonce, req.Payload.Request)
}

// badNonce answers a verified access request under a nonce it never saw.
func (s *Server) badNonce(_ context.Context, body []byte) ([]byte, error) {
	req, _, err := VerifyAccess[map[string]any](s.access, body)
	if err != nil {
		return nil, err
	}
	wrong, err := s.noncer.Generate128()
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidState, err)
	}
	return reply(s, wrong, req.Payload.Request)
}
