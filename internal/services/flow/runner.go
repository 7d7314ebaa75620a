package flow

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
	"betterauth/internal/metrics"
	"betterauth/internal/protocol/envelope"
	"betterauth/internal/protocol/messages"
)

// Runner holds the collaborators shared by every flow.
type Runner struct {
	Network    domain.Network
	Noncer     domain.Noncer
	ServerKeys domain.VerificationKeyStore
	Metrics    *metrics.Metrics
}

// Role is the key commitment of one role together with the lock that
// serializes flows using it. Flows that reveal or rotate keys take the write
// lock; flows that only sign with the current key take the read lock.
type Role struct {
	sync.RWMutex
	Keys domain.ClientRotatingKeyStore
}

// NewRole wraps keys.
func NewRole(keys domain.ClientRotatingKeyStore) *Role {
	return &Role{Keys: keys}
}

// Track logs the start of f and returns the function recording its outcome.
func (r *Runner) Track(f messages.Flow) func(error) {
	start := time.Now()
	logger := log.WithField("flow", string(f))
	logger.Debug("flow started")
	return func(err error) {
		r.Metrics.ObserveFlow(string(f), start, err)
		if err != nil {
			logger.WithFields(log.Fields{
				"code":  autherr.KindOf(err).Code(),
				"error": err,
			}).Warn("flow failed")
			return
		}
		logger.WithField("elapsed", time.Since(start)).Info("flow committed")
	}
}

// Exchange runs one signed round trip: it wraps request under a fresh nonce,
// signs it with signer, sends it to path and returns the verified response
// body. Nothing is committed here; callers commit after Exchange succeeds.
func Exchange[Req, Resp any](
	ctx context.Context,
	r *Runner,
	path string,
	signer domain.SigningKey,
	request Req,
	decode func([]byte) (*messages.Response[Resp], error),
) (Resp, error) {
	var zero Resp
	nonce, err := r.Noncer.Generate128()
	if err != nil {
		return zero, autherr.Wrap(autherr.KindInvalidState, err)
	}
	env := envelope.NewRequest(nonce, request)
	if err := env.Sign(signer); err != nil {
		return zero, err
	}
	message, err := env.Serialize()
	if err != nil {
		return zero, err
	}
	return Send(ctx, r, path, message, nonce, decode)
}

// ExchangeUnsigned is Exchange for requests that travel without a signature.
func ExchangeUnsigned[Req, Resp any](
	ctx context.Context,
	r *Runner,
	path string,
	request Req,
	decode func([]byte) (*messages.Response[Resp], error),
) (Resp, error) {
	var zero Resp
	nonce, err := r.Noncer.Generate128()
	if err != nil {
		return zero, autherr.Wrap(autherr.KindInvalidState, err)
	}
	message, err := envelope.NewRequest(nonce, request).SerializeUnsigned()
	if err != nil {
		return zero, err
	}
	return Send(ctx, r, path, message, nonce, decode)
}

// Send posts an already serialized request carrying nonce, then decodes and
// verifies the reply.
func Send[Resp any](
	ctx context.Context,
	r *Runner,
	path string,
	message []byte,
	nonce string,
	decode func([]byte) (*messages.Response[Resp], error),
) (Resp, error) {
	var zero Resp
	reply, err := r.Network.SendRequest(ctx, path, message)
	if err != nil {
		return zero, err
	}
	resp, err := decode(reply)
	if err != nil {
		return zero, err
	}
	if err := envelope.VerifyResponse(ctx, resp, r.ServerKeys, nonce); err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, autherr.Timeout(err)
	}
	return resp.Payload.Response, nil
}

// Revealed is the successor commitment used by rotation-bearing flows.
type Revealed struct {
	Signer       domain.SigningKey
	PublicKey    string
	RotationHash string
}

// Reveal calls Next on keys. Callers hold the role's write lock.
func Reveal(keys domain.ClientRotatingKeyStore) (Revealed, error) {
	signer, rotationHash, err := keys.Next()
	if err != nil {
		return Revealed{}, err
	}
	publicKey, err := signer.Public()
	if err != nil {
		return Revealed{}, autherr.Wrap(autherr.KindInvalidState, err)
	}
	return Revealed{Signer: signer, PublicKey: publicKey, RotationHash: rotationHash}, nil
}

// Authenticate reveals the successor key of keys and builds the
// authentication block of a rotation-bearing request. Callers hold the role's
// write lock.
func Authenticate(
	keys domain.ClientRotatingKeyStore,
	identity, device domain.ClientValueStore,
) (messages.DeviceAuthentication, Revealed, error) {
	id, err := identity.Get()
	if err != nil {
		return messages.DeviceAuthentication{}, Revealed{}, err
	}
	dev, err := device.Get()
	if err != nil {
		return messages.DeviceAuthentication{}, Revealed{}, err
	}
	next, err := Reveal(keys)
	if err != nil {
		return messages.DeviceAuthentication{}, Revealed{}, err
	}
	return messages.DeviceAuthentication{
		Device:       dev,
		Identity:     id,
		PublicKey:    next.PublicKey,
		RotationHash: next.RotationHash,
	}, next, nil
}
