package access

import (
	"context"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
	"betterauth/internal/protocol/envelope"
	"betterauth/internal/protocol/messages"
	"betterauth/internal/protocol/token"
	"betterauth/internal/services/flow"
)

// Client signs application requests with the current access key.
type Client struct {
	run         *flow.Runner
	access      *flow.Role
	token       domain.ClientValueStore
	timestamper domain.Timestamper
	verifier    domain.Verifier
	encoder     domain.TokenEncoder
}

// New constructs an access Client.
func New(
	run *flow.Runner,
	access *flow.Role,
	tokenStore domain.ClientValueStore,
	timestamper domain.Timestamper,
	verifier domain.Verifier,
	encoder domain.TokenEncoder,
) *Client {
	return &Client{
		run:         run,
		access:      access,
		token:       tokenStore,
		timestamper: timestamper,
		verifier:    verifier,
		encoder:     encoder,
	}
}

// Request sends request to path under the stored access token and returns the
// verified response body. The token must be fresh; nothing is committed.
func Request[Req, Resp any](ctx context.Context, c *Client, path string, request Req) (_ Resp, err error) {
	done := c.run.Track(messages.FlowAccess)
	defer func() { done(err) }()

	var zero Resp
	if path == "" {
		return zero, autherr.InvalidMessage("path", "path is required")
	}

	c.access.RLock()
	defer c.access.RUnlock()

	raw, err := c.token.Get()
	if err != nil {
		return zero, err
	}
	current, err := token.Parse[domain.Attributes](raw, c.verifier.SignatureLength(), c.encoder)
	if err != nil {
		return zero, err
	}
	if err := current.CheckFresh(c.timestamper); err != nil {
		return zero, err
	}
	signer, err := c.access.Keys.Signer()
	if err != nil {
		return zero, err
	}

	nonce, err := c.run.Noncer.Generate128()
	if err != nil {
		return zero, autherr.Wrap(autherr.KindInvalidState, err)
	}
	timestamp := c.timestamper.Format(c.timestamper.Now())
	env := envelope.NewAccessRequest(nonce, timestamp, raw, request)
	if err := env.Sign(signer); err != nil {
		return zero, err
	}
	message, err := env.Serialize()
	if err != nil {
		return zero, err
	}
	return flow.Send(ctx, c.run, path, message, nonce, envelope.ParseResponse[Resp])
}
