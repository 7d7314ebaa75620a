package envelope

import (
	"context"
	"crypto/subtle"
	"errors"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
)

// ClientAccess carries the client nonce the server must echo.
type ClientAccess struct {
	Nonce string `json:"nonce"`
}

// ClientPayload is the payload of every client request.
type ClientPayload[T any] struct {
	Access  ClientAccess `json:"access"`
	Request T            `json:"request"`
}

// ServerAccess binds a response to its request nonce and names the key that
// signed it.
type ServerAccess struct {
	Nonce          string `json:"nonce"`
	ServerIdentity string `json:"serverIdentity"`
}

// ServerPayload is the payload of every server response.
type ServerPayload[T any] struct {
	Access   ServerAccess `json:"access"`
	Response T            `json:"response"`
}

// NewRequest builds an unsigned client request.
func NewRequest[T any](nonce string, request T) *Signed[ClientPayload[T]] {
	return New(ClientPayload[T]{Access: ClientAccess{Nonce: nonce}, Request: request})
}

// NewResponse builds an unsigned server response.
func NewResponse[T any](nonce, serverIdentity string, response T) *Signed[ServerPayload[T]] {
	return New(ServerPayload[T]{
		Access:   ServerAccess{Nonce: nonce, ServerIdentity: serverIdentity},
		Response: response,
	})
}

// ParseRequest decodes a client request record.
func ParseRequest[T any](data []byte) (*Signed[ClientPayload[T]], error) {
	return Parse[ClientPayload[T]](data)
}

// ParseResponse decodes a server response record. A body carrying the error
// wire shape is returned as that error.
func ParseResponse[T any](data []byte) (*Signed[ServerPayload[T]], error) {
	resp, err := Parse[ServerPayload[T]](data)
	if err != nil {
		if wireErr, perr := autherr.Parse(data); perr == nil {
			return nil, wireErr
		}
		return nil, err
	}
	return resp, nil
}

// VerifyResponse resolves the server key named by the response, verifies the
// signature and binds the nonce.
func VerifyResponse[T any](
	ctx context.Context,
	resp *Signed[ServerPayload[T]],
	keys domain.VerificationKeyStore,
	nonce string,
) error {
	key, err := keys.Get(ctx, resp.Payload.Access.ServerIdentity)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return autherr.Timeout(err)
		}
		return autherr.InvalidIdentity("server identity " +
			autherr.Truncate(resp.Payload.Access.ServerIdentity) + " is not trusted")
	}
	publicKey, err := key.Public()
	if err != nil {
		return autherr.InvalidIdentity(err.Error())
	}
	if err := resp.Verify(key.Verifier(), publicKey); err != nil {
		return err
	}
	return BindNonce(nonce, resp.Payload.Access.Nonce)
}

// BindNonce fails with IncorrectNonce unless actual echoes expected.
func BindNonce(expected, actual string) error {
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) != 1 {
		return autherr.IncorrectNonce(expected, actual)
	}
	return nil
}
