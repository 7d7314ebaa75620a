package envelope

import (
	"bytes"
	"encoding/json"
	"errors"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
	"betterauth/internal/protocol/canonical"
)

// Signed is the {payload, signature} wire record. The signature covers the
// canonical form of Payload only.
type Signed[T any] struct {
	Payload   T      `json:"payload"`
	Signature string `json:"signature"`
}

// New wraps payload in an unsigned envelope.
func New[T any](payload T) *Signed[T] {
	return &Signed[T]{Payload: payload}
}

// Compose returns the canonical bytes of the payload.
func (e *Signed[T]) Compose() ([]byte, error) {
	return canonical.Compose(e.Payload)
}

// Sign sets the signature over the canonical payload. Only the signature
// field changes.
func (e *Signed[T]) Sign(key domain.SigningKey) error {
	if key == nil {
		return autherr.InvalidState("no signing key")
	}
	message, err := e.Compose()
	if err != nil {
		return err
	}
	if bytes.Equal(message, []byte("null")) {
		return autherr.InvalidState("payload is not set")
	}
	signature, err := key.Sign(message)
	if err != nil {
		return autherr.Wrap(autherr.KindInvalidState, err)
	}
	e.Signature = signature
	return nil
}

// Verify checks the signature against publicKey.
func (e *Signed[T]) Verify(verifier domain.Verifier, publicKey string) error {
	if e.Signature == "" {
		return autherr.InvalidMessage("signature", "signature is missing")
	}
	message, err := e.Compose()
	if err != nil {
		return err
	}
	if err := verifier.Verify(message, e.Signature, publicKey); err != nil {
		return autherr.SignatureVerificationFailed(publicKey, "payload")
	}
	return nil
}

// Serialize emits {"payload":...,"signature":"..."}.
func (e *Signed[T]) Serialize() ([]byte, error) {
	if e.Signature == "" {
		return nil, autherr.InvalidMessage("signature", "envelope is unsigned")
	}
	return canonical.Compose(e)
}

// SerializeUnsigned emits {"payload":...} for the few records that travel
// without a signature.
func (e *Signed[T]) SerializeUnsigned() ([]byte, error) {
	return canonical.Compose(struct {
		Payload T `json:"payload"`
	}{e.Payload})
}

var errNoPayload = errors.New("payload is missing")

// Parse decodes a wire record without verifying it. Unknown payload keys are
// ignored.
func Parse[T any](data []byte) (*Signed[T], error) {
	var wire struct {
		Payload   json.RawMessage `json:"payload"`
		Signature *string         `json:"signature"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, autherr.Deserialization(err)
	}
	if len(wire.Payload) == 0 || bytes.Equal(wire.Payload, []byte("null")) {
		return nil, autherr.Deserialization(errNoPayload)
	}
	e := new(Signed[T])
	if err := json.Unmarshal(wire.Payload, &e.Payload); err != nil {
		return nil, autherr.Deserialization(err)
	}
	if wire.Signature != nil {
		e.Signature = *wire.Signature
	}
	return e, nil
}
