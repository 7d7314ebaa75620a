// Package canonical composes the byte form of a payload that signatures are
// computed over.
//
// The form is compact JSON: struct fields in declaration order, map keys
// sorted, no HTML escaping. Any two parties decoding the same payload into
// the same types reproduce identical bytes.
package canonical

import (
	"bytes"
	"encoding/json"

	"betterauth/internal/autherr"
)

// Compose returns the canonical bytes of payload.
func Compose(payload any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, autherr.Serialization(err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
