package crypto

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Text codes prefixed to every encoded primitive.
const (
	codeBlake3Digest     = "E"
	codeNonce128         = "0A"
	codeP256Public       = "1AAI"
	codeP256Signature    = "0I"
	codeEd25519Public    = "D"
	codeEd25519Signature = "0B"
)

// B64 returns unpadded url-safe base64.
func B64(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

// FromB64 decodes unpadded url-safe base64.
func FromB64(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }

// qualify left-pads raw with lead zero bytes, base64url encodes the result and
// overwrites the leading characters with code.
func qualify(code string, lead int, raw []byte) string {
	buf := make([]byte, lead+len(raw))
	copy(buf[lead:], raw)
	s := base64.URLEncoding.EncodeToString(buf)
	return code + s[len(code):]
}

// unqualify reverses qualify and checks the code and decoded length.
func unqualify(s, code string, lead, size int) ([]byte, error) {
	if !strings.HasPrefix(s, code) {
		return nil, fmt.Errorf("expected code %q", code)
	}
	buf, err := base64.URLEncoding.DecodeString(strings.Repeat("A", len(code)) + s[len(code):])
	if err != nil {
		return nil, err
	}
	if len(buf) != lead+size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(buf)-lead)
	}
	for _, b := range buf[:lead] {
		if b != 0 {
			return nil, fmt.Errorf("non-zero lead byte under code %q", code)
		}
	}
	return buf[lead:], nil
}
