// Package tokenenc encodes canonical token claims for transport.
package tokenenc

import (
	"bytes"
	"encoding/base64"
	"io"

	"github.com/klauspost/compress/gzip"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
)

// maxDecoded bounds decompressed claims.
const maxDecoded = 64 << 10

// Gzip compresses claims and emits unpadded url-safe base64.
type Gzip struct {
	Level int
}

// Encode compresses payload.
func (g Gzip) Encode(payload []byte) (string, error) {
	level := g.Level
	if level == 0 {
		level = gzip.BestCompression
	}
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return "", autherr.Compression(err)
	}
	if _, err := zw.Write(payload); err != nil {
		return "", autherr.Compression(err)
	}
	if err := zw.Close(); err != nil {
		return "", autherr.Compression(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode.
func (Gzip) Decode(encoded string) ([]byte, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, autherr.Deserialization(err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, autherr.Compression(err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxDecoded+1))
	if err != nil {
		return nil, autherr.Compression(err)
	}
	if len(out) > maxDecoded {
		return nil, autherr.Newf(autherr.KindCompression, "decoded token exceeds %d bytes", maxDecoded)
	}
	return out, nil
}

var _ domain.TokenEncoder = Gzip{}
