package messages

import (
	"errors"

	"github.com/mr-tron/base58"

	"betterauth/internal/autherr"
)

var errEmptyLink = errors.New("link container is empty")

// ExportLinkContainer renders a serialized container as one base58 word, for
// copy-paste or QR transfer between devices.
func ExportLinkContainer(container string) string {
	return base58.Encode([]byte(container))
}

// ImportLinkContainer reverses ExportLinkContainer and checks the result
// parses as a container.
func ImportLinkContainer(exported string) (string, error) {
	if exported == "" {
		return "", autherr.Deserialization(errEmptyLink)
	}
	raw, err := base58.Decode(exported)
	if err != nil {
		return "", autherr.Deserialization(err)
	}
	if _, err := DecodeLinkContainer(raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
