package interfaces

import "context"

// Network carries serialized envelopes to the server and returns the reply.
type Network interface {
	SendRequest(ctx context.Context, path string, message []byte) ([]byte, error)
}
