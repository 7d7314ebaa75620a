package envelope

// AccessFields authenticate a request made under an access token.
type AccessFields struct {
	Nonce     string `json:"nonce"`
	Timestamp string `json:"timestamp"`
	Token     string `json:"token"`
}

// AccessPayload is the payload of an access request.
type AccessPayload[T any] struct {
	Access  AccessFields `json:"access"`
	Request T            `json:"request"`
}

// NewAccessRequest builds an unsigned access request.
func NewAccessRequest[T any](nonce, timestamp, token string, request T) *Signed[AccessPayload[T]] {
	return New(AccessPayload[T]{
		Access:  AccessFields{Nonce: nonce, Timestamp: timestamp, Token: token},
		Request: request,
	})
}

// ParseAccessRequest decodes an access request record.
func ParseAccessRequest[T any](data []byte) (*Signed[AccessPayload[T]], error) {
	return Parse[AccessPayload[T]](data)
}
