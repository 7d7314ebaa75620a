package messages

import "betterauth/internal/protocol/envelope"

type (
	Request[T any]  = envelope.Signed[envelope.ClientPayload[T]]
	Response[T any] = envelope.Signed[envelope.ServerPayload[T]]
)

// Client-side decoders, one per server reply.

func DecodeEmptyResponse(data []byte) (*Response[Empty], error) {
	return envelope.ParseResponse[Empty](data)
}

func DecodeRequestSessionResponse(data []byte) (*Response[RequestSessionResponse], error) {
	return envelope.ParseResponse[RequestSessionResponse](data)
}

func DecodeSessionResponse(data []byte) (*Response[SessionResponse], error) {
	return envelope.ParseResponse[SessionResponse](data)
}

func DecodeLinkContainer(data []byte) (*LinkContainer, error) {
	return envelope.Parse[LinkContainerPayload](data)
}

// Server-side decoders, one per client request.

func DecodeCreateAccountRequest(data []byte) (*Request[CreateAccountRequest], error) {
	return envelope.ParseRequest[CreateAccountRequest](data)
}

func DecodeRecoverAccountRequest(data []byte) (*Request[RecoverAccountRequest], error) {
	return envelope.ParseRequest[RecoverAccountRequest](data)
}

func DecodeDeleteAccountRequest(data []byte) (*Request[DeleteAccountRequest], error) {
	return envelope.ParseRequest[DeleteAccountRequest](data)
}

func DecodeChangeRecoveryKeyRequest(data []byte) (*Request[ChangeRecoveryKeyRequest], error) {
	return envelope.ParseRequest[ChangeRecoveryKeyRequest](data)
}

func DecodeLinkDeviceRequest(data []byte) (*Request[LinkDeviceRequest], error) {
	return envelope.ParseRequest[LinkDeviceRequest](data)
}

func DecodeUnlinkDeviceRequest(data []byte) (*Request[UnlinkDeviceRequest], error) {
	return envelope.ParseRequest[UnlinkDeviceRequest](data)
}

func DecodeRotateDeviceRequest(data []byte) (*Request[RotateDeviceRequest], error) {
	return envelope.ParseRequest[RotateDeviceRequest](data)
}

func DecodeRequestSessionRequest(data []byte) (*Request[RequestSessionRequest], error) {
	return envelope.ParseRequest[RequestSessionRequest](data)
}

func DecodeCreateSessionRequest(data []byte) (*Request[CreateSessionRequest], error) {
	return envelope.ParseRequest[CreateSessionRequest](data)
}

func DecodeRefreshSessionRequest(data []byte) (*Request[RefreshSessionRequest], error) {
	return envelope.ParseRequest[RefreshSessionRequest](data)
}
