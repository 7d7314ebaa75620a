package autherr

// Kind is one entry of the closed error taxonomy.
type Kind int

const (
	KindUnknown Kind = iota

	// validation
	KindInvalidMessage
	KindInvalidIdentity
	KindInvalidDevice
	KindInvalidHash

	// cryptographic
	KindSignatureVerificationFailed
	KindExpiredNonce
	KindIncorrectNonce
	KindNonceReplay

	// authorization
	KindMismatchedIdentities
	KindPermissionDenied

	// token
	KindExpiredToken
	KindInvalidToken
	KindFutureToken

	// temporal
	KindStaleRequest
	KindFutureRequest
	KindClockSkew

	// storage
	KindNotFound
	KindAlreadyExists
	KindStorageUnavailable
	KindStorageCorruption

	// encoding
	KindSerialization
	KindDeserialization
	KindCompression

	// network
	KindConnection
	KindTimeout
	KindProtocol

	// protocol and lifecycle
	KindInvalidState
	KindRotation
	KindRecovery
	KindDeviceRevoked
	KindIdentityDeleted
)

type entry struct {
	code    string
	name    string
	message string
}

// Codes are a cross-implementation contract. Never renumber.
var table = map[Kind]entry{
	KindUnknown: {"BA000", "Unknown", "Unknown error"},

	KindInvalidMessage:  {"BA101", "InvalidMessage", "Message structure is invalid or malformed"},
	KindInvalidIdentity: {"BA102", "InvalidIdentity", "Identity verification failed"},
	KindInvalidDevice:   {"BA103", "InvalidDevice", "Device hash does not match hash(publicKey || rotationHash)"},
	KindInvalidHash:     {"BA104", "InvalidHash", "Hash validation failed"},

	KindSignatureVerificationFailed: {"BA201", "SignatureVerificationFailed", "Signature verification failed"},
	KindExpiredNonce:                {"BA202", "ExpiredNonce", "Nonce has expired"},
	KindIncorrectNonce:              {"BA203", "IncorrectNonce", "Response nonce does not match request nonce"},
	KindNonceReplay:                 {"BA204", "NonceReplay", "Nonce has already been used (replay attack detected)"},

	KindMismatchedIdentities: {"BA302", "MismatchedIdentities", "Link container identity does not match request identity"},
	KindPermissionDenied:     {"BA303", "PermissionDenied", "Insufficient permissions for requested operation"},

	KindExpiredToken: {"BA401", "ExpiredToken", "Token has expired"},
	KindInvalidToken: {"BA402", "InvalidToken", "Token structure or format is invalid"},
	KindFutureToken:  {"BA403", "FutureToken", "Token issued_at timestamp is in the future"},

	KindStaleRequest:  {"BA501", "StaleRequest", "Request timestamp is too old"},
	KindFutureRequest: {"BA502", "FutureRequest", "Request timestamp is in the future"},
	KindClockSkew:     {"BA503", "ClockSkew", "Client and server clock difference exceeds tolerance"},

	KindNotFound:           {"BA601", "NotFound", "Resource not found"},
	KindAlreadyExists:      {"BA602", "AlreadyExists", "Resource already exists"},
	KindStorageUnavailable: {"BA603", "StorageUnavailable", "Storage backend is unavailable"},
	KindStorageCorruption:  {"BA604", "StorageCorruption", "Storage data is corrupted or invalid"},

	KindSerialization:   {"BA701", "SerializationError", "Failed to serialize message"},
	KindDeserialization: {"BA702", "DeserializationError", "Failed to deserialize message"},
	KindCompression:     {"BA703", "CompressionError", "Failed to compress or decompress data"},

	KindConnection: {"BA801", "ConnectionError", "Failed to connect to server"},
	KindTimeout:    {"BA802", "TimeoutError", "Request timed out"},
	KindProtocol:   {"BA803", "ProtocolError", "Invalid protocol usage"},

	KindInvalidState:    {"BA901", "InvalidState", "Invalid state for requested operation"},
	KindRotation:        {"BA902", "RotationError", "Key rotation failed"},
	KindRecovery:        {"BA903", "RecoveryError", "Account recovery failed"},
	KindDeviceRevoked:   {"BA904", "DeviceRevoked", "Device has been revoked"},
	KindIdentityDeleted: {"BA905", "IdentityDeleted", "Identity has been deleted"},
}

var byCode = func() map[string]Kind {
	m := make(map[string]Kind, len(table))
	for k, e := range table {
		m[e.code] = k
	}
	return m
}()

// Code returns the wire code of k, e.g. "BA203".
func (k Kind) Code() string { return lookup(k).code }

// String returns the kind name, e.g. "IncorrectNonce".
func (k Kind) String() string { return lookup(k).name }

// Message returns the default human message of k.
func (k Kind) Message() string { return lookup(k).message }

// KindForCode maps a wire code back to its kind; unknown codes map to KindUnknown.
func KindForCode(code string) Kind {
	return byCode[code]
}

func lookup(k Kind) entry {
	if e, ok := table[k]; ok {
		return e
	}
	return table[KindUnknown]
}
