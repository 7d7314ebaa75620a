package autherr

import (
	"fmt"
	"time"
)

// Sentinels for errors.Is checks against a kind.
var (
	ErrInvalidMessage              = &Error{Kind: KindInvalidMessage}
	ErrInvalidIdentity             = &Error{Kind: KindInvalidIdentity}
	ErrInvalidDevice               = &Error{Kind: KindInvalidDevice}
	ErrInvalidHash                 = &Error{Kind: KindInvalidHash}
	ErrSignatureVerificationFailed = &Error{Kind: KindSignatureVerificationFailed}
	ErrExpiredNonce                = &Error{Kind: KindExpiredNonce}
	ErrIncorrectNonce              = &Error{Kind: KindIncorrectNonce}
	ErrNonceReplay                 = &Error{Kind: KindNonceReplay}
	ErrMismatchedIdentities        = &Error{Kind: KindMismatchedIdentities}
	ErrPermissionDenied            = &Error{Kind: KindPermissionDenied}
	ErrExpiredToken                = &Error{Kind: KindExpiredToken}
	ErrInvalidToken                = &Error{Kind: KindInvalidToken}
	ErrFutureToken                 = &Error{Kind: KindFutureToken}
	ErrStaleRequest                = &Error{Kind: KindStaleRequest}
	ErrFutureRequest               = &Error{Kind: KindFutureRequest}
	ErrClockSkew                   = &Error{Kind: KindClockSkew}
	ErrNotFound                    = &Error{Kind: KindNotFound}
	ErrAlreadyExists               = &Error{Kind: KindAlreadyExists}
	ErrStorageUnavailable          = &Error{Kind: KindStorageUnavailable}
	ErrStorageCorruption           = &Error{Kind: KindStorageCorruption}
	ErrSerialization               = &Error{Kind: KindSerialization}
	ErrDeserialization             = &Error{Kind: KindDeserialization}
	ErrCompression                 = &Error{Kind: KindCompression}
	ErrConnection                  = &Error{Kind: KindConnection}
	ErrTimeout                     = &Error{Kind: KindTimeout}
	ErrProtocol                    = &Error{Kind: KindProtocol}
	ErrInvalidState                = &Error{Kind: KindInvalidState}
	ErrRotation                    = &Error{Kind: KindRotation}
	ErrRecovery                    = &Error{Kind: KindRecovery}
	ErrDeviceRevoked               = &Error{Kind: KindDeviceRevoked}
	ErrIdentityDeleted             = &Error{Kind: KindIdentityDeleted}
)

// sensitiveLimit bounds how much of a nonce or key reaches an error context.
const sensitiveLimit = 16

// Truncate shortens s to a loggable prefix.
func Truncate(s string) string {
	if len(s) <= sensitiveLimit {
		return s
	}
	return s[:sensitiveLimit] + "..."
}

func InvalidMessage(field, details string) *Error {
	e := New(KindInvalidMessage)
	if field != "" {
		e.With("field", field)
	}
	if details != "" {
		e.With("details", details)
	}
	return e
}

func InvalidIdentity(details string) *Error {
	e := New(KindInvalidIdentity)
	if details != "" {
		e.With("details", details)
	}
	return e
}

func InvalidDevice(provided, calculated string) *Error {
	return New(KindInvalidDevice,
		Field{"provided", Truncate(provided)},
		Field{"calculated", Truncate(calculated)},
	)
}

func InvalidHash(expected, actual, hashType string) *Error {
	return New(KindInvalidHash,
		Field{"expected", Truncate(expected)},
		Field{"actual", Truncate(actual)},
		Field{"hashType", hashType},
	)
}

func SignatureVerificationFailed(publicKey, signedData string) *Error {
	return New(KindSignatureVerificationFailed,
		Field{"publicKey", Truncate(publicKey)},
		Field{"signedData", signedData},
	)
}

func ExpiredNonce(nonceTimestamp, currentTime, window string) *Error {
	return New(KindExpiredNonce,
		Field{"nonceTimestamp", nonceTimestamp},
		Field{"currentTime", currentTime},
		Field{"expirationWindow", window},
	)
}

func IncorrectNonce(expected, actual string) *Error {
	return New(KindIncorrectNonce,
		Field{"expected", Truncate(expected)},
		Field{"actual", Truncate(actual)},
	)
}

func NonceReplay(nonce string) *Error {
	return New(KindNonceReplay, Field{"nonce", Truncate(nonce)})
}

func MismatchedIdentities(linkContainerIdentity, requestIdentity string) *Error {
	return New(KindMismatchedIdentities,
		Field{"linkContainerIdentity", linkContainerIdentity},
		Field{"requestIdentity", requestIdentity},
	)
}

func PermissionDenied(operation string) *Error {
	return New(KindPermissionDenied, Field{"operation", operation})
}

func ExpiredToken(expiryTime, currentTime, tokenType string) *Error {
	return New(KindExpiredToken,
		Field{"expiryTime", expiryTime},
		Field{"currentTime", currentTime},
		Field{"tokenType", tokenType},
	)
}

func InvalidToken(details string) *Error {
	return New(KindInvalidToken, Field{"details", details})
}

func FutureToken(issuedAt, currentTime string, difference time.Duration) *Error {
	return New(KindFutureToken,
		Field{"issuedAt", issuedAt},
		Field{"currentTime", currentTime},
		Field{"timeDifference", difference.Seconds()},
	)
}

func StaleRequest(requestTimestamp, currentTime string, maximumAge time.Duration) *Error {
	return New(KindStaleRequest,
		Field{"requestTimestamp", requestTimestamp},
		Field{"currentTime", currentTime},
		Field{"maximumAge", maximumAge.Seconds()},
	)
}

func FutureRequest(requestTimestamp, currentTime string, difference time.Duration) *Error {
	return New(KindFutureRequest,
		Field{"requestTimestamp", requestTimestamp},
		Field{"currentTime", currentTime},
		Field{"timeDifference", difference.Seconds()},
	)
}

func NotFound(resource string) *Error {
	return New(KindNotFound, Field{"resource", resource})
}

func AlreadyExists(resource string) *Error {
	return New(KindAlreadyExists, Field{"resource", resource})
}

func StorageUnavailable(err error) error { return Wrap(KindStorageUnavailable, err) }

func StorageCorruption(err error) error { return Wrap(KindStorageCorruption, err) }

func Serialization(err error) error { return Wrap(KindSerialization, err) }

func Deserialization(err error) error { return Wrap(KindDeserialization, err) }

func Compression(err error) error { return Wrap(KindCompression, err) }

func Connection(err error) error { return Wrap(KindConnection, err) }

func Timeout(err error) error { return Wrap(KindTimeout, err) }

func Protocol(format string, args ...any) *Error {
	return New(KindProtocol, Field{"details", fmt.Sprintf(format, args...)})
}

func InvalidState(details string) *Error {
	return New(KindInvalidState, Field{"details", details})
}

func Rotation(details string) *Error {
	return New(KindRotation, Field{"details", details})
}

func Recovery(details string) *Error {
	return New(KindRecovery, Field{"details", details})
}

func DeviceRevoked(device string) *Error {
	return New(KindDeviceRevoked, Field{"device", Truncate(device)})
}

func IdentityDeleted(identity string) *Error {
	return New(KindIdentityDeleted, Field{"identity", Truncate(identity)})
}
