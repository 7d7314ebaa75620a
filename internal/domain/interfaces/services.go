package interfaces

import "context"

// AccountService creates, recovers and deletes accounts.
type AccountService interface {
	CreateAccount(ctx context.Context, recoveryHash string) (identity string, err error)
	RecoverAccount(ctx context.Context, identity string, recoveryKey SigningKey, nextRecoveryHash string) error
	DeleteAccount(ctx context.Context) error
	ChangeRecoveryKey(ctx context.Context, recoveryHash string) error
}

// DeviceService links, unlinks and rotates devices.
type DeviceService interface {
	GenerateLinkContainer(identity string) (string, error)
	LinkDevice(ctx context.Context, container string) error
	UnlinkDevice(ctx context.Context, device string) error
	RotateDevice(ctx context.Context) error
}

// SessionService obtains and refreshes access tokens.
type SessionService interface {
	CreateSession(ctx context.Context) error
	RefreshSession(ctx context.Context) error
}
