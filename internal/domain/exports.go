package domain

import (
	interfaces "betterauth/internal/domain/interfaces"
	types "betterauth/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Identity      = types.Identity
	Device        = types.Device
	Role          = types.Role
	Paths         = types.Paths
	AccountPaths  = types.AccountPaths
	RecoveryPaths = types.RecoveryPaths
	SessionPaths  = types.SessionPaths
	DevicePaths   = types.DevicePaths
	Attributes    = types.Attributes
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Hasher                 = interfaces.Hasher
	Noncer                 = interfaces.Noncer
	Verifier               = interfaces.Verifier
	VerificationKey        = interfaces.VerificationKey
	SigningKey             = interfaces.SigningKey
	Timestamper            = interfaces.Timestamper
	TokenEncoder           = interfaces.TokenEncoder
	Network                = interfaces.Network
	ClientValueStore       = interfaces.ClientValueStore
	ClearableValueStore    = interfaces.ClearableValueStore
	ClientRotatingKeyStore = interfaces.ClientRotatingKeyStore
	StagedKeys             = interfaces.StagedKeys
	VerificationKeyStore   = interfaces.VerificationKeyStore
	AccountService         = interfaces.AccountService
	DeviceService          = interfaces.DeviceService
	SessionService         = interfaces.SessionService
)

const (
	RoleAuthentication = types.RoleAuthentication
	RoleAccess         = types.RoleAccess
)

// DefaultPaths returns the standard route layout.
func DefaultPaths() Paths { return types.DefaultPaths() }
