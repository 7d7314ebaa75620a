package types

// Identity is the stable account handle derived at account creation.
type Identity string

// String returns the string form of the identity.
func (id Identity) String() string { return string(id) }

// Device identifies one authentication key holder within an identity.
type Device string

// String returns the string form of the device.
func (d Device) String() string { return string(d) }

// Role names a rotating key role held by a client.
type Role string

const (
	RoleAuthentication Role = "authentication"
	RoleAccess         Role = "access"
)

// String returns the string form of the role.
func (r Role) String() string { return string(r) }
