package types

// Paths maps each protocol route to a server path.
type Paths struct {
	Account  AccountPaths  `yaml:"account"`
	Recovery RecoveryPaths `yaml:"recovery"`
	Session  SessionPaths  `yaml:"session"`
	Device   DevicePaths   `yaml:"device"`
}

type AccountPaths struct {
	Create  string `yaml:"create"`
	Recover string `yaml:"recover"`
	Delete  string `yaml:"delete"`
}

type RecoveryPaths struct {
	Change string `yaml:"change"`
}

type SessionPaths struct {
	Request string `yaml:"request"`
	Create  string `yaml:"create"`
	Refresh string `yaml:"refresh"`
}

type DevicePaths struct {
	Rotate string `yaml:"rotate"`
	Link   string `yaml:"link"`
	Unlink string `yaml:"unlink"`
}

// DefaultPaths returns the standard route layout.
func DefaultPaths() Paths {
	return Paths{
		Account: AccountPaths{
			Create:  "/account/create",
			Recover: "/account/recover",
			Delete:  "/account/delete",
		},
		Recovery: RecoveryPaths{Change: "/recovery/change"},
		Session: SessionPaths{
			Request: "/session/request",
			Create:  "/session/create",
			Refresh: "/session/refresh",
		},
		Device: DevicePaths{
			Rotate: "/device/rotate",
			Link:   "/device/link",
			Unlink: "/device/unlink",
		},
	}
}

// Merge fills every empty path in p from defaults.
func (p Paths) Merge(defaults Paths) Paths {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	p.Account.Create = pick(p.Account.Create, defaults.Account.Create)
	p.Account.Recover = pick(p.Account.Recover, defaults.Account.Recover)
	p.Account.Delete = pick(p.Account.Delete, defaults.Account.Delete)
	p.Recovery.Change = pick(p.Recovery.Change, defaults.Recovery.Change)
	p.Session.Request = pick(p.Session.Request, defaults.Session.Request)
	p.Session.Create = pick(p.Session.Create, defaults.Session.Create)
	p.Session.Refresh = pick(p.Session.Refresh, defaults.Session.Refresh)
	p.Device.Rotate = pick(p.Device.Rotate, defaults.Device.Rotate)
	p.Device.Link = pick(p.Device.Link, defaults.Device.Link)
	p.Device.Unlink = pick(p.Device.Unlink, defaults.Device.Unlink)
	return p
}
