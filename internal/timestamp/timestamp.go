// Package timestamp formats protocol timestamps as RFC 3339 UTC with a
// nanosecond fraction.
package timestamp

import (
	"time"

	"betterauth/internal/domain"
)

// Layout always carries nine fractional digits and a Z suffix.
const Layout = "2006-01-02T15:04:05.000000000Z"

// RFC3339Nano is the default Timestamper. Clock overrides time.Now.
type RFC3339Nano struct {
	Clock func() time.Time
}

func (r RFC3339Nano) Now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

func (RFC3339Nano) Format(t time.Time) string { return t.UTC().Format(Layout) }

func (RFC3339Nano) Parse(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }

var _ domain.Timestamper = RFC3339Nano{}
