package devserver

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"betterauth/internal/autherr"
)

// TimeLock reserves values for a fixed lifetime. A value may be reserved
// once per lifetime; this backs nonce replay protection.
type TimeLock struct {
	lifetime time.Duration
	cache    *gocache.Cache
}

// NewTimeLock returns a lock holding values for lifetime.
func NewTimeLock(lifetime time.Duration) *TimeLock {
	return &TimeLock{
		lifetime: lifetime,
		cache:    gocache.New(lifetime, 2*lifetime),
	}
}

// LifetimeInSeconds is the reservation lifetime.
func (t *TimeLock) LifetimeInSeconds() int { return int(t.lifetime / time.Second) }

// Lifetime is the reservation lifetime.
func (t *TimeLock) Lifetime() time.Duration { return t.lifetime }

// Reserve fails with NonceReplay when value is already held.
func (t *TimeLock) Reserve(value string) error {
	if err := t.cache.Add(value, struct{}{}, gocache.DefaultExpiration); err != nil {
		return autherr.NonceReplay(value)
	}
	return nil
}

// challenges holds issued session challenges until answered or expired.
type challenges struct {
	cache *gocache.Cache
}

func newChallenges(lifetime time.Duration) *challenges {
	return &challenges{cache: gocache.New(lifetime, 2*lifetime)}
}

func (c *challenges) issue(nonce, identity string) error {
	if err := c.cache.Add(nonce, identity, gocache.DefaultExpiration); err != nil {
		return autherr.NonceReplay(nonce)
	}
	return nil
}

// take returns the identity the challenge was issued for and forgets it.
func (c *challenges) take(nonce string) (string, error) {
	v, ok := c.cache.Get(nonce)
	if !ok {
		return "", autherr.New(autherr.KindExpiredNonce).With("nonce", autherr.Truncate(nonce))
	}
	c.cache.Delete(nonce)
	return v.(string), nil
}
