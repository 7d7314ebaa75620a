package flow

import (
	"errors"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
)

// RequireNoIdentity fails with InvalidState when identity already holds a
// value. Flows that bind this client to a new or different identity use it
// so a registered account is never overwritten by accident.
func RequireNoIdentity(identity domain.ClientValueStore) error {
	existing, err := identity.Get()
	switch {
	case err == nil:
		return autherr.InvalidState("identity " + autherr.Truncate(existing) + " is already stored")
	case errors.Is(err, autherr.ErrNotFound):
		return nil
	default:
		return err
	}
}

// CommitDevice makes staged the role's keys and stores the identity and
// device they were registered under. Keys go first: a client holding an
// identity always holds keys for it.
func CommitDevice(
	staged domain.StagedKeys,
	identityStore, deviceStore domain.ClientValueStore,
	identity, device string,
) error {
	if err := staged.Commit(); err != nil {
		return err
	}
	if err := identityStore.Store(identity); err != nil {
		return err
	}
	return deviceStore.Store(device)
}
