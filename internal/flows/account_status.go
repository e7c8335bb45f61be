package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/subAuth/identity"
)

// ErrSessionInvalidationFailed is joined with the store error when sessions
// could not be revoked after a status change.
var ErrSessionInvalidationFailed = errors.New("session invalidation failed")

// AccountStatusDeps captures dependencies for activating and deactivating
// identities.
type AccountStatusDeps struct {
	SetActive         func(ctx context.Context, identityID string, active bool) (identity.Identity, error)
	SetSessionsActive func(ctx context.Context, identityID string, active bool) error
	RevokeAll         func(ctx context.Context, identityID string) (int, error)
}

// RunSetActive updates the identity's active flag and mirrors it into the
// session store. Deactivation keeps the identity's sessions but the inactive
// flag makes every rotation fail; sweep and expiry reap them. Reactivation
// revokes those held-over sessions before clearing the flag, so tokens from
// before the deactivation never come back.
func RunSetActive(ctx context.Context, identityID string, active bool, deps AccountStatusDeps) (identity.Identity, int, error) {
	updated, err := deps.SetActive(ctx, identityID, active)
	if err != nil {
		return identity.Identity{}, 0, err
	}

	if !active {
		if err := deps.SetSessionsActive(ctx, identityID, false); err != nil {
			return updated, 0, errors.Join(ErrSessionInvalidationFailed, err)
		}
		return updated, 0, nil
	}

	revoked, err := deps.RevokeAll(ctx, identityID)
	if err != nil {
		return updated, 0, errors.Join(ErrSessionInvalidationFailed, err)
	}
	if err := deps.SetSessionsActive(ctx, identityID, true); err != nil {
		return updated, revoked, errors.Join(ErrSessionInvalidationFailed, err)
	}
	return updated, revoked, nil
}
