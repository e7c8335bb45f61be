package flows

import (
	"context"

	"github.com/MrEthical07/subAuth/refresh"
)

// SignOutSessionStore is the subset of the session store used by sign-out.
type SignOutSessionStore interface {
	Revoke(ctx context.Context, identityID string, tokenHash refresh.Hash) (bool, error)
	RevokeAll(ctx context.Context, identityID string) (int, error)
}

// SignOutDeps captures sign-out dependencies.
type SignOutDeps struct {
	SessionStore SignOutSessionStore
}

// RunSignOut revokes the session behind refreshToken. Missing, malformed or
// unknown tokens are a no-op. When identityID is set, only a session owned
// by that identity is removed.
func RunSignOut(ctx context.Context, identityID, refreshToken string, deps SignOutDeps) (bool, error) {
	hash, err := refresh.Parse(refreshToken)
	if err != nil {
		return false, nil
	}
	return deps.SessionStore.Revoke(ctx, identityID, hash)
}

// RunSignOutAll revokes every session of identityID.
func RunSignOutAll(ctx context.Context, identityID string, deps SignOutDeps) (int, error) {
	if identityID == "" {
		return 0, nil
	}
	return deps.SessionStore.RevokeAll(ctx, identityID)
}
