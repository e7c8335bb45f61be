package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/subAuth/identity"
	"github.com/MrEthical07/subAuth/refresh"
	"github.com/MrEthical07/subAuth/role"
	"github.com/MrEthical07/subAuth/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureDecode
	RefreshFailureNextToken
	RefreshFailureSessionNotFound
	RefreshFailureSessionExpired
	RefreshFailureAccountInactive
	RefreshFailureRotate
	RefreshFailureIdentityGone
	RefreshFailureIdentityLookup
	RefreshFailureIssueAccess
)

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	IdentityID   string
	Identity     identity.Identity
	Session      *session.Record
	AccessToken  string
	RefreshToken string
	Swept        int
}

// RefreshSessionStore is the subset of the session store used by rotation.
type RefreshSessionStore interface {
	Lookup(ctx context.Context, tokenHash refresh.Hash) (*session.Record, error)
	Rotate(ctx context.Context, oldHash, newHash refresh.Hash, ttl time.Duration, now time.Time) (*session.Record, error)
	Revoke(ctx context.Context, identityID string, tokenHash refresh.Hash) (bool, error)
	SweepIdentity(ctx context.Context, identityID string, now time.Time) (int, error)
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	NewRefreshToken  func() (string, refresh.Hash, error)
	IssueAccessToken func(identityID string, r role.Role) (string, error)
	IdentityByID     func(ctx context.Context, identityID string) (identity.Identity, error)
	SessionTTL       time.Duration
	Now              func() time.Time
	LazySweep        bool
	Warn             func(string, ...any)
	SessionStore     RefreshSessionStore
}

// RunRefresh consumes refreshToken and issues its successor. The owner is
// resolved before anything is mutated, so a failed identity lookup leaves
// the presented token usable. The old record is then replaced in one atomic
// store step, so concurrent presentations of the same token yield exactly
// one success. Failures issue nothing and are not retried.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}

	oldHash, err := refresh.Parse(refreshToken)
	if err != nil {
		if errors.Is(err, refresh.ErrEmpty) {
			return RefreshResult{Failure: RefreshFailureMissing, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}

	now := deps.Now()
	current, err := deps.SessionStore.Lookup(ctx, oldHash)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return RefreshResult{Failure: RefreshFailureSessionNotFound, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureRotate, Err: err}
	}

	// Expired records are left to Rotate, which deletes them.
	var ident identity.Identity
	if current.ExpiresAt > now.Unix() {
		ident, err = deps.IdentityByID(ctx, current.IdentityID)
		switch {
		case errors.Is(err, identity.ErrNotFound):
			if _, revokeErr := deps.SessionStore.Revoke(ctx, current.IdentityID, oldHash); revokeErr != nil {
				deps.Warn("subAuth: revoke of orphaned session failed")
			}
			return RefreshResult{Failure: RefreshFailureIdentityGone, Err: err, IdentityID: current.IdentityID}
		case err != nil:
			return RefreshResult{Failure: RefreshFailureIdentityLookup, Err: err, IdentityID: current.IdentityID}
		case !ident.Active:
			return RefreshResult{Failure: RefreshFailureAccountInactive, IdentityID: current.IdentityID, Identity: ident}
		}
	}

	nextToken, nextHash, err := deps.NewRefreshToken()
	if err != nil {
		return RefreshResult{Failure: RefreshFailureNextToken, Err: err}
	}

	rec, err := deps.SessionStore.Rotate(ctx, oldHash, nextHash, deps.SessionTTL, now)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			return RefreshResult{Failure: RefreshFailureSessionNotFound, Err: err}
		case errors.Is(err, session.ErrSessionExpired):
			return RefreshResult{Failure: RefreshFailureSessionExpired, Err: err}
		case errors.Is(err, session.ErrIdentityInactive):
			return RefreshResult{Failure: RefreshFailureAccountInactive, Err: err, IdentityID: current.IdentityID}
		default:
			return RefreshResult{Failure: RefreshFailureRotate, Err: err}
		}
	}

	access, err := deps.IssueAccessToken(ident.ID, ident.Role)
	if err != nil {
		_, _ = deps.SessionStore.Revoke(ctx, rec.IdentityID, rec.TokenHash)
		return RefreshResult{
			Failure:    RefreshFailureIssueAccess,
			Err:        err,
			IdentityID: rec.IdentityID,
			Identity:   ident,
		}
	}

	swept := 0
	if deps.LazySweep {
		if n, err := deps.SessionStore.SweepIdentity(ctx, rec.IdentityID, now); err != nil {
			deps.Warn("subAuth: lazy session sweep failed")
		} else {
			swept = n
		}
	}

	return RefreshResult{
		Failure:      RefreshFailureNone,
		IdentityID:   rec.IdentityID,
		Identity:     ident,
		Session:      rec,
		AccessToken:  access,
		RefreshToken: nextToken,
		Swept:        swept,
	}
}
