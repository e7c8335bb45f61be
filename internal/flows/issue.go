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

// maxGrantAttempts bounds retries on a refresh token hash collision.
const maxGrantAttempts = 3

// Tokens is the flow-local credential pair.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// SessionGranter creates session records.
type SessionGranter interface {
	Grant(ctx context.Context, identityID string, tokenHash refresh.Hash, ttl time.Duration, now time.Time) (*session.Record, error)
	Revoke(ctx context.Context, identityID string, tokenHash refresh.Hash) (bool, error)
}

// IssueDeps captures what is needed to open a new session.
type IssueDeps struct {
	NewRefreshToken  func() (string, refresh.Hash, error)
	IssueAccessToken func(identityID string, r role.Role) (string, error)
	SessionTTL       time.Duration
	Now              func() time.Time
	Sessions         SessionGranter
}

// RunIssueSession grants a session record for ident and returns the token
// pair. No tokens are returned unless the record was stored.
func RunIssueSession(ctx context.Context, ident identity.Identity, deps IssueDeps) (Tokens, *session.Record, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	var (
		token string
		rec   *session.Record
	)
	for attempt := 0; attempt < maxGrantAttempts; attempt++ {
		next, hash, err := deps.NewRefreshToken()
		if err != nil {
			return Tokens{}, nil, err
		}
		rec, err = deps.Sessions.Grant(ctx, ident.ID, hash, deps.SessionTTL, deps.Now())
		if err == nil {
			token = next
			break
		}
		if !errors.Is(err, session.ErrTokenCollision) {
			return Tokens{}, nil, err
		}
	}
	if rec == nil {
		return Tokens{}, nil, session.ErrTokenCollision
	}

	access, err := deps.IssueAccessToken(ident.ID, ident.Role)
	if err != nil {
		_, _ = deps.Sessions.Revoke(ctx, ident.ID, rec.TokenHash)
		return Tokens{}, nil, err
	}

	return Tokens{AccessToken: access, RefreshToken: token}, rec, nil
}
