package subAuth

import (
	"log"

	"github.com/MrEthical07/subAuth/internal/flows"
	"github.com/MrEthical07/subAuth/internal/ids"
	"github.com/MrEthical07/subAuth/internal/rate"
	"github.com/MrEthical07/subAuth/password"
	"github.com/MrEthical07/subAuth/refresh"
)

func (e *Engine) buildFlowDeps() flows.Deps {
	warn := func(format string, args ...any) {
		log.Printf(format, args...)
	}

	verify := flows.VerifyDeps{
		IdentityByEmail: e.identities.ByEmail,
		ComparePassword: e.passwordHash.Compare,
		Warn:            warn,
	}
	if e.config.Password.UpgradeOnLogin {
		verify.PasswordNeedsUpgrade = e.passwordHash.NeedsUpgrade
		verify.HashPassword = e.passwordHash.Hash
		verify.UpdatePasswordHash = e.identities.SetPasswordHash
	}

	signIn := flows.SignInDeps{
		ClientIPFromContext: clientIPFromContext,
		RateLimited:         rate.ErrRateLimited,
		Warn:                warn,
	}
	if e.rateLimiter != nil {
		signIn.CheckRate = e.rateLimiter.Check
		signIn.RecordFailure = e.rateLimiter.RecordFailure
		signIn.ResetRate = e.rateLimiter.Reset
	}

	return flows.Deps{
		Verify: verify,
		SignIn: signIn,
		Register: flows.RegisterDeps{
			CheckPasswordPolicy: password.CheckPolicy,
			HashPassword:        e.passwordHash.Hash,
			NewIdentityID:       ids.NewIdentityID,
			CreateIdentity:      e.identities.Create,
			Now:                 e.now,
		},
		Issue: flows.IssueDeps{
			NewRefreshToken:  refresh.New,
			IssueAccessToken: e.jwtManager.CreateAccess,
			SessionTTL:       e.config.Session.RefreshTTL,
			Now:              e.now,
			Sessions:         e.sessionStore,
		},
		Refresh: flows.RefreshDeps{
			NewRefreshToken:  refresh.New,
			IssueAccessToken: e.jwtManager.CreateAccess,
			IdentityByID:     e.identities.ByID,
			SessionTTL:       e.config.Session.RefreshTTL,
			Now:              e.now,
			LazySweep:        e.config.Session.LazySweep,
			Warn:             warn,
			SessionStore:     e.sessionStore,
		},
		SignOut: flows.SignOutDeps{
			SessionStore: e.sessionStore,
		},
		Validate: flows.ValidateDeps{
			ParseAccess: e.jwtManager.ParseAccess,
		},
		AccountStatus: flows.AccountStatusDeps{
			SetActive:         e.identities.SetActive,
			SetSessionsActive: e.sessionStore.SetIdentityActive,
			RevokeAll:         e.sessionStore.RevokeAll,
		},
	}
}
