package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/subAuth/identity"
)

// VerifyFailureKind classifies credential verification failures.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureValidation
	VerifyFailureNotFound
	VerifyFailureInactive
	VerifyFailurePassword
	VerifyFailureLookup
)

// VerifyResult carries the matched identity or failure metadata.
type VerifyResult struct {
	Failure  VerifyFailureKind
	Err      error
	Email    string
	Identity identity.Identity
}

// VerifyDeps captures credential verification dependencies.
type VerifyDeps struct {
	IdentityByEmail      func(ctx context.Context, email string) (identity.Identity, error)
	ComparePassword      func(password, hash string) error
	PasswordNeedsUpgrade func(hash string) (bool, error)
	HashPassword         func(password string) (string, error)
	UpdatePasswordHash   func(ctx context.Context, identityID, hash string) error
	Warn                 func(string, ...any)
}

// RunVerify looks up email and checks password against the stored hash.
// On success it re-hashes the password when the stored cost parameters are
// stale; that step is best-effort.
func RunVerify(ctx context.Context, email, password string, deps VerifyDeps) VerifyResult {
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}

	email = identity.NormalizeEmail(email)
	if err := identity.ValidateEmail(email); err != nil {
		return VerifyResult{Failure: VerifyFailureValidation, Err: err, Email: email}
	}

	ident, err := deps.IdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return VerifyResult{Failure: VerifyFailureNotFound, Err: err, Email: email}
		}
		return VerifyResult{Failure: VerifyFailureLookup, Err: err, Email: email}
	}

	if !ident.Active {
		return VerifyResult{Failure: VerifyFailureInactive, Email: email, Identity: ident}
	}

	if password == "" {
		return VerifyResult{Failure: VerifyFailurePassword, Email: email, Identity: ident}
	}
	if err := deps.ComparePassword(password, ident.PasswordHash); err != nil {
		return VerifyResult{Failure: VerifyFailurePassword, Err: err, Email: email, Identity: ident}
	}

	if deps.PasswordNeedsUpgrade != nil && deps.HashPassword != nil && deps.UpdatePasswordHash != nil {
		if needsUpgrade, err := deps.PasswordNeedsUpgrade(ident.PasswordHash); err == nil && needsUpgrade {
			if upgradedHash, err := deps.HashPassword(password); err == nil {
				if err := deps.UpdatePasswordHash(ctx, ident.ID, upgradedHash); err != nil {
					deps.Warn("subAuth: password hash upgrade update failed")
				} else {
					ident.PasswordHash = upgradedHash
				}
			} else {
				deps.Warn("subAuth: password hash upgrade generation failed")
			}
		}
	}

	return VerifyResult{Email: email, Identity: ident}
}

func normalizedKey(email string) string {
	return identity.NormalizeEmail(email)
}
