package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/subAuth/session"
)

// SignInFailureKind classifies sign-in failures for root-level mapping.
type SignInFailureKind int

const (
	SignInFailureNone SignInFailureKind = iota
	SignInFailureRateLimited
	SignInFailureRateUnavailable
	SignInFailureVerify
	SignInFailureIssue
)

// SignInResult carries the issued tokens or failure metadata. Verify holds
// the verification outcome whenever credentials were checked.
type SignInResult struct {
	Failure SignInFailureKind
	Err     error
	Verify  VerifyResult
	Tokens  Tokens
	Session *session.Record
}

// SignInDeps captures sign-in throttling dependencies. Credential checks and
// issuance use VerifyDeps and IssueDeps.
type SignInDeps struct {
	ClientIPFromContext func(context.Context) string
	CheckRate           func(ctx context.Context, email, ip string) error
	RecordFailure       func(ctx context.Context, email, ip string) error
	ResetRate           func(ctx context.Context, email string) error
	RateLimited         error
	Warn                func(string, ...any)
}

// RunSignIn throttles, verifies credentials and opens a session.
// Only unknown-email and wrong-password outcomes count against the limiter.
func RunSignIn(ctx context.Context, email, password string, deps SignInDeps, verify VerifyDeps, issue IssueDeps) SignInResult {
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}

	ip := deps.ClientIPFromContext(ctx)
	key := normalizedKey(email)

	if deps.CheckRate != nil {
		if err := deps.CheckRate(ctx, key, ip); err != nil {
			if deps.RateLimited != nil && errors.Is(err, deps.RateLimited) {
				return SignInResult{Failure: SignInFailureRateLimited, Err: err}
			}
			return SignInResult{Failure: SignInFailureRateUnavailable, Err: err}
		}
	}

	verified := RunVerify(ctx, email, password, verify)
	if verified.Failure != VerifyFailureNone {
		switch verified.Failure {
		case VerifyFailureNotFound, VerifyFailurePassword:
			if deps.RecordFailure != nil {
				if err := deps.RecordFailure(ctx, key, ip); err != nil {
					deps.Warn("subAuth: sign-in failure counter update failed")
				}
			}
		}
		return SignInResult{Failure: SignInFailureVerify, Err: verified.Err, Verify: verified}
	}

	if deps.ResetRate != nil {
		if err := deps.ResetRate(ctx, key); err != nil {
			deps.Warn("subAuth: sign-in failure counter reset failed")
		}
	}

	tokens, rec, err := RunIssueSession(ctx, verified.Identity, issue)
	if err != nil {
		return SignInResult{Failure: SignInFailureIssue, Err: err, Verify: verified}
	}

	return SignInResult{Verify: verified, Tokens: tokens, Session: rec}
}
