package subAuth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/subAuth/audit"
	"github.com/MrEthical07/subAuth/identity"
	"github.com/MrEthical07/subAuth/internal/flows"
	"github.com/MrEthical07/subAuth/internal/rate"
	"github.com/MrEthical07/subAuth/jwt"
	"github.com/MrEthical07/subAuth/password"
	"github.com/MrEthical07/subAuth/session"
)

// Engine is the identity, session and access-control core. Build it with
// [Builder]; after Build it is safe for concurrent use.
type Engine struct {
	config       Config
	sessionStore *session.Store
	rateLimiter  *rate.Limiter
	identities   identity.Store
	auditStore   audit.Store
	recorder     *audit.Recorder
	metrics      *Metrics
	passwordHash *password.Argon2
	jwtManager   *jwt.Manager
	flows        flows.Service
	now          func() time.Time
}

// Close drains the audit recorder. The Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.recorder != nil {
		e.recorder.Close()
	}
}

// AuditDropped returns how many audit entries were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.recorder == nil {
		return 0
	}
	return e.recorder.Dropped()
}

// MetricsSnapshot returns a copy of the engine's counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.Store.OperationTimeout)
}

// Register creates an active identity with the default role. It does not
// open a session.
//
// Errors: ErrValidation, ErrEmailTaken, ErrStoreUnavailable.
func (e *Engine) Register(ctx context.Context, name, email, password string) (Identity, error) {
	if err := e.ready(); err != nil {
		return Identity{}, err
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	result := e.flows.Register(ctx, flows.RegisterRequest{Name: name, Email: email, Password: password})
	if err := e.registerError(result); err != nil {
		return Identity{}, err
	}
	e.metricInc(MetricSignUpSuccess)
	e.recordAudit(ctx, audit.Input{
		ActorID:    result.Identity.ID,
		Action:     audit.ActionCreateUser,
		TargetType: audit.TargetUser,
		TargetID:   result.Identity.ID,
	})
	return result.Identity, nil
}

// Verify checks email and password without opening a session.
//
// Errors: ErrNotFound, ErrAccountInactive, ErrInvalidPassword,
// ErrValidation, ErrStoreUnavailable.
func (e *Engine) Verify(ctx context.Context, email, password string) (Identity, error) {
	if err := e.ready(); err != nil {
		return Identity{}, err
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	result := e.flows.Verify(ctx, email, password)
	if err := verifyError(result); err != nil {
		return Identity{}, err
	}
	return result.Identity, nil
}

// SignUp registers an identity and opens its first session.
func (e *Engine) SignUp(ctx context.Context, name, email, password string) (SignInResult, error) {
	if err := e.ready(); err != nil {
		return SignInResult{}, err
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	result := e.flows.SignUp(ctx, flows.RegisterRequest{Name: name, Email: email, Password: password})
	if err := e.registerError(result); err != nil {
		return SignInResult{}, err
	}

	e.metricInc(MetricSignUpSuccess)
	e.metricInc(MetricSessionCreated)
	e.recordAudit(ctx, audit.Input{
		ActorID:    result.Identity.ID,
		Action:     audit.ActionCreateUser,
		TargetType: audit.TargetUser,
		TargetID:   result.Identity.ID,
		Metadata:   map[string]string{"source": "sign-up"},
	})

	return SignInResult{
		TokenPair: e.tokenPair(result.Tokens.AccessToken, result.Tokens.RefreshToken, result.Session),
		Identity:  result.Identity,
	}, nil
}

func (e *Engine) registerError(result flows.RegisterResult) error {
	switch result.Failure {
	case flows.RegisterFailureNone:
		return nil
	case flows.RegisterFailureValidation, flows.RegisterFailurePasswordPolicy:
		return result.Err
	case flows.RegisterFailureEmailTaken:
		e.metricInc(MetricSignUpDuplicate)
		return ErrEmailTaken
	default:
		return e.storeError(result.Err)
	}
}

// SignIn verifies credentials and opens a session.
//
// Errors: ErrNotFound, ErrInvalidPassword, ErrAccountInactive,
// ErrSignInRateLimited, ErrValidation, ErrStoreUnavailable.
func (e *Engine) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	if err := e.ready(); err != nil {
		return SignInResult{}, err
	}
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricSignInLatency, time.Since(start))
		}
	}()

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	result := e.flows.SignIn(ctx, email, password)
	switch result.Failure {
	case flows.SignInFailureNone:
	case flows.SignInFailureRateLimited:
		e.metricInc(MetricSignInRateLimited)
		return SignInResult{}, ErrSignInRateLimited
	case flows.SignInFailureRateUnavailable:
		return SignInResult{}, e.storeError(result.Err)
	case flows.SignInFailureVerify:
		err := verifyError(result.Verify)
		if errors.Is(err, ErrStoreUnavailable) {
			e.metricInc(MetricStoreUnavailable)
			return SignInResult{}, err
		}
		e.metricInc(MetricSignInFailure)
		if id := result.Verify.Identity.ID; id != "" {
			e.recordAudit(ctx, audit.Input{
				ActorID:    id,
				Action:     audit.ActionLogin,
				TargetType: audit.TargetUser,
				TargetID:   id,
				Metadata:   map[string]string{"outcome": "failure", "reason": string(auditErrorCode(err))},
			})
		}
		return SignInResult{}, err
	default:
		return SignInResult{}, e.storeError(result.Err)
	}

	ident := result.Verify.Identity
	e.metricInc(MetricSignInSuccess)
	e.metricInc(MetricSessionCreated)
	e.recordAudit(ctx, audit.Input{
		ActorID:    ident.ID,
		Action:     audit.ActionLogin,
		TargetType: audit.TargetUser,
		TargetID:   ident.ID,
		Metadata:   map[string]string{"outcome": "success"},
	})

	return SignInResult{
		TokenPair: e.tokenPair(result.Tokens.AccessToken, result.Tokens.RefreshToken, result.Session),
		Identity:  ident,
	}, nil
}

func verifyError(result flows.VerifyResult) error {
	switch result.Failure {
	case flows.VerifyFailureNone:
		return nil
	case flows.VerifyFailureValidation:
		return result.Err
	case flows.VerifyFailureNotFound:
		return ErrNotFound
	case flows.VerifyFailureInactive:
		return ErrAccountInactive
	case flows.VerifyFailurePassword:
		return ErrInvalidPassword
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Err)
	}
}

// Refresh consumes refreshToken and returns a new pair. Of concurrent
// calls presenting the same token at most one succeeds; a consumed token
// is rejected as invalid.
//
// Errors: ErrMissingToken, ErrTokenExpired, ErrTokenInvalid (both match
// ErrTokenExpiredOrInvalid), ErrAccountInactive, ErrStoreUnavailable.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricRefreshLatency, time.Since(start))
		}
	}()

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	result := e.flows.Refresh(ctx, refreshToken)
	if result.Failure != flows.RefreshFailureNone {
		e.metricInc(MetricRefreshFailure)
		switch result.Failure {
		case flows.RefreshFailureMissing:
			return TokenPair{}, ErrMissingToken
		case flows.RefreshFailureDecode, flows.RefreshFailureIdentityGone:
			return TokenPair{}, ErrTokenInvalid
		case flows.RefreshFailureSessionNotFound:
			e.metricInc(MetricRefreshReplayRejected)
			return TokenPair{}, ErrTokenInvalid
		case flows.RefreshFailureSessionExpired:
			return TokenPair{}, ErrTokenExpired
		case flows.RefreshFailureAccountInactive:
			return TokenPair{}, ErrAccountInactive
		default:
			return TokenPair{}, e.storeError(result.Err)
		}
	}

	e.metricInc(MetricRefreshSuccess)
	if result.Swept > 0 && e.metrics != nil {
		e.metrics.Add(MetricSessionSwept, uint64(result.Swept))
	}
	e.recordAudit(ctx, audit.Input{
		ActorID:    result.IdentityID,
		Action:     audit.ActionTokenRefresh,
		TargetType: audit.TargetUser,
		TargetID:   result.IdentityID,
	})

	return e.tokenPair(result.AccessToken, result.RefreshToken, result.Session), nil
}

// SignOut revokes the session behind refreshToken. Absent, malformed and
// unknown tokens are a no-op. When identityID is set only a session owned
// by that identity is revoked.
func (e *Engine) SignOut(ctx context.Context, identityID, refreshToken string) error {
	if err := e.ready(); err != nil {
		return err
	}
	removed, err := e.flows.SignOut(ctx, identityID, refreshToken)
	if err != nil {
		return e.storeError(err)
	}
	e.metricInc(MetricSignOut)
	if removed {
		e.metricInc(MetricSessionRevoked)
	}
	return nil
}

// SignOutAll revokes every session of identityID and returns how many were
// removed.
func (e *Engine) SignOutAll(ctx context.Context, identityID string) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	n, err := e.flows.SignOutAll(ctx, identityID)
	if err != nil {
		return 0, e.storeError(err)
	}
	e.metricInc(MetricSignOutAll)
	if e.metrics != nil {
		e.metrics.Add(MetricSessionRevoked, uint64(n))
	}
	return n, nil
}

// VerifyAccessToken checks a bearer access token. It performs no store
// lookup.
//
// Errors: ErrMissingToken, ErrTokenExpired, ErrTokenInvalid.
func (e *Engine) VerifyAccessToken(ctx context.Context, token string) (*AuthResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}
	}()

	result := e.flows.Validate(token)
	switch result.Failure {
	case flows.ValidateFailureNone:
		return &AuthResult{IdentityID: result.Claims.UID, Role: result.Claims.Role}, nil
	case flows.ValidateFailureMissing:
		e.metricInc(MetricAccessRejected)
		return nil, ErrMissingToken
	case flows.ValidateFailureExpired:
		e.metricInc(MetricAccessRejected)
		return nil, ErrTokenExpired
	default:
		e.metricInc(MetricAccessRejected)
		return nil, ErrTokenInvalid
	}
}

// SweepExpired removes expired sessions of every identity. It is meant for
// a background worker; request paths never depend on it.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	n, err := e.sessionStore.SweepExpired(ctx, e.now())
	if e.metrics != nil {
		e.metrics.Add(MetricSessionSwept, uint64(n))
	}
	if err != nil {
		return n, e.storeError(err)
	}
	return n, nil
}

// ActiveSessions returns how many unexpired sessions identityID holds.
func (e *Engine) ActiveSessions(ctx context.Context, identityID string) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	n, err := e.sessionStore.Count(ctx, identityID, e.now())
	if err != nil {
		return 0, e.storeError(err)
	}
	return n, nil
}

// Ping checks the session backend.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	if _, err := e.sessionStore.Ping(ctx); err != nil {
		return e.storeError(err)
	}
	return nil
}

func (e *Engine) tokenPair(access, refreshToken string, rec *session.Record) TokenPair {
	pair := TokenPair{
		AccessToken:     access,
		RefreshToken:    refreshToken,
		AccessExpiresAt: e.now().Add(e.config.JWT.AccessTTL).UTC(),
	}
	if rec != nil {
		pair.RefreshExpiresAt = time.Unix(rec.ExpiresAt, 0).UTC()
	}
	return pair
}

// storeError maps backend failures to ErrStoreUnavailable and passes
// domain errors through.
func (e *Engine) storeError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, identity.ErrNotFound),
		errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, identity.ErrValidation),
		errors.Is(err, audit.ErrAppendOnly):
		return err
	case isUnavailable(err):
		e.metricInc(MetricStoreUnavailable)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return err
	}
}

func isUnavailable(err error) bool {
	return errors.Is(err, identity.ErrUnavailable) ||
		errors.Is(err, audit.ErrUnavailable) ||
		errors.Is(err, session.ErrRedisUnavailable) ||
		errors.Is(err, rate.ErrRedisUnavailable) ||
		errors.Is(err, flows.ErrSessionInvalidationFailed) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
