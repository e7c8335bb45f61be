package subAuth

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/subAuth/audit"
	"github.com/MrEthical07/subAuth/identity"
	"github.com/MrEthical07/subAuth/role"
)

var (
	// ErrEmailTaken is returned when another identity already uses the email.
	ErrEmailTaken = identity.ErrEmailTaken
	// ErrNotFound is returned when the identity does not exist.
	ErrNotFound = identity.ErrNotFound
	// ErrInvalidPassword is returned when the password does not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrAccountInactive is returned for deactivated identities.
	ErrAccountInactive = errors.New("account inactive")
	// ErrTokenExpiredOrInvalid is the parent of ErrTokenExpired and ErrTokenInvalid.
	ErrTokenExpiredOrInvalid = errors.New("token expired or invalid")
	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrTokenExpiredOrInvalid)
	// ErrTokenInvalid is returned for unknown, consumed, tampered or malformed tokens.
	ErrTokenInvalid = fmt.Errorf("%w: invalid", ErrTokenExpiredOrInvalid)
	// ErrMissingToken is returned when no token was presented.
	ErrMissingToken = errors.New("missing token")
	// ErrForbidden is returned when the actor's role does not permit the action.
	ErrForbidden = role.ErrForbidden
	// ErrInvalidRole is returned for role names outside the enum.
	ErrInvalidRole = role.ErrInvalidRole
	// ErrValidation is returned for malformed input.
	ErrValidation = identity.ErrValidation
	// ErrAuditAppendOnly is returned on any attempt to change a written audit entry.
	ErrAuditAppendOnly = audit.ErrAppendOnly
	// ErrStoreUnavailable is returned when a backing store fails or times out.
	// Callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUnauthenticated is returned when a bearer token is required but absent or invalid.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSignInRateLimited is returned when too many sign-in attempts failed recently.
	ErrSignInRateLimited = errors.New("sign-in rate limited")
	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
