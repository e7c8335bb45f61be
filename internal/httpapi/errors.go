package httpapi

import (
	"errors"
	"log"
	"net/http"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/middleware"
)

const (
	kindValidation       = "ValidationError"
	kindBodyTooLarge     = "PayloadTooLarge"
	kindEmailTaken       = "EmailTaken"
	kindNotFound         = "NotFound"
	kindInvalidPassword  = "InvalidPassword"
	kindAccountInactive  = "AccountInactive"
	kindRateLimited      = "RateLimited"
	kindMissingToken     = "MissingToken"
	kindInvalidOrExpired = middleware.KindInvalidOrExpired
	kindUnauthenticated  = middleware.KindUnauthenticated
	kindForbidden        = middleware.KindForbidden
	kindInvalidRole      = "InvalidRole"
	kindAppendOnly       = "AuditAppendOnly"
	kindUnavailable      = "Unavailable"
	kindInternal         = "Internal"
)

var (
	errEmptyBody     = errors.New("request body required")
	errMalformedBody = errors.New("malformed JSON body")
	errBodyTooLarge  = errors.New("request body too large")
)

// statusFor maps an engine error to its HTTP status, error kind and the
// message shown to clients. Unknown errors become 500 Internal.
func statusFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, errEmptyBody), errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, kindValidation, err.Error()
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, kindBodyTooLarge, err.Error()
	case errors.Is(err, subAuth.ErrValidation):
		return http.StatusBadRequest, kindValidation, err.Error()
	case errors.Is(err, subAuth.ErrInvalidRole):
		return http.StatusBadRequest, kindInvalidRole, "invalid role"
	case errors.Is(err, subAuth.ErrMissingToken):
		return http.StatusBadRequest, kindMissingToken, "refresh token required"
	case errors.Is(err, subAuth.ErrEmailTaken):
		return http.StatusConflict, kindEmailTaken, "email already registered"
	case errors.Is(err, subAuth.ErrNotFound):
		return http.StatusNotFound, kindNotFound, "not found"
	case errors.Is(err, subAuth.ErrInvalidPassword):
		return http.StatusUnauthorized, kindInvalidPassword, "invalid password"
	case errors.Is(err, subAuth.ErrTokenExpiredOrInvalid):
		return http.StatusUnauthorized, kindInvalidOrExpired, "token expired or invalid"
	case errors.Is(err, subAuth.ErrUnauthenticated):
		return http.StatusUnauthorized, kindUnauthenticated, "authentication required"
	case errors.Is(err, subAuth.ErrAccountInactive):
		return http.StatusForbidden, kindAccountInactive, "account inactive"
	case errors.Is(err, subAuth.ErrForbidden):
		return http.StatusForbidden, kindForbidden, "forbidden"
	case errors.Is(err, subAuth.ErrAuditAppendOnly):
		return http.StatusConflict, kindAppendOnly, "audit entries are append-only"
	case errors.Is(err, subAuth.ErrSignInRateLimited):
		return http.StatusTooManyRequests, kindRateLimited, "too many attempts, try again later"
	case errors.Is(err, subAuth.ErrStoreUnavailable), errors.Is(err, subAuth.ErrEngineNotReady):
		return http.StatusServiceUnavailable, kindUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, kindInternal, "internal error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("subAuth: %s %s: %v", r.Method, r.URL.Path, err)
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}
	middleware.WriteError(w, status, kind, msg)
}
