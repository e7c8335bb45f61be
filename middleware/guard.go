package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	subAuth "github.com/MrEthical07/subAuth"
)

// Error kinds written by this package.
const (
	KindUnauthenticated  = "Unauthenticated"
	KindInvalidOrExpired = "InvalidOrExpired"
	KindForbidden        = "Forbidden"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the identity placed on ctx by [Authenticate].
func AuthResultFromContext(ctx context.Context) (*subAuth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*subAuth.AuthResult)
	return res, ok && res != nil
}

// WithAuthResult returns a copy of ctx carrying res.
func WithAuthResult(ctx context.Context, res *subAuth.AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

// Authenticate verifies the bearer access token and stores the resulting
// identity on the request context. Requests without a valid token get 401.
func Authenticate(engine *subAuth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, http.StatusUnauthorized, KindUnauthenticated, "authentication unavailable")
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, http.StatusUnauthorized, KindUnauthenticated, "missing bearer token")
				return
			}

			res, err := engine.VerifyAccessToken(r.Context(), token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, KindInvalidOrExpired, "access token expired or invalid")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthResult(r.Context(), res)))
		})
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// ErrorBody is the JSON shape of every rejection.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the failure kind and a human-readable message.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteError writes status and an [ErrorBody]. 401 responses also carry a
// Bearer challenge.
func WriteError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="subauth"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: ErrorDetail{Kind: kind, Message: msg}})
}
