package middleware

import (
	"net/http"

	"github.com/MrEthical07/subAuth/role"
)

// RequireRole admits identities whose role is min or ranks above it.
// It must run after [Authenticate].
func RequireRole(min role.Role) func(http.Handler) http.Handler {
	allowed := role.AtLeast(min)
	return require(func(r role.Role) bool { return allowed.Has(r) })
}

// RequireAnyOf admits exactly the listed roles, without hierarchy expansion.
func RequireAnyOf(roles ...role.Role) func(http.Handler) http.Handler {
	allowed := role.NewSet(roles...)
	return require(func(r role.Role) bool { return allowed.Has(r) })
}

func require(permit func(role.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, KindUnauthenticated, "authentication required")
				return
			}
			if !permit(res.Role) {
				WriteError(w, http.StatusForbidden, KindForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
