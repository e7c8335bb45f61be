package test

import (
	"context"
	"net/http"
	"testing"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/audit"
	"github.com/MrEthical07/subAuth/identity"
	"github.com/MrEthical07/subAuth/middleware"
	"github.com/MrEthical07/subAuth/role"
)

// Guards the public API for consumers at compile time.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = subAuth.New
	_ = subAuth.DefaultConfig

	var _ *subAuth.Engine
	var _ subAuth.Config
	var _ subAuth.AuthResult
	var _ subAuth.SignInResult
	var _ subAuth.TokenPair
	var _ subAuth.AuditQuery
	var _ identity.Store = identity.NewMemoryStore()
	var _ audit.Store = audit.NewMemoryStore()
	var _ audit.Sink = audit.NoOpSink{}

	var _ error = subAuth.ErrEmailTaken
	var _ error = subAuth.ErrNotFound
	var _ error = subAuth.ErrInvalidPassword
	var _ error = subAuth.ErrAccountInactive
	var _ error = subAuth.ErrTokenExpiredOrInvalid
	var _ error = subAuth.ErrForbidden
	var _ error = subAuth.ErrInvalidRole
	var _ error = subAuth.ErrAuditAppendOnly
	var _ error = subAuth.ErrStoreUnavailable

	var _ func(*subAuth.Engine) func(http.Handler) http.Handler = middleware.Authenticate
	var _ func(role.Role) func(http.Handler) http.Handler = middleware.RequireRole
	var _ func(...role.Role) func(http.Handler) http.Handler = middleware.RequireAnyOf

	var _ func(*subAuth.Engine, context.Context, string, string, string) (subAuth.SignInResult, error) = (*subAuth.Engine).SignUp
	var _ func(*subAuth.Engine, context.Context, string, string) (subAuth.SignInResult, error) = (*subAuth.Engine).SignIn
	var _ func(*subAuth.Engine, context.Context, string) (subAuth.TokenPair, error) = (*subAuth.Engine).Refresh
	var _ func(*subAuth.Engine, context.Context, string, string) error = (*subAuth.Engine).SignOut
	var _ func(*subAuth.Engine, context.Context, string) (int, error) = (*subAuth.Engine).SignOutAll
	var _ func(*subAuth.Engine, context.Context, string) (*subAuth.AuthResult, error) = (*subAuth.Engine).VerifyAccessToken
	var _ func(*subAuth.Engine, context.Context, subAuth.AuthResult, string, role.Role) (subAuth.Identity, error) = (*subAuth.Engine).ChangeRole
	var _ func(*subAuth.Engine, context.Context, subAuth.AuthResult, subAuth.AuditQuery) ([]audit.Entry, error) = (*subAuth.Engine).AuditLog
}
