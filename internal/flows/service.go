package flows

import (
	"context"

	"github.com/MrEthical07/subAuth/identity"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.ParseAccess != nil
}

func (s Service) Verify(ctx context.Context, email, password string) VerifyResult {
	return RunVerify(ctx, email, password, s.deps.Verify)
}

func (s Service) SignIn(ctx context.Context, email, password string) SignInResult {
	return RunSignIn(ctx, email, password, s.deps.SignIn, s.deps.Verify, s.deps.Issue)
}

func (s Service) Register(ctx context.Context, req RegisterRequest) RegisterResult {
	return RunRegister(ctx, req, s.deps.Register)
}

func (s Service) SignUp(ctx context.Context, req RegisterRequest) RegisterResult {
	return RunSignUp(ctx, req, s.deps.Register, s.deps.Issue)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) SignOut(ctx context.Context, identityID, refreshToken string) (bool, error) {
	return RunSignOut(ctx, identityID, refreshToken, s.deps.SignOut)
}

func (s Service) SignOutAll(ctx context.Context, identityID string) (int, error) {
	return RunSignOutAll(ctx, identityID, s.deps.SignOut)
}

func (s Service) Validate(tokenStr string) ValidateResult {
	return RunValidate(tokenStr, s.deps.Validate)
}

func (s Service) SetActive(ctx context.Context, identityID string, active bool) (identity.Identity, int, error) {
	return RunSetActive(ctx, identityID, active, s.deps.AccountStatus)
}
