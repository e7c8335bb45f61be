package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/subAuth/identity"
	"github.com/MrEthical07/subAuth/role"
	"github.com/MrEthical07/subAuth/session"
)

// RegisterFailureKind classifies registration failures.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureValidation
	RegisterFailurePasswordPolicy
	RegisterFailureHash
	RegisterFailureEmailTaken
	RegisterFailureCreate
	RegisterFailureIssue
)

// RegisterRequest is the flow-local sign-up input.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult carries the created identity and, for sign-up, the
// session tokens.
type RegisterResult struct {
	Failure  RegisterFailureKind
	Err      error
	Identity identity.Identity
	Tokens   Tokens
	Session  *session.Record
}

// RegisterDeps captures identity creation dependencies.
type RegisterDeps struct {
	CheckPasswordPolicy func(string) error
	HashPassword        func(string) (string, error)
	NewIdentityID       func() string
	CreateIdentity      func(ctx context.Context, ident *identity.Identity) error
	Now                 func() time.Time
}

// RunRegister validates req, hashes the password and persists a new active
// identity with the default role.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) RegisterResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	name := identity.NormalizeName(req.Name)
	if err := identity.ValidateName(name); err != nil {
		return RegisterResult{Failure: RegisterFailureValidation, Err: err}
	}
	email := identity.NormalizeEmail(req.Email)
	if err := identity.ValidateEmail(email); err != nil {
		return RegisterResult{Failure: RegisterFailureValidation, Err: err}
	}
	if deps.CheckPasswordPolicy != nil {
		if err := deps.CheckPasswordPolicy(req.Password); err != nil {
			return RegisterResult{Failure: RegisterFailurePasswordPolicy, Err: fmt.Errorf("%w: %v", identity.ErrValidation, err)}
		}
	}

	hash, err := deps.HashPassword(req.Password)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureHash, Err: err}
	}

	now := deps.Now().UTC()
	ident := identity.Identity{
		ID:           deps.NewIdentityID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role.Default,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := deps.CreateIdentity(ctx, &ident); err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return RegisterResult{Failure: RegisterFailureEmailTaken, Err: err}
		}
		return RegisterResult{Failure: RegisterFailureCreate, Err: err}
	}

	return RegisterResult{Identity: ident}
}

// RunSignUp registers an identity and opens its first session.
func RunSignUp(ctx context.Context, req RegisterRequest, deps RegisterDeps, issue IssueDeps) RegisterResult {
	result := RunRegister(ctx, req, deps)
	if result.Failure != RegisterFailureNone {
		return result
	}

	tokens, rec, err := RunIssueSession(ctx, result.Identity, issue)
	if err != nil {
		result.Failure = RegisterFailureIssue
		result.Err = err
		return result
	}
	result.Tokens = tokens
	result.Session = rec
	return result
}
