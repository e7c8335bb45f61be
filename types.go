package subAuth

import (
	"time"

	"github.com/MrEthical07/subAuth/identity"
	"github.com/MrEthical07/subAuth/role"
)

// Identity is the account record returned by the Engine. PasswordHash is
// never serialized.
type Identity = identity.Identity

// Profile carries optional name and email updates.
type Profile = identity.Profile

// Page bounds list queries.
type Page = identity.Page

// TokenPair is what sign-in, sign-up and refresh return.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// SignInResult is returned by [Engine.SignIn] and [Engine.SignUp].
type SignInResult struct {
	TokenPair
	Identity Identity `json:"identity"`
}

// AuthResult is the verified subject of an access token, returned by
// [Engine.VerifyAccessToken].
type AuthResult struct {
	IdentityID string
	Role       role.Role
}

// Subject converts r for ownership checks.
func (r *AuthResult) Subject() role.Subject {
	if r == nil {
		return role.Subject{}
	}
	return role.Subject{ID: r.IdentityID, Role: r.Role}
}
