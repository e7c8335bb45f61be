package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MrEthical07/subAuth/role"
)

var (
	// ErrNotFound is returned when no identity matches.
	ErrNotFound = errors.New("identity not found")
	// ErrEmailTaken is returned when another identity already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrValidation is returned for malformed names or emails.
	ErrValidation = errors.New("validation failed")
	// ErrUnavailable wraps backend failures, including context deadlines.
	ErrUnavailable = errors.New("identity store unavailable")
)

const (
	minNameLen  = 2
	maxNameLen  = 50
	maxEmailLen = 254

	defaultPageLimit = 50
	maxPageLimit     = 200
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Identity is a principal that can sign in.
type Identity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         role.Role `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the subset of fields an identity may change about itself.
// Nil fields are left untouched.
type Profile struct {
	Name  *string
	Email *string
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the limit to 1..200 (default 50) and the offset to >= 0.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Store persists identities. Implementations must enforce case-insensitive
// email uniqueness and report it as ErrEmailTaken.
type Store interface {
	Create(ctx context.Context, id *Identity) error
	ByID(ctx context.Context, id string) (Identity, error)
	ByEmail(ctx context.Context, email string) (Identity, error)
	List(ctx context.Context, page Page) ([]Identity, error)
	UpdateProfile(ctx context.Context, id string, p Profile) (Identity, error)
	SetRole(ctx context.Context, id string, r role.Role) (Identity, error)
	SetActive(ctx context.Context, id string, active bool) (Identity, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks an already-normalized email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if len(email) > maxEmailLen || !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: email is malformed", ErrValidation)
	}
	return nil
}

// NormalizeName trims surrounding whitespace.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateName checks an already-normalized display name.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minNameLen || n > maxNameLen {
		return fmt.Errorf("%w: name must be %d-%d characters", ErrValidation, minNameLen, maxNameLen)
	}
	return nil
}

// Normalize applies NormalizeName and NormalizeEmail to the non-nil fields
// and validates them.
func (p Profile) Normalize() (Profile, error) {
	if p.Name != nil {
		name := NormalizeName(*p.Name)
		if err := ValidateName(name); err != nil {
			return Profile{}, err
		}
		p.Name = &name
	}
	if p.Email != nil {
		email := NormalizeEmail(*p.Email)
		if err := ValidateEmail(email); err != nil {
			return Profile{}, err
		}
		p.Email = &email
	}
	return p, nil
}

// Empty reports whether p changes nothing.
func (p Profile) Empty() bool {
	return p.Name == nil && p.Email == nil
}
