package role

import (
	"errors"
	"strings"
)

// Role is one of the fixed privilege levels. The zero value is not a valid role.
type Role uint8

const (
	// Invalid is the zero value returned alongside parse errors.
	Invalid Role = iota
	// SuperAdmin is the highest ranked role.
	SuperAdmin
	// Admin manages identities and roles below itself.
	Admin
	// Manager manages subscriptions of other identities.
	Manager
	// User is the default role granted on sign-up.
	User
	// ReadOnly may only read.
	ReadOnly
	// Service is reserved for machine accounts. It has no rank and only
	// matches exact checks.
	Service

	roleCount
)

var (
	// ErrInvalidRole is returned when a role name is not part of the enum.
	ErrInvalidRole = errors.New("invalid role")
	// ErrForbidden is returned when an actor may not perform a role assignment.
	ErrForbidden = errors.New("forbidden")
)

// Default is the role granted to self-registered identities.
const Default = User

var names = [roleCount]string{
	Invalid:    "",
	SuperAdmin: "SUPER_ADMIN",
	Admin:      "ADMIN",
	Manager:    "MANAGER",
	User:       "USER",
	ReadOnly:   "READ_ONLY",
	Service:    "SERVICE",
}

// rank is the single ordering table. Higher means more privilege; zero means
// the role does not take part in hierarchy comparisons.
var rank = [roleCount]int{
	SuperAdmin: 5,
	Admin:      4,
	Manager:    3,
	User:       2,
	ReadOnly:   1,
}

// Hierarchy lists ranked roles from highest to lowest.
var Hierarchy = []Role{SuperAdmin, Admin, Manager, User, ReadOnly}

// All lists every valid role, ranked first then Service.
var All = []Role{SuperAdmin, Admin, Manager, User, ReadOnly, Service}

// Parse converts a role name (case-insensitive) to a Role.
func Parse(s string) (Role, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Invalid, ErrInvalidRole
	}
	for r := SuperAdmin; r < roleCount; r++ {
		if names[r] == s {
			return r, nil
		}
	}
	return Invalid, ErrInvalidRole
}

// MustParse is Parse for package-level constants and tests.
func MustParse(s string) Role {
	r, err := Parse(s)
	if err != nil {
		panic("role: " + err.Error() + ": " + s)
	}
	return r
}

func (r Role) String() string {
	if r >= roleCount {
		return ""
	}
	return names[r]
}

// Valid reports whether r is a member of the enum.
func (r Role) Valid() bool {
	return r > Invalid && r < roleCount
}

// Ranked reports whether r takes part in hierarchy comparisons.
func (r Role) Ranked() bool {
	return r.Valid() && rank[r] > 0
}

// Rank returns the numeric privilege of r, zero for Service and invalid values.
func (r Role) Rank() int {
	if !r.Valid() {
		return 0
	}
	return rank[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrInvalidRole
	}
	return []byte(names[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
