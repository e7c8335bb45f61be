package role

import "fmt"

var (
	// Privileged is the set of roles allowed to administer identities.
	Privileged = NewSet(SuperAdmin, Admin)
	// Management is the set of roles allowed to manage other identities' resources.
	Management = NewSet(SuperAdmin, Admin, Manager)
)

// Subject is the minimal view of an authenticated identity needed for
// ownership checks.
type Subject struct {
	ID   string
	Role Role
}

// AtLeast returns every role whose rank is greater than or equal to r's.
// Service only matches itself and invalid roles yield an empty set.
func AtLeast(r Role) Set {
	if !r.Valid() {
		return 0
	}
	if !r.Ranked() {
		return NewSet(r)
	}
	var s Set
	for _, candidate := range Hierarchy {
		if rank[candidate] >= rank[r] {
			s.Add(candidate)
		}
	}
	return s
}

// Satisfies reports whether have is at least as privileged as min.
func Satisfies(have, min Role) bool {
	return AtLeast(min).Has(have)
}

// RequireAnyOf is an exact membership check with no hierarchy expansion.
func RequireAnyOf(have Role, allowed ...Role) bool {
	return NewSet(allowed...).Has(have)
}

// CanAssign reports whether actor may grant target to another identity.
//
// SuperAdmin may assign any role. Admin and Manager may assign ranked roles
// strictly below their own rank; Service may be assigned by Admin. Nobody
// else may assign roles.
func CanAssign(actor, target Role) bool {
	if !actor.Valid() || !target.Valid() {
		return false
	}
	if actor == SuperAdmin {
		return true
	}
	if !actor.Ranked() || rank[actor] < rank[Manager] {
		return false
	}
	if !target.Ranked() {
		return rank[actor] >= rank[Admin]
	}
	return rank[target] < rank[actor]
}

// CheckAssign is CanAssign returning ErrForbidden or ErrInvalidRole.
func CheckAssign(actor, target Role) error {
	if !target.Valid() {
		return ErrInvalidRole
	}
	if !CanAssign(actor, target) {
		return fmt.Errorf("%w: %s cannot assign %s", ErrForbidden, actor, target)
	}
	return nil
}

// IsOwnerOrAtLeast reports whether subject owns the resource or holds a role
// of at least min.
func IsOwnerOrAtLeast(subject Subject, ownerID string, min Role) bool {
	if subject.ID != "" && subject.ID == ownerID {
		return true
	}
	return Satisfies(subject.Role, min)
}
