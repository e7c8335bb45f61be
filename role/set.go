package role

import "strings"

// Set is a bitset of roles. Bit n is set when Role(n) is a member.
type Set uint8

// NewSet builds a Set from the given roles, ignoring invalid ones.
func NewSet(roles ...Role) Set {
	var s Set
	for _, r := range roles {
		s.Add(r)
	}
	return s
}

// Has reports whether r is a member of s.
func (s Set) Has(r Role) bool {
	if !r.Valid() {
		return false
	}
	return s&(1<<r) != 0
}

// Add inserts r into s.
func (s *Set) Add(r Role) {
	if !r.Valid() {
		return
	}
	*s |= 1 << r
}

// Remove deletes r from s.
func (s *Set) Remove(r Role) {
	if !r.Valid() {
		return
	}
	*s &^= 1 << r
}

// Len returns the number of members.
func (s Set) Len() int {
	n := 0
	for r := SuperAdmin; r < roleCount; r++ {
		if s.Has(r) {
			n++
		}
	}
	return n
}

// Roles returns the members in hierarchy order, Service last.
func (s Set) Roles() []Role {
	out := make([]Role, 0, s.Len())
	for _, r := range All {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s Set) String() string {
	roles := s.Roles()
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = r.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
