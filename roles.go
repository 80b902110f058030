package things

import (
	"sort"
	"strings"
)

// RolePrefix is the authority prefix role names may carry. It is ignored when
// comparing roles so "ROLE_USER" and "USER" name the same role.
const RolePrefix = "ROLE_"

const (
	// RoleUser is the role granted to the default principal
	RoleUser = "USER"
	// RoleBogus is the role required to read things. No configured principal
	// holds it by default.
	RoleBogus = "BOGUS"
)

// NormalizeRole trims, upper-cases and strips the authority prefix
func NormalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(role, RolePrefix)
}

// RoleSet is a set of normalized role names
type RoleSet map[string]struct{}

// NewRoleSet builds a set from raw role names, dropping empty entries
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r = NormalizeRole(r); r != "" {
			set[r] = struct{}{}
		}
	}
	return set
}

// Has checks if the set contains role
func (s RoleSet) Has(role string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[NormalizeRole(role)]
	return ok
}

// Slice returns the roles sorted alphabetically
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Authorize is the hasRole predicate: it reports whether the intersection of
// roles and the required role is non-empty.
func Authorize(roles []string, required string) bool {
	required = NormalizeRole(required)
	if required == "" {
		return false
	}
	for _, r := range roles {
		if NormalizeRole(r) == required {
			return true
		}
	}
	return false
}
