package things

import (
	"context"
	"fmt"
	"strings"
)

// Rule is a named predicate evaluated against the caller before an
// operation runs.
type Rule interface {
	Allows(caller Caller) bool
	String() string
}

type hasRoleRule struct {
	role string
}

// HasRole builds the hasRole(role) rule
func HasRole(role string) Rule {
	return hasRoleRule{role: NormalizeRole(role)}
}

func (r hasRoleRule) Allows(caller Caller) bool {
	return Authorize(caller.Roles, r.role)
}

func (r hasRoleRule) String() string {
	return fmt.Sprintf("hasRole('%s')", r.role)
}

type hasAnyRoleRule struct {
	roles []string
}

// HasAnyRole builds the hasAnyRole(roles...) rule
func HasAnyRole(roles ...string) Rule {
	return hasAnyRoleRule{roles: NewRoleSet(roles...).Slice()}
}

func (r hasAnyRoleRule) Allows(caller Caller) bool {
	for _, role := range r.roles {
		if Authorize(caller.Roles, role) {
			return true
		}
	}
	return false
}

func (r hasAnyRoleRule) String() string {
	quoted := make([]string, len(r.roles))
	for i, role := range r.roles {
		quoted[i] = "'" + role + "'"
	}
	return fmt.Sprintf("hasAnyRole(%s)", strings.Join(quoted, ", "))
}

// Check evaluates rules for op against the caller stored in ctx. With no
// rules the call is allowed, caller or not. Otherwise an anonymous caller
// gets ErrUnauthenticated and the first failing rule yields ErrAccessDenied.
// The decision depends only on the caller and the rules, never on the
// arguments of the guarded call.
func Check(ctx context.Context, op Operation, rules ...Rule) error {
	if len(rules) == 0 {
		return nil
	}

	caller, ok := CallerFromContext(ctx)
	if !ok {
		return withMetadata(ErrUnauthenticated, map[string]any{
			"operation": string(op),
		})
	}

	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if !rule.Allows(caller) {
			return withMetadata(ErrAccessDenied, map[string]any{
				"operation": string(op),
				"rule":      rule.String(),
			})
		}
	}

	return nil
}
