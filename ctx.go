package things

import (
	"context"
)

var callerCtxKey = &contextKey{"caller"}

type contextKey struct {
	name string
}

// Caller is the authenticated actor invoking a repository operation
type Caller struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// CallerFromIdentity builds a Caller out of a verified identity
func CallerFromIdentity(identity Identity) Caller {
	if identity == nil {
		return Caller{}
	}
	return Caller{
		ID:       identity.ID(),
		Username: identity.Username(),
		Roles:    NewRoleSet(identity.Roles()...).Slice(),
	}
}

// IsAnonymous reports whether the caller carries no identity
func (c Caller) IsAnonymous() bool {
	return c.Username == "" && c.ID == ""
}

// HasRole checks if the caller holds role
func (c Caller) HasRole(role string) bool {
	return Authorize(c.Roles, role)
}

// WithCaller sets the Caller in the given context
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey, caller)
}

// CallerFromContext finds the caller in the context. Anonymous callers are
// reported as missing.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	caller, ok := ctx.Value(callerCtxKey).(Caller)
	if !ok || caller.IsAnonymous() {
		return Caller{}, false
	}
	return caller, true
}
