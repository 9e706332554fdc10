package tenant

import (
	"context"

	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

// Role is the actor role carried by the authenticated token.
type Role string

const (
	RoleStaff     Role = "staff"
	RoleManager   Role = "manager"
	RoleSuperuser Role = "superuser"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleManager, RoleSuperuser:
		return true
	}
	return false
}

// Context identifies the calling actor: which establishment it acts for and
// with which role. It is resolved by the token issuer, never by this engine.
type Context struct {
	EstablishmentID int64
	Role            Role
}

// Authorize is the single per-operation permission check: a flat decision
// table over (role, actor establishment, target establishment). Every role is
// limited to its own establishment; a cross-tenant override is the token
// issuer's job (it can mint a token for any establishment), so a mismatch is
// reported as NotFound to avoid leaking existence across tenants.
func Authorize(actor Context, targetEstablishment int64) error {
	if !actor.Role.Valid() {
		return errorbank.NotFound("resource not found")
	}
	switch actor.Role {
	case RoleStaff, RoleManager, RoleSuperuser:
		if actor.EstablishmentID != targetEstablishment {
			return errorbank.NotFound("resource not found")
		}
		return nil
	default:
		return errorbank.NotFound("resource not found")
	}
}

type ctxKey struct{}

// NewContext attaches the tenant context to ctx.
func NewContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext extracts the tenant context set by the auth middleware.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}
