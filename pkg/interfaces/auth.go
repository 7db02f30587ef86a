package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// AdminRole distinguishes elevated operator tiers.
type AdminRole string

const (
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleSuperAdmin AdminRole = "super_admin"
)

// Identity describes the acting user for a single request. It is resolved
// fresh per operation and must never be cached across saves: roles and
// ownership can change between loads.
type Identity struct {
	ID        uuid.UUID
	Email     string
	IsAdmin   bool
	AdminRole AdminRole
}

// IsSuperAdmin reports whether the identity carries the super admin role.
func (i Identity) IsSuperAdmin() bool {
	return i.IsAdmin && i.AdminRole == AdminRoleSuperAdmin
}

// IdentityProvider resolves the current session identity. The collab core
// treats the provider as a black box and consults it once per operation.
type IdentityProvider interface {
	CurrentIdentity(ctx context.Context) (Identity, error)
}

// IdentityProviderFunc adapts a function to the IdentityProvider contract.
type IdentityProviderFunc func(ctx context.Context) (Identity, error)

func (fn IdentityProviderFunc) CurrentIdentity(ctx context.Context) (Identity, error) {
	return fn(ctx)
}
