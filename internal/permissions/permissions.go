package permissions

import (
	"github.com/goliatone/go-collab/articles"
	"github.com/goliatone/go-collab/pkg/interfaces"
	"github.com/google/uuid"
)

// Capability names used in access-denied reporting.
const (
	CapabilityEdit              = "articles:edit"
	CapabilityChangeStatus      = "articles:change_status"
	CapabilityTransferOwnership = "articles:transfer_ownership"
	CapabilityDelete            = "articles:delete"
)

// Resolve computes the capability set for a user acting on an article owned
// by ownerID. It is pure and total: no side effects, no error path. Callers
// must re-resolve after every load — ownership and roles can be changed by
// another actor between loads, so a cached set may grant stale capabilities.
func Resolve(user interfaces.Identity, ownerID uuid.UUID) articles.Permissions {
	isOwner := user.ID != uuid.Nil && user.ID == ownerID
	isSuper := user.IsSuperAdmin()

	return articles.Permissions{
		CanEdit:              isOwner || user.IsAdmin,
		CanChangeStatus:      isOwner || user.IsAdmin,
		CanTransferOwnership: isSuper,
		CanDelete:            isSuper || (user.IsAdmin && !isOwner),
	}
}
