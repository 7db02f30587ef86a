package articles

import (
	"time"

	"github.com/goliatone/go-collab/domain"
	"github.com/goliatone/go-collab/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Article is the authoritative document state. Version is the sole
// concurrency-control token: it increases by exactly one per successful save
// and never decreases. Content and provenance mutate only through the save
// coordinator's compare-and-swap path.
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID            uuid.UUID     `bun:",pk,type:uuid" json:"id"`
	Content       string        `bun:"content,notnull" json:"content"`
	Version       int           `bun:"version,notnull,default:1" json:"version"`
	EditingStatus domain.Status `bun:"editing_status,notnull,default:'draft'" json:"editing_status"`
	OwnerUserID   uuid.UUID     `bun:"owner_user_id,notnull,type:uuid" json:"owner_user_id"`
	LastEditedBy  uuid.UUID     `bun:"last_edited_by,notnull,type:uuid" json:"last_edited_by"`
	LastEditedAt  time.Time     `bun:"last_edited_at,nullzero,default:current_timestamp" json:"last_edited_at"`
	CreatedAt     time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Clone returns a deep copy so repository callers can mutate freely.
func (a *Article) Clone() *Article {
	if a == nil {
		return nil
	}
	copied := *a
	return &copied
}

// UserContext is the ephemeral per-request identity resolved from the
// identity collaborator.
type UserContext = interfaces.Identity

// Permissions is the capability set derived from (UserContext, owner). It is
// computed fresh from the loaded record on every operation and never stored.
type Permissions struct {
	CanEdit              bool `json:"can_edit"`
	CanChangeStatus      bool `json:"can_change_status"`
	CanTransferOwnership bool `json:"can_transfer_ownership"`
	CanDelete            bool `json:"can_delete"`
}

// ConflictResolution selects how a save treats the near-simultaneous-edit
// heuristic. Only the storage-level version check is authoritative; the
// heuristic short-circuits obviously conflicting writes before they are
// attempted.
type ConflictResolution string

const (
	// ResolutionAbort rejects the save when the heuristic fires, without
	// attempting a write. Safest policy; may reject saves that would have
	// succeeded at the version check.
	ResolutionAbort ConflictResolution = "abort"
	// ResolutionForce proceeds to the compare-and-swap regardless of the
	// heuristic. A genuine concurrent write still fails the version check.
	ResolutionForce ConflictResolution = "force"
	// ResolutionMerge is the auto-save policy. It does not reconcile content:
	// it behaves like ResolutionForce but failures are kept out of the user's
	// way and surface only through the result, so a later explicit save can
	// retry. The name is retained for API compatibility with save callers.
	ResolutionMerge ConflictResolution = "merge"
)

// Valid reports whether the resolution names a known policy.
func (r ConflictResolution) Valid() bool {
	switch r {
	case ResolutionAbort, ResolutionForce, ResolutionMerge:
		return true
	}
	return false
}

// SaveRequest captures a single content (and optionally status) save.
type SaveRequest struct {
	ArticleID          uuid.UUID
	Content            string
	EditingStatus      *domain.Status
	ConflictResolution ConflictResolution
	IsAutoSave         bool
}

// SaveResult reports the outcome of a save attempt. ConflictDetected is set
// by either the timing heuristic or the authoritative version check;
// ResolvedConflict is set when a heuristic-flagged save was pushed through
// under the force policy.
type SaveResult struct {
	Success          bool     `json:"success"`
	Article          *Article `json:"article,omitempty"`
	ConflictDetected bool     `json:"conflict_detected"`
	ResolvedConflict bool     `json:"resolved_conflict"`
	VersionNumber    int      `json:"version_number"`
}

// LoadResult bundles the loaded record with the caller's freshly resolved
// capability set.
type LoadResult struct {
	Article     *Article    `json:"article"`
	Permissions Permissions `json:"permissions"`
}
