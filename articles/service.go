package articles

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-collab/domain"
	"github.com/google/uuid"
)

// Service exposes the article save/conflict-resolution use cases consumed by
// editing surfaces. Explicit saves surface every failure to the caller;
// AutoSave keeps recoverable failures quiet and reports them only through the
// returned result so the scheduler retries later.
type Service interface {
	Load(ctx context.Context, id uuid.UUID) (*LoadResult, error)
	Save(ctx context.Context, req SaveRequest) (*SaveResult, error)
	AutoSave(ctx context.Context, id uuid.UUID, content string) (*SaveResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (*SaveResult, error)
}

// Validate checks the request shape before any I/O is attempted. An empty
// resolution is allowed and defaults to abort inside the coordinator.
func (r SaveRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.ConflictResolution, validation.In(ResolutionAbort, ResolutionForce, ResolutionMerge)),
	); err != nil {
		return ErrResolutionInvalid
	}
	if r.ArticleID == uuid.Nil {
		return ErrArticleIDRequired
	}
	if r.EditingStatus != nil && !r.EditingStatus.Valid() {
		return ErrStatusInvalid
	}
	return nil
}
