package store

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-collab/articles"
	"github.com/goliatone/go-collab/domain"
	"github.com/google/uuid"
)

// Mutation describes the state a successful compare-and-swap applies. Nil
// fields are left untouched; provenance is stamped unconditionally.
type Mutation struct {
	Content       *string
	EditingStatus *domain.Status
	EditedBy      uuid.UUID
	EditedAt      time.Time
}

// Repository abstracts storage operations for article records. CompareAndSwap
// is the single atomicity boundary in the system: it applies the mutation and
// increments the version only when the stored version still equals
// expectedVersion at the moment of application, and otherwise applies nothing.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Article, error)
	CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion int, mutation Mutation) (*Article, error)
	Insert(ctx context.Context, record *Article) (*Article, error)
}

// NotFoundError represents missing records from repository lookups.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return articles.ErrNotFound
}
