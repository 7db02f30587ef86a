package articles

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotAuthenticated        = errors.New("articles: not authenticated")
	ErrAccessDenied            = errors.New("articles: access denied")
	ErrNotFound                = errors.New("articles: article not found")
	ErrVersionConflict         = errors.New("articles: version conflict")
	ErrSaveFailed              = errors.New("articles: save failed")
	ErrArticleIDRequired       = errors.New("articles: article id required")
	ErrStatusInvalid           = errors.New("articles: editing status invalid")
	ErrStatusTransitionInvalid = errors.New("articles: editing status transition invalid")
	ErrResolutionInvalid       = errors.New("articles: conflict resolution invalid")
)

// AccessDeniedError reports a failed capability check for a specific actor
// and article.
type AccessDeniedError struct {
	UserID     uuid.UUID
	ArticleID  uuid.UUID
	Capability string
}

func (e *AccessDeniedError) Error() string {
	if e == nil {
		return ErrAccessDenied.Error()
	}
	if e.Capability != "" {
		return fmt.Sprintf("%s: requires %s", ErrAccessDenied.Error(), e.Capability)
	}
	return ErrAccessDenied.Error()
}

func (e *AccessDeniedError) Unwrap() error {
	return ErrAccessDenied
}

// VersionConflictError carries the expected and stored versions when a
// compare-and-swap loses the race. This is the authoritative conflict
// signal, independent of any timing heuristic.
type VersionConflictError struct {
	ArticleID       uuid.UUID
	ExpectedVersion int
	ActualVersion   int
}

func (e *VersionConflictError) Error() string {
	if e == nil {
		return ErrVersionConflict.Error()
	}
	if e.ActualVersion > 0 {
		return fmt.Sprintf("%s: expected version %d, stored version %d", ErrVersionConflict.Error(), e.ExpectedVersion, e.ActualVersion)
	}
	return fmt.Sprintf("%s: expected version %d", ErrVersionConflict.Error(), e.ExpectedVersion)
}

func (e *VersionConflictError) Unwrap() error {
	return ErrVersionConflict
}
