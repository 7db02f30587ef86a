package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-collab/articles"
	"github.com/goliatone/go-collab/domain"
	"github.com/goliatone/go-collab/internal/audit"
	"github.com/goliatone/go-collab/internal/logging"
	"github.com/goliatone/go-collab/internal/permissions"
	"github.com/goliatone/go-collab/internal/store"
	"github.com/goliatone/go-collab/pkg/interfaces"
	"github.com/google/uuid"
)

// DefaultConflictWindow is the near-simultaneous-edit heuristic window. Two
// writes by different actors inside this window are flagged as a likely
// conflict before the storage-level version check runs. The window is an
// optimization, never a correctness mechanism: the compare-and-swap verdict
// always overrides it.
const DefaultConflictWindow = 5 * time.Second

// ServiceOption configures the coordinator at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used for heuristics and provenance stamps.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithConflictWindow overrides the heuristic conflict window.
func WithConflictWindow(window time.Duration) ServiceOption {
	return func(s *service) {
		if window > 0 {
			s.conflictWindow = window
		}
	}
}

// WithFeed attaches the change feed notified after every successful swap.
func WithFeed(feed interfaces.ChangeFeed) ServiceOption {
	return func(s *service) {
		s.feed = feed
	}
}

// WithAuditRecorder attaches an audit trail for save and status operations.
func WithAuditRecorder(recorder audit.Recorder) ServiceOption {
	return func(s *service) {
		s.audit = recorder
	}
}

// WithLogger injects the coordinator logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// service implements articles.Service. It orchestrates
// load -> permission check -> conflict heuristic -> compare-and-swap ->
// change fan-out for every mutation in the system.
type service struct {
	repo           store.Repository
	identity       interfaces.IdentityProvider
	feed           interfaces.ChangeFeed
	audit          audit.Recorder
	logger         interfaces.Logger
	now            func() time.Time
	conflictWindow time.Duration
}

// NewService constructs the save coordinator with the required dependencies.
func NewService(repo store.Repository, identity interfaces.IdentityProvider, opts ...ServiceOption) articles.Service {
	s := &service{
		repo:           repo,
		identity:       identity,
		logger:         logging.NoOp(),
		now:            time.Now,
		conflictWindow: DefaultConflictWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the article and resolves the caller's capability set. The
// permission set is computed fresh from the loaded record and is only valid
// for this snapshot.
func (s *service) Load(ctx context.Context, id uuid.UUID) (*articles.LoadResult, error) {
	if id == uuid.Nil {
		return nil, articles.ErrArticleIDRequired
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &articles.LoadResult{
		Article:     record,
		Permissions: permissions.Resolve(user, record.OwnerUserID),
	}, nil
}

// Save runs a full content save. Explicit saves surface every failure;
// auto-saves route through AutoSave which keeps recoverable failures quiet.
func (s *service) Save(ctx context.Context, req articles.SaveRequest) (*articles.SaveResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.GetByID(ctx, req.ArticleID)
	if err != nil {
		return nil, err
	}

	perms := permissions.Resolve(user, record.OwnerUserID)
	if !perms.CanEdit {
		return nil, &articles.AccessDeniedError{
			UserID:     user.ID,
			ArticleID:  req.ArticleID,
			Capability: permissions.CapabilityEdit,
		}
	}
	if req.EditingStatus != nil {
		if !perms.CanChangeStatus {
			return nil, &articles.AccessDeniedError{
				UserID:     user.ID,
				ArticleID:  req.ArticleID,
				Capability: permissions.CapabilityChangeStatus,
			}
		}
		if !record.EditingStatus.CanTransition(*req.EditingStatus) {
			return nil, articles.ErrStatusTransitionInvalid
		}
	}

	resolution := req.ConflictResolution
	if resolution == "" {
		resolution = articles.ResolutionAbort
	}

	now := s.now()
	conflictDetected := s.likelyConcurrentEdit(record, user.ID, now)

	logger := logging.WithFields(s.logger, map[string]any{
		"article_id": req.ArticleID.String(),
		"version":    record.Version,
		"resolution": string(resolution),
		"auto_save":  req.IsAutoSave,
	})

	if conflictDetected && resolution == articles.ResolutionAbort {
		logger.Info("editor.save.aborted_on_heuristic", "last_edited_by", record.LastEditedBy.String())
		result := &articles.SaveResult{
			ConflictDetected: true,
			VersionNumber:    record.Version,
		}
		return result, &articles.VersionConflictError{
			ArticleID:       req.ArticleID,
			ExpectedVersion: record.Version,
		}
	}

	content := req.Content
	mutation := store.Mutation{
		Content:       &content,
		EditingStatus: req.EditingStatus,
		EditedBy:      user.ID,
		EditedAt:      now,
	}

	updated, err := s.repo.CompareAndSwap(ctx, req.ArticleID, record.Version, mutation)
	if err != nil {
		return s.swapFailure(ctx, logger, req.ArticleID, record.Version, err)
	}

	result := &articles.SaveResult{
		Success:          true,
		Article:          updated,
		ConflictDetected: conflictDetected,
		ResolvedConflict: conflictDetected && resolution == articles.ResolutionForce,
		VersionNumber:    updated.Version,
	}

	logger.Debug("editor.save.committed", "new_version", updated.Version)
	s.publishChange(ctx, updated, user.ID)
	s.recordAudit(ctx, updated, user.ID, saveAction(req.IsAutoSave), map[string]any{
		"conflict_detected": conflictDetected,
		"resolution":        string(resolution),
	})

	return result, nil
}

// AutoSave issues a background save under the merge policy. Version conflicts
// and storage failures are logged and reported only through the result so
// the scheduler keeps its dirty flag set and a later flush retries; fatal
// errors (authentication, permission, missing article) still surface.
func (s *service) AutoSave(ctx context.Context, id uuid.UUID, content string) (*articles.SaveResult, error) {
	result, err := s.Save(ctx, articles.SaveRequest{
		ArticleID:          id,
		Content:            content,
		ConflictResolution: articles.ResolutionMerge,
		IsAutoSave:         true,
	})
	if err == nil {
		return result, nil
	}
	if errors.Is(err, articles.ErrVersionConflict) || errors.Is(err, articles.ErrSaveFailed) {
		s.logger.Debug("editor.autosave.suppressed", "article_id", id.String(), "error", err)
		if result == nil {
			result = &articles.SaveResult{}
		}
		return result, nil
	}
	return result, err
}

// UpdateStatus performs a status-only save. It follows the same
// compare-and-swap discipline as content saves but skips the content
// heuristic entirely; legality of the transition is checked against the
// loaded snapshot.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (*articles.SaveResult, error) {
	if id == uuid.Nil {
		return nil, articles.ErrArticleIDRequired
	}
	if !status.Valid() {
		return nil, articles.ErrStatusInvalid
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	perms := permissions.Resolve(user, record.OwnerUserID)
	if !perms.CanChangeStatus {
		return nil, &articles.AccessDeniedError{
			UserID:     user.ID,
			ArticleID:  id,
			Capability: permissions.CapabilityChangeStatus,
		}
	}
	if !record.EditingStatus.CanTransition(status) {
		return nil, articles.ErrStatusTransitionInvalid
	}

	logger := logging.WithFields(s.logger, map[string]any{
		"article_id": id.String(),
		"version":    record.Version,
		"status":     status.String(),
	})

	updated, err := s.repo.CompareAndSwap(ctx, id, record.Version, store.Mutation{
		EditingStatus: &status,
		EditedBy:      user.ID,
		EditedAt:      s.now(),
	})
	if err != nil {
		return s.swapFailure(ctx, logger, id, record.Version, err)
	}

	logger.Debug("editor.status.committed", "new_version", updated.Version)
	s.publishChange(ctx, updated, user.ID)
	s.recordAudit(ctx, updated, user.ID, "status", map[string]any{
		"status": status.String(),
	})

	return &articles.SaveResult{
		Success:       true,
		Article:       updated,
		VersionNumber: updated.Version,
	}, nil
}

// currentUser resolves the acting identity, mapping absence to the
// not-authenticated failure.
func (s *service) currentUser(ctx context.Context) (interfaces.Identity, error) {
	if s.identity == nil {
		return interfaces.Identity{}, articles.ErrNotAuthenticated
	}
	user, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return interfaces.Identity{}, fmt.Errorf("%w: %v", articles.ErrNotAuthenticated, err)
	}
	if user.ID == uuid.Nil {
		return interfaces.Identity{}, articles.ErrNotAuthenticated
	}
	return user, nil
}

// likelyConcurrentEdit flags a save when somebody else wrote inside the
// heuristic window. False negatives are fine: the version check catches them.
func (s *service) likelyConcurrentEdit(record *articles.Article, userID uuid.UUID, now time.Time) bool {
	if record.LastEditedBy == uuid.Nil || record.LastEditedBy == userID {
		return false
	}
	if record.LastEditedAt.IsZero() {
		return false
	}
	return now.Sub(record.LastEditedAt) < s.conflictWindow
}

// swapFailure translates compare-and-swap errors into save results. A version
// mismatch is the authoritative conflict signal and always reports
// ConflictDetected, whatever the earlier heuristic said.
func (s *service) swapFailure(ctx context.Context, logger interfaces.Logger, id uuid.UUID, expectedVersion int, err error) (*articles.SaveResult, error) {
	var conflict *articles.VersionConflictError
	if errors.As(err, &conflict) {
		logger.Info("editor.save.version_conflict", "expected", conflict.ExpectedVersion, "actual", conflict.ActualVersion)
		s.recordConflict(ctx, id, conflict)
		return &articles.SaveResult{
			ConflictDetected: true,
			VersionNumber:    expectedVersion,
		}, conflict
	}

	var notFound *store.NotFoundError
	if errors.As(err, &notFound) {
		return nil, err
	}

	logger.Error("editor.save.storage_failure", "error", err)
	return &articles.SaveResult{
		VersionNumber: expectedVersion,
	}, fmt.Errorf("%w: %v", articles.ErrSaveFailed, err)
}

func (s *service) publishChange(ctx context.Context, record *articles.Article, editedBy uuid.UUID) {
	if s.feed == nil {
		return
	}
	change := interfaces.ArticleChange{
		ArticleID:    record.ID,
		Version:      record.Version,
		Content:      record.Content,
		Status:       record.EditingStatus.String(),
		LastEditedBy: editedBy,
		UpdatedAt:    record.UpdatedAt,
	}
	if err := s.feed.Publish(ctx, change); err != nil {
		// The save already committed; a dropped notification only delays
		// other sessions until their next reload.
		s.logger.Warn("editor.feed.publish_failed", "article_id", record.ID.String(), "error", err)
	}
}

func (s *service) recordAudit(ctx context.Context, record *articles.Article, actorID uuid.UUID, action string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, audit.Event{
		ArticleID:  record.ID.String(),
		Action:     action,
		ActorID:    actorID.String(),
		Version:    record.Version,
		OccurredAt: s.now(),
		Metadata:   metadata,
	})
}

func (s *service) recordConflict(ctx context.Context, id uuid.UUID, conflict *articles.VersionConflictError) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, audit.Event{
		ArticleID:  id.String(),
		Action:     "conflict",
		OccurredAt: s.now(),
		Metadata: map[string]any{
			"expected_version": conflict.ExpectedVersion,
			"actual_version":   conflict.ActualVersion,
		},
	})
}

func saveAction(isAutoSave bool) string {
	if isAutoSave {
		return "autosave"
	}
	return "save"
}
