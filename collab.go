// Package collab provides versioned, conflict-aware article saving for
// multi-user editing surfaces: an optimistic-concurrency save coordinator,
// per-session auto-save scheduling, and real-time change reconciliation over
// an explicit per-article feed.
package collab

import (
	"github.com/goliatone/go-collab/articles"
	"github.com/goliatone/go-collab/internal/audit"
	"github.com/goliatone/go-collab/internal/autosave"
	auditcmd "github.com/goliatone/go-collab/internal/commands/audit"
	"github.com/goliatone/go-collab/internal/di"
	"github.com/goliatone/go-collab/internal/realtime"
	"github.com/goliatone/go-collab/pkg/interfaces"
	"github.com/google/uuid"
)

// EditorService exports the save coordinator contract.
type EditorService = articles.Service

// AutosaveScheduler exports the per-session background save scheduler.
type AutosaveScheduler = autosave.Scheduler

// Reconciler exports the per-session realtime change reconciler.
type Reconciler = realtime.Reconciler

// ApplyFunc exports the reconciler's wholesale-apply callback type.
type ApplyFunc = realtime.ApplyFunc

// ChangeFeed exports the per-article change feed contract.
type ChangeFeed = interfaces.ChangeFeed

// ArticleChange exports the feed's change notification payload.
type ArticleChange = interfaces.ArticleChange

// AuditRecorder exports the save audit trail contract.
type AuditRecorder = audit.Recorder

// CleanupAuditHandler exports the audit maintenance command handler.
type CleanupAuditHandler = auditcmd.CleanupAuditHandler

// Option exports the DI container option type so hosts can configure New.
type Option = di.Option

// ReconcilerOption exports the reconciler option type.
type ReconcilerOption = realtime.ReconcilerOption

// Container option re-exports for host applications.
var (
	WithIdentityProvider = di.WithIdentityProvider
	WithLoggerProvider   = di.WithLoggerProvider
	WithBunDB            = di.WithBunDB
	WithRedisClient      = di.WithRedisClient
	WithRepository       = di.WithRepository
	WithFeed             = di.WithFeed
	WithAuditRecorder    = di.WithAuditRecorder
	WithEditorService    = di.WithEditorService
)

// WithEcho re-exports the reconciler's own-save metadata hook option.
var WithEcho = realtime.WithEcho

// Module is the top level collaboration runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a collaboration module using the provided configuration and
// optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Editor returns the configured save coordinator.
func (m *Module) Editor() EditorService {
	return m.container.EditorService()
}

// Feed returns the configured change feed. Nil when realtime is disabled.
func (m *Module) Feed() ChangeFeed {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Feed()
}

// Audit returns the configured audit recorder. Nil when auditing is disabled.
func (m *Module) Audit() AuditRecorder {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.AuditRecorder()
}

// Autosave builds an auto-save scheduler for one article edit session.
// Returns nil when the autosave feature is disabled.
func (m *Module) Autosave(articleID uuid.UUID) *AutosaveScheduler {
	return m.container.NewAutosaveScheduler(articleID)
}

// Reconciler builds a realtime reconciler for one article edit session.
// Returns nil when the realtime feature is disabled.
func (m *Module) Reconciler(articleID, sessionUser uuid.UUID, apply ApplyFunc, opts ...ReconcilerOption) *Reconciler {
	return m.container.NewReconciler(articleID, sessionUser, apply, opts...)
}

// AuditCleanup returns the audit cleanup command handler. Nil when auditing
// or the command layer is disabled.
func (m *Module) AuditCleanup() *CleanupAuditHandler {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.CleanupAuditHandler()
}

// Close tears down feeds and container-owned connections.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
