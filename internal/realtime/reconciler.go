package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-collab/articles"
	"github.com/goliatone/go-collab/internal/logging"
	"github.com/goliatone/go-collab/pkg/interfaces"
	"github.com/google/uuid"
)

// DefaultSettleWindow is how long the reconciler waits for a burst of foreign
// change events to quiet down before applying the latest one. Chosen well
// under the auto-save debounce so a collaborator's save lands before the local
// session schedules its next one.
const DefaultSettleWindow = 800 * time.Millisecond

// ReconcilerState names the reconciler's subscription lifecycle position.
type ReconcilerState string

const (
	StateUnsubscribed ReconcilerState = "unsubscribed"
	StateSubscribed   ReconcilerState = "subscribed"
	StateSettling     ReconcilerState = "settling"
)

// EchoFunc receives the session's own saves coming back through the feed.
// Only version and provenance metadata should be touched; the local buffer
// already holds the content.
type EchoFunc func(change interfaces.ArticleChange)

// ApplyFunc replaces the session's local article state wholesale with a
// foreign change. Returning an error triggers a reload fallback.
type ApplyFunc func(change interfaces.ArticleChange) error

// ReconcilerOption configures a Reconciler at construction time.
type ReconcilerOption func(*Reconciler)

// WithSettleWindow overrides the foreign-event settle delay.
func WithSettleWindow(window time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if window > 0 {
			r.settle = window
		}
	}
}

// WithEcho registers the own-save metadata hook.
func WithEcho(hook EchoFunc) ReconcilerOption {
	return func(r *Reconciler) {
		r.onEcho = hook
	}
}

// WithReconcilerLogger injects the reconciler logger.
func WithReconcilerLogger(logger interfaces.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Reconciler folds feed notifications for one article back into a single edit
// session. The session's own saves only confirm version and provenance; other
// users' saves are coalesced over a settle window and then applied wholesale,
// latest version wins. When applying fails the reconciler reloads the article
// through the coordinator and applies the authoritative record instead.
type Reconciler struct {
	svc         articles.Service
	feed        interfaces.ChangeFeed
	articleID   uuid.UUID
	sessionUser uuid.UUID
	onApply     ApplyFunc
	onEcho      EchoFunc
	settle      time.Duration
	logger      interfaces.Logger

	mu          sync.Mutex
	sub         interfaces.Subscription
	timer       *time.Timer
	pending     *interfaces.ArticleChange
	lastVersion int
	state       ReconcilerState
	closed      bool
	inflight    sync.WaitGroup
}

// NewReconciler binds a reconciler to one article edit session. apply is
// required; the echo hook is optional.
func NewReconciler(svc articles.Service, feed interfaces.ChangeFeed, articleID, sessionUser uuid.UUID, apply ApplyFunc, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		svc:         svc,
		feed:        feed,
		articleID:   articleID,
		sessionUser: sessionUser,
		onApply:     apply,
		settle:      DefaultSettleWindow,
		logger:      logging.NoOp(),
		state:       StateUnsubscribed,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start subscribes to the article's change channel. A reconciler subscribes
// exactly once; Close is the only way out.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return interfaces.ErrFeedClosed
	}
	if r.sub != nil {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	sub, err := r.feed.Subscribe(ctx, r.articleID, r.receive)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		sub.Cancel()
		return interfaces.ErrFeedClosed
	}
	r.sub = sub
	r.state = StateSubscribed
	r.mu.Unlock()
	return nil
}

// Seed records the version the session loaded with, so redelivered events at
// or below it are dropped instead of reapplied.
func (r *Reconciler) Seed(version int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if version > r.lastVersion {
		r.lastVersion = version
	}
}

// State returns the reconciler's current lifecycle position.
func (r *Reconciler) State() ReconcilerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Close cancels the settle timer, tears down the subscription and waits for
// an in-flight apply to finish.
func (r *Reconciler) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	sub := r.sub
	r.sub = nil
	r.state = StateUnsubscribed
	r.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	r.inflight.Wait()
}

func (r *Reconciler) receive(change interfaces.ArticleChange) {
	r.mu.Lock()

	if r.closed || change.ArticleID != r.articleID {
		r.mu.Unlock()
		return
	}

	if change.LastEditedBy == r.sessionUser {
		if change.Version > r.lastVersion {
			r.lastVersion = change.Version
		}
		echo := r.onEcho
		r.mu.Unlock()
		if echo != nil {
			echo(change)
		}
		return
	}

	// Duplicate or out-of-order redelivery of something already applied.
	if change.Version <= r.lastVersion && (r.pending == nil || change.Version <= r.pending.Version) {
		r.mu.Unlock()
		return
	}

	if r.pending == nil || change.Version > r.pending.Version {
		copied := change
		r.pending = &copied
	}
	r.state = StateSettling
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.settle, r.apply)
	r.mu.Unlock()
}

func (r *Reconciler) apply() {
	r.mu.Lock()
	if r.closed || r.pending == nil {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	change := *r.pending
	r.pending = nil
	r.state = StateSubscribed
	r.inflight.Add(1)
	r.mu.Unlock()

	defer r.inflight.Done()

	if err := r.onApply(change); err != nil {
		r.logger.Warn("realtime.apply_failed",
			"article_id", r.articleID.String(),
			"version", change.Version,
			"error", err,
		)
		r.reload()
		return
	}

	r.mu.Lock()
	if change.Version > r.lastVersion {
		r.lastVersion = change.Version
	}
	r.mu.Unlock()
}

// reload fetches the authoritative record and applies it, discarding the
// event that failed to apply.
func (r *Reconciler) reload() {
	result, err := r.svc.Load(context.Background(), r.articleID)
	if err != nil {
		r.logger.Error("realtime.reload_failed",
			"article_id", r.articleID.String(),
			"error", err,
		)
		return
	}

	record := result.Article
	change := interfaces.ArticleChange{
		ArticleID:    record.ID,
		Version:      record.Version,
		Content:      record.Content,
		Status:       record.EditingStatus.String(),
		LastEditedBy: record.LastEditedBy,
		UpdatedAt:    record.UpdatedAt,
	}
	if err := r.onApply(change); err != nil {
		r.logger.Error("realtime.reload_apply_failed",
			"article_id", r.articleID.String(),
			"version", change.Version,
			"error", err,
		)
		return
	}

	r.mu.Lock()
	if change.Version > r.lastVersion {
		r.lastVersion = change.Version
	}
	r.mu.Unlock()
}
