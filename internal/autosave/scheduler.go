package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-collab/articles"
	"github.com/goliatone/go-collab/internal/logging"
	"github.com/goliatone/go-collab/pkg/interfaces"
	"github.com/google/uuid"
)

// DefaultDebounce is the quiet period required before a background save is
// issued. Each new edit restarts the wait (pure debounce, not throttle).
const DefaultDebounce = 2 * time.Second

// State names the scheduler's position in its save cycle.
type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateSaving  State = "saving"
	StateClosed  State = "closed"
)

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithDebounce overrides the debounce delay.
func WithDebounce(delay time.Duration) Option {
	return func(s *Scheduler) {
		if delay > 0 {
			s.debounce = delay
		}
	}
}

// WithClock overrides the clock used for the last-saved stamp.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger injects the scheduler logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scheduler debounces background saves for a single article edit session.
// Content changes arm a timer; the timer fire issues an auto-save through the
// coordinator. Failed auto-saves leave the unsaved flag set so a later flush
// or explicit save retries. The zero of everything is not usable; construct
// through NewScheduler.
type Scheduler struct {
	svc       articles.Service
	articleID uuid.UUID
	debounce  time.Duration
	logger    interfaces.Logger
	now       func() time.Time

	mu          sync.Mutex
	timer       *time.Timer
	state       State
	primed      bool
	lastSaved   string
	pending     string
	hasUnsaved  bool
	version     int
	lastSavedAt time.Time
	closed      bool
	inflight    sync.WaitGroup
}

// NewScheduler binds a scheduler to one article's edit session.
func NewScheduler(svc articles.Service, articleID uuid.UUID, opts ...Option) *Scheduler {
	s := &Scheduler{
		svc:       svc,
		articleID: articleID,
		debounce:  DefaultDebounce,
		logger:    logging.NoOp(),
		now:       time.Now,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Track records the current editor serialization. The very first call only
// primes the known-saved snapshot — an article load must not mark itself
// dirty. Subsequent calls with differing content mark the session unsaved
// and restart the debounce timer.
func (s *Scheduler) Track(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if !s.primed {
		s.primed = true
		s.lastSaved = content
		return
	}
	if content == s.lastSaved && !s.hasUnsaved {
		return
	}

	s.pending = content
	s.hasUnsaved = true
	s.armTimerLocked()
}

// Flush cancels any pending timer and saves immediately, waiting for the
// result. Used on navigation-away and explicit save actions, so failures are
// surfaced to the caller. Returns a nil result when there is nothing to save.
func (s *Scheduler) Flush(ctx context.Context) (*articles.SaveResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil
	}
	s.cancelTimerLocked()
	if !s.hasUnsaved {
		s.state = StateIdle
		s.mu.Unlock()
		return nil, nil
	}
	content := s.pending
	s.state = StateSaving
	s.inflight.Add(1)
	s.mu.Unlock()

	result, err := s.svc.Save(ctx, articles.SaveRequest{
		ArticleID:          s.articleID,
		Content:            content,
		ConflictResolution: articles.ResolutionForce,
	})

	s.mu.Lock()
	s.settleLocked(content, result, err == nil)
	s.inflight.Done()
	s.mu.Unlock()

	return result, err
}

// Accept resets the known-saved snapshot after an external change was applied
// to the editor, discarding any pending auto-save of the stale local view.
func (s *Scheduler) Accept(content string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cancelTimerLocked()
	s.primed = true
	s.lastSaved = content
	s.pending = content
	s.hasUnsaved = false
	if version > s.version {
		s.version = version
	}
	if s.state == StatePending {
		s.state = StateIdle
	}
}

// Close cancels any pending timer and waits for an in-flight save to run to
// completion. The scheduler is unusable afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelTimerLocked()
	s.state = StateClosed
	s.mu.Unlock()

	s.inflight.Wait()
}

// HasUnsavedChanges reports whether edits exist that have not been confirmed
// saved. It stays true across failed auto-saves so data is never silently
// considered safe.
func (s *Scheduler) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasUnsaved
}

// Version returns the last version number confirmed saved or accepted.
func (s *Scheduler) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// LastSavedAt returns when the last successful save completed.
func (s *Scheduler) LastSavedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSavedAt
}

// State returns the scheduler's current position in the save cycle.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) armTimerLocked() {
	s.cancelTimerLocked()
	s.state = StatePending
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

func (s *Scheduler) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.state = StateSaving
	content := s.pending
	s.inflight.Add(1)
	s.mu.Unlock()

	result, err := s.svc.AutoSave(context.Background(), s.articleID, content)
	if err != nil {
		// Fatal failures (identity, permissions, missing article) cannot be
		// retried by waiting; the session owner has to act.
		s.logger.Error("autosave.save_failed", "article_id", s.articleID.String(), "error", err)
	}

	s.mu.Lock()
	s.settleLocked(content, result, err == nil)
	s.inflight.Done()
	s.mu.Unlock()
}

// settleLocked folds a completed save back into the session state. A newer
// pending edit keeps the session dirty even when this save succeeded.
func (s *Scheduler) settleLocked(saved string, result *articles.SaveResult, clean bool) {
	if clean && result != nil && result.Success {
		s.lastSaved = saved
		s.lastSavedAt = s.now()
		if result.VersionNumber > s.version {
			s.version = result.VersionNumber
		}
		if s.pending == saved {
			s.hasUnsaved = false
		}
	}
	if s.closed {
		s.state = StateClosed
		return
	}
	if s.timer != nil {
		s.state = StatePending
		return
	}
	s.state = StateIdle
}
