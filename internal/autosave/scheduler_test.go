package autosave

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-collab/articles"
	"github.com/goliatone/go-collab/domain"
	"github.com/google/uuid"
)

type stubService struct {
	mu        sync.Mutex
	autosaves []string
	saves     []articles.SaveRequest
	result    *articles.SaveResult
	err       error
	started   chan struct{}
	release   chan struct{}
}

func newStubService() *stubService {
	return &stubService{
		result: &articles.SaveResult{Success: true, VersionNumber: 2},
	}
}

func (s *stubService) Load(context.Context, uuid.UUID) (*articles.LoadResult, error) {
	return nil, articles.ErrNotFound
}

func (s *stubService) Save(_ context.Context, req articles.SaveRequest) (*articles.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, req)
	return s.result, s.err
}

func (s *stubService) AutoSave(_ context.Context, _ uuid.UUID, content string) (*articles.SaveResult, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosaves = append(s.autosaves, content)
	return s.result, s.err
}

func (s *stubService) UpdateStatus(context.Context, uuid.UUID, domain.Status) (*articles.SaveResult, error) {
	return nil, articles.ErrNotFound
}

func (s *stubService) autosaveLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.autosaves))
	copy(out, s.autosaves)
	return out
}

func (s *stubService) saveLog() []articles.SaveRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]articles.SaveRequest, len(s.saves))
	copy(out, s.saves)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestTrackSkipsInitialSnapshot(t *testing.T) {
	svc := newStubService()
	scheduler := NewScheduler(svc, uuid.New(), WithDebounce(20*time.Millisecond))
	defer scheduler.Close()

	scheduler.Track("loaded content")

	time.Sleep(80 * time.Millisecond)
	if got := svc.autosaveLog(); len(got) != 0 {
		t.Fatalf("expected no auto-save after initial snapshot, got %v", got)
	}
	if scheduler.HasUnsavedChanges() {
		t.Fatalf("expected initial snapshot to leave session clean")
	}
	if state := scheduler.State(); state != StateIdle {
		t.Fatalf("expected idle state, got %s", state)
	}
}

func TestDebounceCoalescesRapidEdits(t *testing.T) {
	svc := newStubService()
	scheduler := NewScheduler(svc, uuid.New(), WithDebounce(40*time.Millisecond))
	defer scheduler.Close()

	scheduler.Track("base")
	scheduler.Track("base a")
	scheduler.Track("base ab")
	scheduler.Track("base abc")

	waitFor(t, func() bool { return len(svc.autosaveLog()) == 1 })

	if got := svc.autosaveLog(); got[0] != "base abc" {
		t.Fatalf("expected latest content saved, got %q", got[0])
	}
	waitFor(t, func() bool { return !scheduler.HasUnsavedChanges() })
	if state := scheduler.State(); state != StateIdle {
		t.Fatalf("expected idle state after save, got %s", state)
	}
	if scheduler.Version() != 2 {
		t.Fatalf("expected confirmed version 2, got %d", scheduler.Version())
	}

	time.Sleep(100 * time.Millisecond)
	if got := svc.autosaveLog(); len(got) != 1 {
		t.Fatalf("expected a single coalesced save, got %d", len(got))
	}
}

func TestDebounceRestartsOnEachEdit(t *testing.T) {
	svc := newStubService()
	scheduler := NewScheduler(svc, uuid.New(), WithDebounce(120*time.Millisecond))
	defer scheduler.Close()

	scheduler.Track("base")
	scheduler.Track("edit one")
	time.Sleep(60 * time.Millisecond)
	scheduler.Track("edit two")
	time.Sleep(60 * time.Millisecond)

	if got := svc.autosaveLog(); len(got) != 0 {
		t.Fatalf("expected debounce to restart on second edit, got %v", got)
	}
	if state := scheduler.State(); state != StatePending {
		t.Fatalf("expected pending state while timer armed, got %s", state)
	}

	waitFor(t, func() bool { return len(svc.autosaveLog()) == 1 })
	if got := svc.autosaveLog(); got[0] != "edit two" {
		t.Fatalf("expected latest edit saved, got %q", got[0])
	}
}

func TestFailedAutoSaveKeepsUnsavedFlag(t *testing.T) {
	svc := newStubService()
	svc.result = &articles.SaveResult{Success: false, ConflictDetected: true}
	scheduler := NewScheduler(svc, uuid.New(), WithDebounce(20*time.Millisecond))
	defer scheduler.Close()

	scheduler.Track("base")
	scheduler.Track("unsaved edit")

	waitFor(t, func() bool { return len(svc.autosaveLog()) == 1 })

	if !scheduler.HasUnsavedChanges() {
		t.Fatalf("expected failed save to keep the session dirty")
	}
	if !scheduler.LastSavedAt().IsZero() {
		t.Fatalf("expected no last-saved stamp after failed save")
	}
}

func TestLaterEditDuringSaveStaysDirty(t *testing.T) {
	svc := newStubService()
	svc.started = make(chan struct{}, 1)
	svc.release = make(chan struct{})
	scheduler := NewScheduler(svc, uuid.New(), WithDebounce(10*time.Millisecond))

	scheduler.Track("base")
	scheduler.Track("first edit")
	<-svc.started

	scheduler.Track("second edit")
	svc.release <- struct{}{}

	waitFor(t, func() bool { return len(svc.autosaveLog()) == 1 })
	if !scheduler.HasUnsavedChanges() {
		t.Fatalf("expected newer edit to keep session dirty after stale save landed")
	}

	svc.release <- struct{}{}
	waitFor(t, func() bool { return len(svc.autosaveLog()) == 2 })
	scheduler.Close()

	log := svc.autosaveLog()
	if log[1] != "second edit" {
		t.Fatalf("expected follow-up save of newest edit, got %q", log[1])
	}
}

func TestFlushSavesSynchronously(t *testing.T) {
	svc := newStubService()
	svc.result = &articles.SaveResult{Success: true, VersionNumber: 7}
	scheduler := NewScheduler(svc, uuid.New(), WithDebounce(time.Minute))
	defer scheduler.Close()

	scheduler.Track("base")
	scheduler.Track("final edit")

	result, err := scheduler.Flush(context.Background())
	if err != nil {
		t.Fatalf("expected flush to succeed, got %v", err)
	}
	if result == nil || result.VersionNumber != 7 {
		t.Fatalf("expected save result from flush, got %+v", result)
	}

	saves := svc.saveLog()
	if len(saves) != 1 {
		t.Fatalf("expected one explicit save, got %d", len(saves))
	}
	if saves[0].Content != "final edit" {
		t.Fatalf("expected flush to save pending content, got %q", saves[0].Content)
	}
	if saves[0].ConflictResolution != articles.ResolutionForce {
		t.Fatalf("expected explicit save resolution, got %q", saves[0].ConflictResolution)
	}
	if scheduler.HasUnsavedChanges() {
		t.Fatalf("expected flush to clear unsaved flag")
	}

	time.Sleep(50 * time.Millisecond)
	if got := svc.autosaveLog(); len(got) != 0 {
		t.Fatalf("expected flush to cancel the pending timer, got %v", got)
	}
}

func TestFlushWithoutChangesIsNoOp(t *testing.T) {
	svc := newStubService()
	scheduler := NewScheduler(svc, uuid.New())
	defer scheduler.Close()

	scheduler.Track("base")

	result, err := scheduler.Flush(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result when nothing is pending, got %+v", result)
	}
	if len(svc.saveLog()) != 0 {
		t.Fatalf("expected no save call")
	}
}

func TestAcceptDiscardsPendingSave(t *testing.T) {
	svc := newStubService()
	scheduler := NewScheduler(svc, uuid.New(), WithDebounce(30*time.Millisecond))
	defer scheduler.Close()

	scheduler.Track("base")
	scheduler.Track("local edit")
	scheduler.Accept("external content", 5)

	time.Sleep(100 * time.Millisecond)
	if got := svc.autosaveLog(); len(got) != 0 {
		t.Fatalf("expected accepted external change to cancel pending save, got %v", got)
	}
	if scheduler.HasUnsavedChanges() {
		t.Fatalf("expected accepted content to be considered saved")
	}
	if scheduler.Version() != 5 {
		t.Fatalf("expected accepted version 5, got %d", scheduler.Version())
	}

	scheduler.Track("external content")
	time.Sleep(100 * time.Millisecond)
	if got := svc.autosaveLog(); len(got) != 0 {
		t.Fatalf("expected re-tracking accepted content to stay clean, got %v", got)
	}
}

func TestCloseCancelsPendingTimer(t *testing.T) {
	svc := newStubService()
	scheduler := NewScheduler(svc, uuid.New(), WithDebounce(30*time.Millisecond))

	scheduler.Track("base")
	scheduler.Track("edit")
	scheduler.Close()

	time.Sleep(100 * time.Millisecond)
	if got := svc.autosaveLog(); len(got) != 0 {
		t.Fatalf("expected close to cancel the pending save, got %v", got)
	}
	if state := scheduler.State(); state != StateClosed {
		t.Fatalf("expected closed state, got %s", state)
	}

	scheduler.Track("edit after close")
	time.Sleep(60 * time.Millisecond)
	if got := svc.autosaveLog(); len(got) != 0 {
		t.Fatalf("expected tracking after close to be ignored, got %v", got)
	}
}

func TestCloseWaitsForInFlightSave(t *testing.T) {
	svc := newStubService()
	svc.started = make(chan struct{}, 1)
	svc.release = make(chan struct{})
	scheduler := NewScheduler(svc, uuid.New(), WithDebounce(10*time.Millisecond))

	scheduler.Track("base")
	scheduler.Track("edit")
	<-svc.started

	closed := make(chan struct{})
	go func() {
		scheduler.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatalf("expected close to wait for the in-flight save")
	case <-time.After(50 * time.Millisecond):
	}

	close(svc.release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected close to return once the save completed")
	}

	if got := svc.autosaveLog(); len(got) != 1 {
		t.Fatalf("expected the in-flight save to run to completion, got %d", len(got))
	}
}
