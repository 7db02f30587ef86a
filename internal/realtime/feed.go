package realtime

import (
	"context"
	"sync"

	"github.com/goliatone/go-collab/pkg/interfaces"
	"github.com/google/uuid"
)

// MemoryFeed is an in-process change feed backed by an explicit per-article
// observer registry. Every listener registers against a concrete article id;
// there is no ambient broadcast channel to leak subscriptions through.
type MemoryFeed struct {
	mu        sync.RWMutex
	observers map[uuid.UUID]map[int64]interfaces.ChangeHandler
	nextID    int64
	closed    bool
}

// NewMemoryFeed constructs an empty feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{
		observers: map[uuid.UUID]map[int64]interfaces.ChangeHandler{},
	}
}

// Publish delivers the change synchronously to every handler registered for
// the article. Handlers run outside the registry lock so they may subscribe
// or cancel reentrantly.
func (f *MemoryFeed) Publish(_ context.Context, change interfaces.ArticleChange) error {
	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		return interfaces.ErrFeedClosed
	}
	registered := f.observers[change.ArticleID]
	handlers := make([]interfaces.ChangeHandler, 0, len(registered))
	for _, handler := range registered {
		handlers = append(handlers, handler)
	}
	f.mu.RUnlock()

	for _, handler := range handlers {
		handler(change)
	}
	return nil
}

// Subscribe registers a handler for one article's changes.
func (f *MemoryFeed) Subscribe(_ context.Context, articleID uuid.UUID, handler interfaces.ChangeHandler) (interfaces.Subscription, error) {
	if handler == nil {
		return nil, interfaces.ErrFeedClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, interfaces.ErrFeedClosed
	}
	f.nextID++
	id := f.nextID
	registered, ok := f.observers[articleID]
	if !ok {
		registered = map[int64]interfaces.ChangeHandler{}
		f.observers[articleID] = registered
	}
	registered[id] = handler

	return &memorySubscription{feed: f, articleID: articleID, id: id}, nil
}

// Close drops every registration. Publish and Subscribe fail afterwards.
func (f *MemoryFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.observers = map[uuid.UUID]map[int64]interfaces.ChangeHandler{}
}

func (f *MemoryFeed) cancel(articleID uuid.UUID, id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	registered, ok := f.observers[articleID]
	if !ok {
		return
	}
	delete(registered, id)
	if len(registered) == 0 {
		delete(f.observers, articleID)
	}
}

type memorySubscription struct {
	feed      *MemoryFeed
	articleID uuid.UUID
	id        int64
	once      sync.Once
}

func (s *memorySubscription) Cancel() {
	s.once.Do(func() {
		s.feed.cancel(s.articleID, s.id)
	})
}
