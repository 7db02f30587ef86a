package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/goliatone/go-collab/internal/logging"
	"github.com/goliatone/go-collab/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannelPrefix scopes feed channels in a shared redis instance.
const DefaultChannelPrefix = "collab.articles."

// RedisFeedOption configures a RedisFeed.
type RedisFeedOption func(*RedisFeed)

// WithChannelPrefix overrides the pub/sub channel prefix.
func WithChannelPrefix(prefix string) RedisFeedOption {
	return func(f *RedisFeed) {
		if prefix != "" {
			f.prefix = prefix
		}
	}
}

// WithFeedLogger injects the feed logger. Defaults to a no-op logger.
func WithFeedLogger(logger interfaces.Logger) RedisFeedOption {
	return func(f *RedisFeed) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// RedisFeed carries article change notifications over redis pub/sub, one
// channel per article, JSON payloads. Delivery is at-least-once and unordered
// within redis's guarantees; consumers reconcile by version number.
type RedisFeed struct {
	client redis.UniversalClient
	prefix string
	logger interfaces.Logger

	mu     sync.Mutex
	subs   map[*redisSubscription]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewRedisFeed wraps an existing redis client. The feed does not own the
// client; closing the feed tears down subscriptions only.
func NewRedisFeed(client redis.UniversalClient, opts ...RedisFeedOption) *RedisFeed {
	f := &RedisFeed{
		client: client,
		prefix: DefaultChannelPrefix,
		logger: logging.NoOp(),
		subs:   map[*redisSubscription]struct{}{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *RedisFeed) channel(articleID uuid.UUID) string {
	return f.prefix + articleID.String()
}

// Publish serializes the change and fans it out to the article's channel.
func (f *RedisFeed) Publish(ctx context.Context, change interfaces.ArticleChange) error {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return interfaces.ErrFeedClosed
	}

	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.channel(change.ArticleID), payload).Err()
}

// Subscribe opens a redis subscription on the article's channel and pumps
// decoded changes into the handler from a dedicated goroutine. Malformed
// payloads are logged and skipped.
func (f *RedisFeed) Subscribe(ctx context.Context, articleID uuid.UUID, handler interfaces.ChangeHandler) (interfaces.Subscription, error) {
	if handler == nil {
		return nil, interfaces.ErrFeedClosed
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, interfaces.ErrFeedClosed
	}

	pubsub := f.client.Subscribe(ctx, f.channel(articleID))
	sub := &redisSubscription{feed: f, pubsub: pubsub}
	f.subs[sub] = struct{}{}
	f.wg.Add(1)
	f.mu.Unlock()

	go f.pump(pubsub, articleID, handler)
	return sub, nil
}

// Close cancels every open subscription and waits for their pumps to drain.
// The underlying redis client is left open for the caller.
func (f *RedisFeed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	subs := make([]*redisSubscription, 0, len(f.subs))
	for sub := range f.subs {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	f.wg.Wait()
}

func (f *RedisFeed) pump(pubsub *redis.PubSub, articleID uuid.UUID, handler interfaces.ChangeHandler) {
	defer f.wg.Done()

	for msg := range pubsub.Channel() {
		var change interfaces.ArticleChange
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			f.logger.Warn("realtime.feed.bad_payload",
				"channel", msg.Channel,
				"error", err,
			)
			continue
		}
		if change.ArticleID != articleID {
			continue
		}
		handler(change)
	}
}

func (f *RedisFeed) forget(sub *redisSubscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, sub)
}

type redisSubscription struct {
	feed   *RedisFeed
	pubsub *redis.PubSub
	once   sync.Once
}

func (s *redisSubscription) Cancel() {
	s.once.Do(func() {
		// Closing the pubsub closes its message channel and ends the pump.
		_ = s.pubsub.Close()
		s.feed.forget(s)
	})
}
