package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrFeedClosed reports publish or subscribe attempts against a closed feed.
var ErrFeedClosed = errors.New("feed: closed")

// ArticleChange is the row-change notification fanned out after a successful
// compare-and-swap save. Delivery is at-least-once and may be reordered
// within a short window; consumers must tolerate duplicates.
type ArticleChange struct {
	ArticleID    uuid.UUID `json:"article_id"`
	Version      int       `json:"version"`
	Content      string    `json:"content,omitempty"`
	Status       string    `json:"status,omitempty"`
	LastEditedBy uuid.UUID `json:"last_edited_by"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChangeHandler consumes change notifications for a subscribed article.
type ChangeHandler func(change ArticleChange)

// Subscription represents a live per-article change registration. Cancel is
// idempotent and releases the handler; no events are delivered afterwards.
type Subscription interface {
	Cancel()
}

// ChangeFeed publishes and delivers per-article change notifications. It
// replaces ambient broadcast mechanisms with an explicit registry scoped to
// the entity id, so ownership of "who listens" stays statically visible.
type ChangeFeed interface {
	Publish(ctx context.Context, change ArticleChange) error
	Subscribe(ctx context.Context, articleID uuid.UUID, handler ChangeHandler) (Subscription, error)
}
