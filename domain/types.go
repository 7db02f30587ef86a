package domain

import internaldomain "github.com/goliatone/go-collab/internal/domain"

// Status represents lifecycle states for collaborative articles.
type Status = internaldomain.Status

const (
	// StatusDraft indicates an article still under preparation.
	StatusDraft = internaldomain.StatusDraft
	// StatusEditing marks an article with an active editing session.
	StatusEditing = internaldomain.StatusEditing
	// StatusReview marks an article waiting on an admin pass.
	StatusReview = internaldomain.StatusReview
	// StatusFinal marks an article whose content is locked for publication.
	StatusFinal = internaldomain.StatusFinal
	// StatusPublished identifies an article available to consumers.
	StatusPublished = internaldomain.StatusPublished
)

// Parse normalises a raw status string.
func Parse(raw string) (Status, bool) {
	return internaldomain.Parse(raw)
}
