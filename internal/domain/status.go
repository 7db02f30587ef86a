package domain

import "strings"

// Status represents the editing lifecycle of an article. The machine is
// owner/admin-gated, not content-gated: any legal transition is permitted
// regardless of what the body currently holds.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusEditing   Status = "editing"
	StatusReview    Status = "review"
	StatusFinal     Status = "final"
	StatusPublished Status = "published"
)

// statuses lists every recognised lifecycle state.
var statuses = map[Status]struct{}{
	StatusDraft:     {},
	StatusEditing:   {},
	StatusReview:    {},
	StatusFinal:     {},
	StatusPublished: {},
}

// transitions captures the legal forward moves. Reopening to draft is always
// allowed and handled separately in CanTransition.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusEditing},
	StatusEditing:   {StatusReview},
	StatusReview:    {StatusEditing, StatusFinal},
	StatusFinal:     {StatusReview, StatusPublished},
	StatusPublished: {},
}

// Parse normalises a raw status string, reporting whether it names a known state.
func Parse(raw string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if status == "" {
		return StatusDraft, true
	}
	_, ok := statuses[status]
	return status, ok
}

// Valid reports whether the status is a recognised lifecycle state.
func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

// CanTransition reports whether moving from s to target is legal. Identity
// transitions are permitted so repeated saves of the same status stay cheap.
func (s Status) CanTransition(target Status) bool {
	if !s.Valid() || !target.Valid() {
		return false
	}
	if s == target {
		return true
	}
	if target == StatusDraft {
		return true
	}
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}
