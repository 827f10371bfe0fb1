// Package publication governs the lifecycle of generated review drafts.
package publication

import (
	"time"

	"ReviewPipeline/internal/domain"
)

// edges lists the allowed transitions. published→draft is the operator
// escape hatch, not a normal edge.
var edges = map[domain.DraftStatus][]domain.DraftStatus{
	domain.DraftStatusDraft:         {domain.DraftStatusNeedsRevision, domain.DraftStatusApproved},
	domain.DraftStatusNeedsRevision: {domain.DraftStatusDraft},
	domain.DraftStatusApproved:      {domain.DraftStatusPublished},
	domain.DraftStatusPublished:     {domain.DraftStatusDraft},
}

// CanTransition reports whether from→to is an allowed edge.
func CanTransition(from, to domain.DraftStatus) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies to onto the draft after validating the edge. Reaching
// published stamps PublishedAt once; the timestamp survives a later
// force-transition back to draft.
func Transition(draft *domain.Draft, to domain.DraftStatus, now time.Time) error {
	if !CanTransition(draft.Status, to) {
		return domain.FatalError(domain.CodeInvalidTransition, string(draft.Status)+"->"+string(to))
	}

	draft.Status = to
	draft.UpdatedAt = now
	if to == domain.DraftStatusPublished && draft.PublishedAt == nil {
		published := now
		draft.PublishedAt = &published
	}
	return nil
}
