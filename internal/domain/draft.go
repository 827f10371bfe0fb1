package domain

import "time"

// DraftStatus enumerates the publication lifecycle of a generated review.
type DraftStatus string

const (
	DraftStatusDraft         DraftStatus = "draft"
	DraftStatusNeedsRevision DraftStatus = "needs_revision"
	DraftStatusApproved      DraftStatus = "approved"
	DraftStatusPublished     DraftStatus = "published"
)

// SEOMeta is derived at publication time from the draft and its item.
type SEOMeta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	OGImage     string   `json:"ogImage"`
}

// Draft is the result of one successfully validated generation attempt.
// It is created only after the content validator accepts the text and is
// mutated only through publication state transitions; retries produce new
// drafts, never edits to an existing one.
type Draft struct {
	ID          string
	ItemID      string
	Content     string
	ToneScore   float64
	CharCount   int
	Status      DraftStatus
	Slug        string
	SEO         *SEOMeta
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}
