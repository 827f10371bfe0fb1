package domain

import "time"

// SourceKind enumerates the origins a product candidate can be pulled from.
type SourceKind string

const (
	SourceDeal         SourceKind = "deal"
	SourceKeyword      SourceKind = "keyword"
	SourceCategory     SourceKind = "category"
	SourcePrivateLabel SourceKind = "privateLabel"
	SourceManual       SourceKind = "manual"
)

// SourceRef tags an Item with its origin, including the concrete
// sub-source (category id, keyword, brand id) when the kind fans out.
type SourceRef struct {
	Kind SourceKind
	Sub  string
}

func (s SourceRef) String() string {
	if s.Sub == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.Sub
}

// ItemStatus enumerates collection-side milestones, independent of the
// publication status of any generated draft.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemProcessing ItemStatus = "processing"
	ItemCompleted  ItemStatus = "completed"
	ItemFailed     ItemStatus = "failed"
)

// Item is a collected product candidate, the unit of work through the
// pipeline. ID is the stable external product identifier and the
// deduplication key; AffiliateURL is derived once at collection time and
// immutable afterwards.
type Item struct {
	ID           string
	Name         string
	Price        int64
	ImageURL     string
	Category     string
	ProductURL   string
	AffiliateURL string
	Source       SourceRef
	Status       ItemStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
