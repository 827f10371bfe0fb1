package domain

import "time"

// ValidationSettings is the versioned configuration consumed by the
// generator and the content validator. It is read once at the start of a
// generation attempt and treated as an immutable snapshot for the rest of
// that attempt, so a concurrent settings update cannot change the outcome
// of work already in flight.
type ValidationSettings struct {
	Version            int     `validate:"min=1"`
	MinLength          int     `validate:"required,min=1"`
	MaxLength          int     `validate:"required,gtefield=MinLength"`
	ToneScoreThreshold float64 `validate:"gte=0,lt=1"`
	PromptTemplate     string  `validate:"required"`
	UpdatedAt          time.Time
}
