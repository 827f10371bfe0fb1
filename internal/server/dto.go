package server

import (
	"time"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/usecase"
)

// Request payloads

type collectRequest struct {
	MaxItems int `json:"maxItems"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type settingsRequest struct {
	MinLength          int     `json:"minLength"`
	MaxLength          int     `json:"maxLength"`
	ToneScoreThreshold float64 `json:"toneScoreThreshold"`
	PromptTemplate     string  `json:"promptTemplate"`
}

// Response payloads

type runResultResponse struct {
	Requested  int            `json:"requested"`
	Collected  int            `json:"collected"`
	BySource   map[string]int `json:"bySource"`
	NewItemIDs []string       `json:"newItemIds"`
}

func newRunResultResponse(result usecase.RunResult) runResultResponse {
	bySource := make(map[string]int, len(result.BySource))
	for kind, count := range result.BySource {
		bySource[string(kind)] = count
	}
	return runResultResponse{
		Requested:  result.Requested,
		Collected:  result.Collected,
		BySource:   bySource,
		NewItemIDs: result.NewItemIDs,
	}
}

type draftResponse struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"itemId"`
	Content     string          `json:"content"`
	ToneScore   float64         `json:"toneScore"`
	CharCount   int             `json:"charCount"`
	Status      string          `json:"status"`
	Slug        string          `json:"slug,omitempty"`
	SEO         *domain.SEOMeta `json:"seo,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	PublishedAt *time.Time      `json:"publishedAt,omitempty"`
}

func newDraftResponse(draft domain.Draft) draftResponse {
	return draftResponse{
		ID:          draft.ID,
		ItemID:      draft.ItemID,
		Content:     draft.Content,
		ToneScore:   draft.ToneScore,
		CharCount:   draft.CharCount,
		Status:      string(draft.Status),
		Slug:        draft.Slug,
		SEO:         draft.SEO,
		CreatedAt:   draft.CreatedAt,
		UpdatedAt:   draft.UpdatedAt,
		PublishedAt: draft.PublishedAt,
	}
}

type logStatResponse struct {
	Type  string    `json:"type"`
	Level string    `json:"level"`
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

func newLogStatResponse(stat domain.LogStat) logStatResponse {
	return logStatResponse{
		Type:  stat.Type,
		Level: stat.Level,
		Day:   stat.Day,
		Count: stat.Count,
	}
}

type settingsResponse struct {
	Version            int       `json:"version"`
	MinLength          int       `json:"minLength"`
	MaxLength          int       `json:"maxLength"`
	ToneScoreThreshold float64   `json:"toneScoreThreshold"`
	PromptTemplate     string    `json:"promptTemplate"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func newSettingsResponse(s domain.ValidationSettings) settingsResponse {
	return settingsResponse{
		Version:            s.Version,
		MinLength:          s.MinLength,
		MaxLength:          s.MaxLength,
		ToneScoreThreshold: s.ToneScoreThreshold,
		PromptTemplate:     s.PromptTemplate,
		UpdatedAt:          s.UpdatedAt,
	}
}
