// Package server exposes the operator HTTP API over the admin use case.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/usecase"
)

// Core is the slice of the admin use case the HTTP surface needs.
type Core interface {
	TriggerCollection(ctx context.Context, maxItems int) (usecase.RunResult, error)
	ForceRegenerate(ctx context.Context, itemID string) error
	CancelRetries(ctx context.Context) (int64, error)
	TransitionDraft(ctx context.Context, draftID string, to domain.DraftStatus) (domain.Draft, error)
	ListDrafts(ctx context.Context, status domain.DraftStatus, limit int) ([]domain.Draft, error)
	LogStats(ctx context.Context, since time.Time) ([]domain.LogStat, error)
	Settings(ctx context.Context) (domain.ValidationSettings, error)
	UpdateSettings(ctx context.Context, s domain.ValidationSettings) (domain.ValidationSettings, error)
}

var _ Core = (*usecase.Admin)(nil)

// Config for the HTTP handler.
type Config struct {
	Core       Core
	AdminToken string
	Logger     *slog.Logger
}

type handler struct {
	core   Core
	logger *slog.Logger
}

// New returns the operator API handler.
func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{core: cfg.Core, logger: logger}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(bearerAuth(cfg.AdminToken))
		r.Post("/collect", h.collect)
		r.Post("/items/{itemID}/regenerate", h.regenerate)
		r.Post("/retries/cancel", h.cancelRetries)
		r.Get("/drafts", h.listDrafts)
		r.Put("/drafts/{draftID}/status", h.transitionDraft)
		r.Get("/logs/stats", h.logStats)
		r.Get("/settings", h.settings)
		r.Put("/settings", h.updateSettings)
	})

	return router
}

// bearerAuth rejects admin calls without the configured token. An empty
// token leaves the surface open, for local development only.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *handler) collect(w http.ResponseWriter, r *http.Request) {
	var req collectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.core.TriggerCollection(r.Context(), req.MaxItems)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newRunResultResponse(result))
}

func (h *handler) regenerate(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if err := h.core.ForceRegenerate(r.Context(), itemID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"itemId": itemID})
}

func (h *handler) cancelRetries(w http.ResponseWriter, r *http.Request) {
	dropped, err := h.core.CancelRetries(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"dropped": dropped})
}

func (h *handler) listDrafts(w http.ResponseWriter, r *http.Request) {
	status := domain.DraftStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.DraftStatusDraft
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	drafts, err := h.core.ListDrafts(r.Context(), status, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response := make([]draftResponse, 0, len(drafts))
	for _, draft := range drafts {
		response = append(response, newDraftResponse(draft))
	}
	writeData(w, http.StatusOK, response)
}

func (h *handler) transitionDraft(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := h.core.TransitionDraft(r.Context(), chi.URLParam(r, "draftID"), domain.DraftStatus(req.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newDraftResponse(draft))
}

func (h *handler) logStats(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since timestamp")
			return
		}
		since = parsed
	}

	stats, err := h.core.LogStats(r.Context(), since)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response := make([]logStatResponse, 0, len(stats))
	for _, stat := range stats {
		response = append(response, newLogStatResponse(stat))
	}
	writeData(w, http.StatusOK, response)
}

func (h *handler) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.core.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newSettingsResponse(settings))
}

func (h *handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.core.UpdateSettings(r.Context(), domain.ValidationSettings{
		MinLength:          req.MinLength,
		MaxLength:          req.MaxLength,
		ToneScoreThreshold: req.ToneScoreThreshold,
		PromptTemplate:     req.PromptTemplate,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newSettingsResponse(updated))
}

// fail maps classified pipeline errors onto HTTP statuses.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.CodeOf(err) == domain.CodeInvalidTransition:
		status = http.StatusConflict
	case domain.ClassOf(err) == domain.ClassValidation:
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("admin request failed",
			"path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
