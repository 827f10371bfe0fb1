package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/usecase"
)

type fakeCore struct {
	collectFn    func(ctx context.Context, maxItems int) (usecase.RunResult, error)
	regenerateFn func(ctx context.Context, itemID string) error
	cancelFn     func(ctx context.Context) (int64, error)
	transitionFn func(ctx context.Context, draftID string, to domain.DraftStatus) (domain.Draft, error)
	listFn       func(ctx context.Context, status domain.DraftStatus, limit int) ([]domain.Draft, error)
	statsFn      func(ctx context.Context, since time.Time) ([]domain.LogStat, error)
	settingsFn   func(ctx context.Context) (domain.ValidationSettings, error)
	updateFn     func(ctx context.Context, s domain.ValidationSettings) (domain.ValidationSettings, error)
}

func (f *fakeCore) TriggerCollection(ctx context.Context, maxItems int) (usecase.RunResult, error) {
	return f.collectFn(ctx, maxItems)
}

func (f *fakeCore) ForceRegenerate(ctx context.Context, itemID string) error {
	return f.regenerateFn(ctx, itemID)
}

func (f *fakeCore) CancelRetries(ctx context.Context) (int64, error) {
	return f.cancelFn(ctx)
}

func (f *fakeCore) TransitionDraft(ctx context.Context, draftID string, to domain.DraftStatus) (domain.Draft, error) {
	return f.transitionFn(ctx, draftID, to)
}

func (f *fakeCore) ListDrafts(ctx context.Context, status domain.DraftStatus, limit int) ([]domain.Draft, error) {
	return f.listFn(ctx, status, limit)
}

func (f *fakeCore) LogStats(ctx context.Context, since time.Time) ([]domain.LogStat, error) {
	return f.statsFn(ctx, since)
}

func (f *fakeCore) Settings(ctx context.Context) (domain.ValidationSettings, error) {
	return f.settingsFn(ctx)
}

func (f *fakeCore) UpdateSettings(ctx context.Context, s domain.ValidationSettings) (domain.ValidationSettings, error) {
	return f.updateFn(ctx, s)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doRequest(t *testing.T, handler http.Handler, method, target, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestCollectEndpoint(t *testing.T) {
	t.Parallel()

	core := &fakeCore{
		collectFn: func(_ context.Context, maxItems int) (usecase.RunResult, error) {
			assert.Equal(t, 7, maxItems)
			return usecase.RunResult{
				Requested: 7,
				Collected: 5,
				BySource:  map[domain.SourceKind]int{domain.SourceDeal: 5},
			}, nil
		},
	}
	handler := New(Config{Core: core})

	rec, env := doRequest(t, handler, http.MethodPost, "/admin/collect", `{"maxItems": 7}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var result runResultResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 5, result.Collected)
	assert.Equal(t, 5, result.BySource["deal"])
}

func TestRegenerateEndpoint(t *testing.T) {
	t.Parallel()

	var got string
	core := &fakeCore{
		regenerateFn: func(_ context.Context, itemID string) error {
			got = itemID
			return nil
		},
	}
	handler := New(Config{Core: core})

	rec, env := doRequest(t, handler, http.MethodPost, "/admin/items/PROD-1/regenerate", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "PROD-1", got)
}

func TestTransitionEndpointMapsInvalidEdgeToConflict(t *testing.T) {
	t.Parallel()

	core := &fakeCore{
		transitionFn: func(_ context.Context, _ string, _ domain.DraftStatus) (domain.Draft, error) {
			return domain.Draft{}, domain.FatalError(domain.CodeInvalidTransition, "draft->published")
		},
	}
	handler := New(Config{Core: core})

	rec, env := doRequest(t, handler, http.MethodPut, "/admin/drafts/d1/status", `{"status": "published"}`, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "INVALID_STATE_TRANSITION")
}

func TestListDraftsEndpoint(t *testing.T) {
	t.Parallel()

	core := &fakeCore{
		listFn: func(_ context.Context, status domain.DraftStatus, limit int) ([]domain.Draft, error) {
			assert.Equal(t, domain.DraftStatusApproved, status)
			assert.Equal(t, 10, limit)
			return []domain.Draft{{ID: "d1", Status: status}}, nil
		},
	}
	handler := New(Config{Core: core})

	rec, env := doRequest(t, handler, http.MethodGet, "/admin/drafts?status=approved&limit=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var drafts []draftResponse
	require.NoError(t, json.Unmarshal(env.Data, &drafts))
	require.Len(t, drafts, 1)
	assert.Equal(t, "d1", drafts[0].ID)
}

func TestCancelRetriesEndpoint(t *testing.T) {
	t.Parallel()

	core := &fakeCore{
		cancelFn: func(context.Context) (int64, error) { return 4, nil },
	}
	handler := New(Config{Core: core})

	rec, env := doRequest(t, handler, http.MethodPost, "/admin/retries/cancel", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]int64
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, int64(4), result["dropped"])
}

func TestUpdateSettingsEndpoint(t *testing.T) {
	t.Parallel()

	core := &fakeCore{
		updateFn: func(_ context.Context, s domain.ValidationSettings) (domain.ValidationSettings, error) {
			assert.Equal(t, 100, s.MinLength)
			s.Version = 2
			return s, nil
		},
	}
	handler := New(Config{Core: core})

	body := `{"minLength": 100, "maxLength": 180, "toneScoreThreshold": 0.5, "promptTemplate": "{productName}"}`
	rec, env := doRequest(t, handler, http.MethodPut, "/admin/settings", body, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var settings settingsResponse
	require.NoError(t, json.Unmarshal(env.Data, &settings))
	assert.Equal(t, 2, settings.Version)
}

func TestBearerAuthGuardsAdminRoutes(t *testing.T) {
	t.Parallel()

	core := &fakeCore{
		cancelFn: func(context.Context) (int64, error) { return 0, nil },
	}
	handler := New(Config{Core: core, AdminToken: "secret"})

	rec, _ := doRequest(t, handler, http.MethodPost, "/admin/retries/cancel", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(t, handler, http.MethodPost, "/admin/retries/cancel", "", "secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open for probes.
	rec, _ = doRequest(t, handler, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	t.Parallel()

	core := &fakeCore{
		statsFn: func(context.Context, time.Time) ([]domain.LogStat, error) {
			return nil, errors.New("connection refused")
		},
	}
	handler := New(Config{Core: core})

	rec, env := doRequest(t, handler, http.MethodGet, "/admin/logs/stats", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
}
