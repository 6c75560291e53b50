package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct{}

func (fakeVerifier) VerifySession(token string) (string, error) {
	if token == "good" {
		return "u1", nil
	}
	return "", errors.New("bad token")
}

type fakePipeline struct {
	got driving.GenerateRequest
	err error
}

func (p *fakePipeline) Generate(ctx context.Context, req driving.GenerateRequest, sink driven.ProgressSink) (*domain.BriefingRecord, error) {
	p.got = req
	_ = sink.Send(ctx, domain.ProgressEvent{RunID: "r1", UserID: req.UserID, Stage: domain.StageStarted, Payload: map[string]any{}})
	if p.err != nil {
		_ = sink.Send(ctx, domain.ProgressEvent{RunID: "r1", Stage: domain.StageError, Payload: map[string]any{"code": domain.ErrorCode(p.err)}})
		_ = sink.Close()
		return nil, p.err
	}
	_ = sink.Send(ctx, domain.ProgressEvent{RunID: "r1", Stage: domain.StageCompleted, Payload: map[string]any{"briefing_id": "b1"}})
	_ = sink.Close()
	return &domain.BriefingRecord{ID: "b1"}, nil
}

type fakeBriefings struct {
	today   *domain.BriefingRecord
	history []domain.BriefingRecord
	limit   int
	edit    domain.BriefingEdit
	err     error
}

func (f *fakeBriefings) Today(context.Context, string) (*domain.BriefingRecord, error) {
	return f.today, f.err
}

func (f *fakeBriefings) History(_ context.Context, _ string, limit int) ([]domain.BriefingRecord, error) {
	f.limit = limit
	return f.history, f.err
}

func (f *fakeBriefings) SaveEdit(_ context.Context, userID string, edit domain.BriefingEdit) (*domain.BriefingRecord, error) {
	f.edit = edit
	if f.err != nil {
		return nil, f.err
	}
	return &domain.BriefingRecord{ID: "b1", UserID: userID, Status: domain.BriefingEdited}, nil
}

type fakeConnectors struct {
	connected []string
	removed   domain.Provider
	err       error
}

func (f *fakeConnectors) GetValidCredential(context.Context, string, domain.Provider) (*domain.Credential, error) {
	return nil, domain.ErrAuthRequired
}

func (f *fakeConnectors) NeedsReauthorization(context.Context, string, domain.Provider) (bool, error) {
	return false, nil
}

func (f *fakeConnectors) AuthorizationURL(_ context.Context, userID string, p domain.Provider) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://accounts.example.com/auth?p=" + string(p) + "&u=" + userID, nil
}

func (f *fakeConnectors) Connect(_ context.Context, p domain.Provider, code, state string) (*domain.Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.connected = append(f.connected, string(p)+":"+code+":"+state)
	return &domain.Credential{Provider: p, Scopes: []string{"read"}}, nil
}

func (f *fakeConnectors) Disconnect(_ context.Context, _ string, p domain.Provider) error {
	f.removed = p
	return f.err
}

func (f *fakeConnectors) Status(context.Context, string) ([]domain.ConnectionStatus, error) {
	return []domain.ConnectionStatus{{Provider: domain.ProviderGmail, State: domain.ConnectionConnected}}, f.err
}

type fakeSettings struct {
	saved []domain.Provider
}

func (f *fakeSettings) Get(_ context.Context, userID string) (domain.UserSettings, error) {
	return domain.DefaultUserSettings(userID), nil
}

func (f *fakeSettings) SetProviders(_ context.Context, userID string, ps []domain.Provider) (domain.UserSettings, error) {
	f.saved = ps
	s := domain.DefaultUserSettings(userID)
	s.EnabledProviders = ps
	return s, nil
}

func (f *fakeSettings) Save(context.Context, domain.UserSettings) error { return nil }

type fixture struct {
	server     *Server
	pipeline   *fakePipeline
	briefings  *fakeBriefings
	connectors *fakeConnectors
	settings   *fakeSettings
}

func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		pipeline:   &fakePipeline{},
		briefings:  &fakeBriefings{},
		connectors: &fakeConnectors{},
		settings:   &fakeSettings{},
	}
	deps := Deps{
		Pipeline:   f.pipeline,
		Briefings:  f.briefings,
		Connectors: f.connectors,
		Settings:   f.settings,
		Verifier:   fakeVerifier{},
	}
	if mutate != nil {
		mutate(&deps)
	}
	f.server = NewServer(deps, Config{Heartbeat: time.Hour})
	return f
}

func (f *fixture) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer good")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

// TestAuth_RequiresBearer tests the session middleware
func TestAuth_RequiresBearer(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/briefings/today", "", false).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/briefings/today", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestGenerate_StreamsEvents tests the SSE framing of a run
func TestGenerate_StreamsEvents(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/briefings/generate", `{"providers":["gmail","trends"],"topics":["eclipse"]}`, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event: started\ndata: {")
	assert.Contains(t, body, "event: completed\ndata: {")
	assert.Less(t, strings.Index(body, "event: started"), strings.Index(body, "event: completed"))

	assert.Equal(t, "u1", f.pipeline.got.UserID)
	assert.Equal(t, []domain.Provider{domain.ProviderGmail, domain.ProviderTrends}, f.pipeline.got.Providers)
	assert.Equal(t, []string{"eclipse"}, f.pipeline.got.TrendTopics)

	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	require.Len(t, frames, 2)
	data := strings.TrimPrefix(strings.SplitN(frames[1], "\n", 2)[1], "data: ")
	var ev domain.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, "b1", ev.Payload["briefing_id"])
}

// TestGenerate_ErrorEvent tests that failures are reported on the stream
func TestGenerate_ErrorEvent(t *testing.T) {
	f := newFixture(t, nil)
	f.pipeline.err = domain.ErrNoContent

	rec := f.do(http.MethodPost, "/api/briefings/generate", "", true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: error\ndata: {")
	assert.Contains(t, rec.Body.String(), `"no_content"`)
}

// TestGenerate_UnknownProvider tests request validation before streaming
func TestGenerate_UnknownProvider(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/briefings/generate", `{"providers":["myspace"]}`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.pipeline.got.UserID)
}

// TestToday tests the found and missing cases
func TestToday(t *testing.T) {
	f := newFixture(t, nil)

	missing := f.do(http.MethodGet, "/api/briefings/today", "", true)
	assert.Equal(t, http.StatusOK, missing.Code)
	assert.JSONEq(t, "null", missing.Body.String())

	f.briefings.today = &domain.BriefingRecord{ID: "b1", Title: "Monday"}
	rec := f.do(http.MethodGet, "/api/briefings/today", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Monday"`)
}

// TestSaveEdit tests manual edits and error mapping
func TestSaveEdit(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPut, "/api/briefings/today", `{"title":"New"}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.briefings.edit.Title)
	assert.Equal(t, "New", *f.briefings.edit.Title)

	f.briefings.err = domain.ErrNotFound
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPut, "/api/briefings/today", `{"title":"x"}`, true).Code)

	f.briefings.err = domain.ErrPersistence
	rec = f.do(http.MethodPut, "/api/briefings/today", `{"title":"x"}`, true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not save")
}

// TestHistory tests the limit parameter
func TestHistory(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/briefings", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"briefings":[]}`, rec.Body.String())
	assert.Equal(t, defaultHistoryLimit, f.briefings.limit)

	f.do(http.MethodGet, "/api/briefings?limit=500", "", true)
	assert.Equal(t, maxHistoryLimit, f.briefings.limit)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/briefings?limit=0", "", true).Code)
}

// TestConnectors tests status, authorize, callback and disconnect
func TestConnectors(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/connectors", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"connected"`)

	rec = f.do(http.MethodGet, "/api/connectors/gmail/authorize", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "p=gmail")

	rec = f.do(http.MethodGet, "/api/connectors/github/authorize?redirect=true", "", true)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "p=github")

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/connectors/myspace/authorize", "", true).Code)

	// The callback is reached without a bearer token.
	rec = f.do(http.MethodGet, "/api/connectors/notion/callback?code=c1&state=s1", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"notion:c1:s1"}, f.connectors.connected)

	rec = f.do(http.MethodGet, "/api/connectors/notion/callback?error=access_denied", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodDelete, "/api/connectors/drive", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, domain.ProviderDrive, f.connectors.removed)
}

// TestConnectors_CallbackInvalidState tests error mapping on the callback
func TestConnectors_CallbackInvalidState(t *testing.T) {
	f := newFixture(t, nil)
	f.connectors.err = domain.ErrInvalidInput

	rec := f.do(http.MethodGet, "/api/connectors/gmail/callback?code=c&state=forged", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestSettings tests reading and updating providers
func TestSettings(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/settings", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPut, "/api/settings/providers", `{"providers":["gmail","calendar"]}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.Provider{domain.ProviderGmail, domain.ProviderCalendar}, f.settings.saved)
}

// TestInterests_NotConfigured tests the optional interest service
func TestInterests_NotConfigured(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusNotImplemented, f.do(http.MethodPost, "/api/interests/refresh", "", true).Code)
}

// TestProbes tests health, readiness, metrics and media
func TestProbes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), []byte("RIFF"), 0o644))

	ready := errors.New("db down")
	f := newFixture(t, func(d *Deps) {
		d.Ready = func(context.Context) error { return ready }
		d.Metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("briefcast_pipeline_runs_total 1\n"))
		})
		d.MediaDir = dir
	})

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", "", false).Code)
	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/readyz", "", false).Code)
	ready = nil
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/readyz", "", false).Code)

	rec := f.do(http.MethodGet, "/metrics", "", false)
	assert.Contains(t, rec.Body.String(), "briefcast_pipeline_runs_total")

	rec = f.do(http.MethodGet, "/media/a.wav", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RIFF", rec.Body.String())
}
