package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
)

type fakePipeline struct {
	mu      sync.Mutex
	record  *domain.BriefingRecord
	err     error
	lastReq driving.GenerateRequest
}

func (f *fakePipeline) Generate(
	ctx context.Context,
	req driving.GenerateRequest,
	sink driven.ProgressSink,
) (*domain.BriefingRecord, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()

	_ = sink.Send(ctx, domain.ProgressEvent{Stage: domain.StageStarted, Payload: map[string]any{
		"providers": []domain.Provider{domain.ProviderGmail},
	}})
	if f.err != nil {
		_ = sink.Send(ctx, domain.ProgressEvent{Stage: domain.StageError, Payload: map[string]any{
			"message": domain.UserMessage(f.err),
			"code":    domain.ErrorCode(f.err),
		}})
		return nil, f.err
	}
	_ = sink.Send(ctx, domain.ProgressEvent{Stage: domain.StageAggregating, Payload: map[string]any{
		"items": 4, "succeeded": 1, "failed": 0,
	}})
	_ = sink.Send(ctx, domain.ProgressEvent{Stage: domain.StageCompleted, Payload: map[string]any{
		"briefing_id": f.record.ID,
		"audio_url":   f.record.AudioURL,
	}})
	return f.record, nil
}

type fakeBriefings struct {
	today    *domain.BriefingRecord
	history  []domain.BriefingRecord
	lastEdit domain.BriefingEdit
	lastUser string
}

func (f *fakeBriefings) Today(_ context.Context, userID string) (*domain.BriefingRecord, error) {
	f.lastUser = userID
	return f.today, nil
}

func (f *fakeBriefings) History(_ context.Context, _ string, limit int) ([]domain.BriefingRecord, error) {
	if limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeBriefings) SaveEdit(_ context.Context, _ string, edit domain.BriefingEdit) (*domain.BriefingRecord, error) {
	f.lastEdit = edit
	if f.today == nil {
		return nil, domain.ErrNotFound
	}
	rec := *f.today
	if edit.Title != nil {
		rec.Title = *edit.Title
	}
	if edit.Sections != nil {
		rec.Sections = edit.Sections
	}
	rec.Status = domain.BriefingEdited
	return &rec, nil
}

type fakeConnectors struct {
	statuses     []domain.ConnectionStatus
	consentURL   string
	connected    []string
	disconnected []domain.Provider
}

func (f *fakeConnectors) GetValidCredential(context.Context, string, domain.Provider) (*domain.Credential, error) {
	return nil, domain.ErrAuthRequired
}

func (f *fakeConnectors) NeedsReauthorization(context.Context, string, domain.Provider) (bool, error) {
	return true, nil
}

func (f *fakeConnectors) AuthorizationURL(_ context.Context, _ string, _ domain.Provider) (string, error) {
	return f.consentURL, nil
}

func (f *fakeConnectors) Connect(_ context.Context, provider domain.Provider, code, state string) (*domain.Credential, error) {
	f.connected = append(f.connected, string(provider)+":"+code+":"+state)
	return &domain.Credential{Provider: provider}, nil
}

func (f *fakeConnectors) Disconnect(_ context.Context, _ string, provider domain.Provider) error {
	f.disconnected = append(f.disconnected, provider)
	return nil
}

func (f *fakeConnectors) Status(context.Context, string) ([]domain.ConnectionStatus, error) {
	return f.statuses, nil
}

type fakeSettings struct {
	settings domain.UserSettings
}

func (f *fakeSettings) Get(_ context.Context, userID string) (domain.UserSettings, error) {
	st := f.settings
	st.UserID = userID
	return st, nil
}

func (f *fakeSettings) SetProviders(_ context.Context, userID string, providers []domain.Provider) (domain.UserSettings, error) {
	f.settings.EnabledProviders = providers
	return f.Get(context.Background(), userID)
}

func (f *fakeSettings) Save(_ context.Context, settings domain.UserSettings) error {
	f.settings = settings
	return nil
}

type fakeInterests struct {
	profile   domain.InterestProfile
	refreshed bool
}

func (f *fakeInterests) Profile(context.Context, string) (domain.InterestProfile, error) {
	return f.profile, nil
}

func (f *fakeInterests) Refresh(context.Context, string) (domain.InterestProfile, error) {
	f.refreshed = true
	return f.profile, nil
}

func (f *fakeInterests) Invalidate(context.Context, string) error { return nil }

type fakeIssuer struct {
	lastUser string
	lastTTL  time.Duration
}

func (f *fakeIssuer) IssueSession(userID string, ttl time.Duration) (string, error) {
	f.lastUser, f.lastTTL = userID, ttl
	return "token-for-" + userID, nil
}

// testServices are the fakes installed by setupTestServices.
type testServices struct {
	pipeline   *fakePipeline
	briefings  *fakeBriefings
	connectors *fakeConnectors
	settings   *fakeSettings
	interests  *fakeInterests
	issuer     *fakeIssuer
}

func sampleRecord() *domain.BriefingRecord {
	return &domain.BriefingRecord{
		ID:              "b1",
		UserID:          "local",
		DateKey:         "2025-06-01",
		Title:           "Sunday edition",
		Script:          "Host: Good morning.",
		Sections:        []domain.Section{{Label: "mail", Text: "Host: Two new emails."}},
		Status:          domain.BriefingCompleted,
		AudioURL:        "http://localhost:8080/media/b1.mp3",
		DurationSeconds: 95,
	}
}

// setupTestServices installs fakes for the driving ports, points the
// profile at a temporary directory and resets flag state.
func setupTestServices(t *testing.T) (*testServices, func()) {
	t.Helper()
	resetFlags(rootCmd)

	ts := &testServices{
		pipeline:   &fakePipeline{record: sampleRecord()},
		briefings:  &fakeBriefings{},
		connectors: &fakeConnectors{},
		settings:   &fakeSettings{settings: domain.DefaultUserSettings("")},
		interests:  &fakeInterests{},
		issuer:     &fakeIssuer{},
	}
	pipelineService = ts.pipeline
	briefingService = ts.briefings
	connectorService = ts.connectors
	settingsService = ts.settings
	interestService = ts.interests
	sessionIssuer = ts.issuer
	profileDir = t.TempDir()

	return ts, func() {
		pipelineService = nil
		briefingService = nil
		connectorService = nil
		settingsService = nil
		interestService = nil
		sessionIssuer = nil
		profileDir = ""
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns everything printed.
// Flags start from their defaults on every call.
func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
