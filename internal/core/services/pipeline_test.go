package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
)

type pipelineFixture struct {
	pipeline *Pipeline
	store    *memory.BriefingStore
	llm      *stubLLM
	speech   *stubSpeech
	objects  *stubObjectStore
	observer *recordingObserver
	registry *stubRegistry
}

func interestsOrTopic(prompt string) (string, error) {
	if strings.Contains(prompt, "viewing history") {
		return `["golang", "podcasts"]`, nil
	}
	return topicJSON, nil
}

func newPipelineFixture(t *testing.T, cfg PipelineConfig, fetchers ...driven.SourceFetcher) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		store:    memory.NewBriefingStore(),
		llm:      &stubLLM{respond: interestsOrTopic},
		speech:   &stubSpeech{audio: []byte("RIFFdata"), mime: "audio/wav"},
		objects:  &stubObjectStore{},
		observer: &recordingObserver{},
		registry: &stubRegistry{},
	}
	if len(fetchers) == 0 {
		fetchers = []driven.SourceFetcher{
			&stubFetcher{provider: domain.ProviderGmail, items: items(domain.ProviderGmail, 2)},
			&stubFetcher{provider: domain.ProviderYouTube, items: items(domain.ProviderYouTube, 3)},
		}
	}

	settings := NewSettingsService(memory.NewUserSettingsStore())
	briefings := NewBriefingService(f.store, settings, time.UTC)
	briefings.sleep = func(context.Context, time.Duration) error { return nil }
	audio := NewAudioSynthesizer(f.speech, f.objects, AudioConfig{})
	audio.sleep = func(context.Context, time.Duration) error { return nil }

	aggCfg := DefaultAggregatorConfig()
	aggCfg.FetchTimeout = 100 * time.Millisecond
	aggCfg.ProviderTimeouts = nil

	f.pipeline = NewPipeline(PipelineDeps{
		Aggregator: NewAggregator(f.registry, fetchers, nil, aggCfg),
		Interests:  NewInterestService(f.llm, memory.NewInterestStore(), nil, f.registry, nil, memory.NewUserSettingsStore(), InterestConfig{}),
		Script:     NewScriptSynthesizer(f.llm, nil, ScriptConfig{}),
		Audio:      audio,
		Briefings:  briefings,
		Settings:   settings,
		Observers:  []driven.ProgressObserver{f.observer},
	}, cfg)
	return f
}

func request(providers ...domain.Provider) driving.GenerateRequest {
	return driving.GenerateRequest{UserID: "u1", Providers: providers}
}

// TestPipeline_Generate tests a full run from aggregation to persistence
func TestPipeline_Generate(t *testing.T) {
	f := newPipelineFixture(t, PipelineConfig{})
	sink := &recordingSink{}

	rec, err := f.pipeline.Generate(context.Background(), request(domain.ProviderGmail, domain.ProviderYouTube), sink)

	require.NoError(t, err)
	assert.Equal(t, []domain.Stage{
		domain.StageStarted,
		domain.StageAggregating,
		domain.StageSynthesizingInterest,
		domain.StageSynthesizingScript,
		domain.StageSynthesizingAudio,
		domain.StagePersisting,
		domain.StageCompleted,
	}, sink.stages())
	assert.Equal(t, sink.stages(), f.observer.stages)
	assert.Equal(t, 1, sink.closed)

	assert.Equal(t, domain.BriefingCompleted, rec.Status)
	assert.True(t, strings.HasPrefix(rec.AudioURL, "https://cdn.example/briefings/u1/"+rec.DateKey+"/"))
	assert.Equal(t, rec.ID, sink.last().Payload["briefing_id"])
	assert.Equal(t, 1, f.store.Count("u1"))

	// The interest keywords reach the topic prompts.
	var sawInterests bool
	for _, p := range f.llm.prompts {
		if strings.Contains(p, "golang, podcasts") {
			sawInterests = true
		}
	}
	assert.True(t, sawInterests)
}

// TestPipeline_RerunReplacesSameDay tests that a second run updates the record
func TestPipeline_RerunReplacesSameDay(t *testing.T) {
	f := newPipelineFixture(t, PipelineConfig{})
	ctx := context.Background()

	first, err := f.pipeline.Generate(ctx, request(domain.ProviderGmail), nil)
	require.NoError(t, err)
	second, err := f.pipeline.Generate(ctx, request(domain.ProviderGmail), nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.AudioURL, second.AudioURL)
	assert.Equal(t, 1, f.store.Count("u1"))
}

// TestPipeline_AllTopicsFail tests that nothing is persisted when the script fails
func TestPipeline_AllTopicsFail(t *testing.T) {
	f := newPipelineFixture(t, PipelineConfig{})
	f.llm.respond = func(string) (string, error) { return "", errors.New("model down") }
	sink := &recordingSink{}

	_, err := f.pipeline.Generate(context.Background(), request(domain.ProviderGmail), sink)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoContent))
	last := sink.last()
	assert.Equal(t, domain.StageError, last.Stage)
	assert.Equal(t, "no_content", last.Payload["code"])
	assert.Equal(t, 0, f.store.Count("u1"))
	assert.Equal(t, int32(0), f.speech.calls.Load())
}

// TestPipeline_AllSourcesNeedAuth tests the reconnect error
func TestPipeline_AllSourcesNeedAuth(t *testing.T) {
	f := newPipelineFixture(t, PipelineConfig{})
	f.registry.errs = map[domain.Provider]error{
		domain.ProviderGmail:   fmt.Errorf("%w: gmail", domain.ErrAuthRequired),
		domain.ProviderYouTube: fmt.Errorf("%w: youtube", domain.ErrAuthRequired),
	}
	sink := &recordingSink{}

	_, err := f.pipeline.Generate(context.Background(), request(domain.ProviderGmail, domain.ProviderYouTube), sink)

	assert.True(t, errors.Is(err, domain.ErrAuthRequired))
	assert.Equal(t, []domain.Stage{domain.StageStarted, domain.StageAggregating, domain.StageError}, sink.stages())
	assert.Equal(t, "auth_required", sink.last().Payload["code"])
	assert.Equal(t, 0, f.llm.calls())
}

// TestPipeline_TrendTopicsWithoutContent tests generation from ad-hoc topics alone
func TestPipeline_TrendTopicsWithoutContent(t *testing.T) {
	f := newPipelineFixture(t, PipelineConfig{}, &stubFetcher{provider: domain.ProviderGmail, err: errors.New("503")})
	req := request(domain.ProviderGmail)
	req.TrendTopics = []string{"solar eclipse"}

	rec, err := f.pipeline.Generate(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Contains(t, rec.Script, "Hello there.")
}

// TestPipeline_SpeechFailure tests script-only fallback and the strict mode
func TestPipeline_SpeechFailure(t *testing.T) {
	f := newPipelineFixture(t, PipelineConfig{})
	f.speech.err = errors.New("voice quota")
	sink := &recordingSink{}

	rec, err := f.pipeline.Generate(context.Background(), request(domain.ProviderGmail), sink)
	require.NoError(t, err)
	assert.Equal(t, domain.BriefingScriptOnly, rec.Status)
	for _, e := range sink.events {
		if e.Stage == domain.StageSynthesizingAudio {
			assert.Equal(t, true, e.Payload["skipped"])
		}
	}

	strict := newPipelineFixture(t, PipelineConfig{RequireAudio: true})
	strict.speech.err = errors.New("voice quota")
	_, err = strict.pipeline.Generate(context.Background(), request(domain.ProviderGmail), nil)
	assert.True(t, errors.Is(err, domain.ErrSynthesisFailure))
	assert.Equal(t, 0, strict.store.Count("u1"))
}

// TestPipeline_UploadFailureIsFatal tests that storage failures stop the run
func TestPipeline_UploadFailureIsFatal(t *testing.T) {
	f := newPipelineFixture(t, PipelineConfig{})
	f.objects.failFirst = 10
	sink := &recordingSink{}

	_, err := f.pipeline.Generate(context.Background(), request(domain.ProviderGmail), sink)

	assert.True(t, errors.Is(err, domain.ErrPersistence))
	assert.Equal(t, "persistence_failed", sink.last().Payload["code"])
	assert.Equal(t, 0, f.store.Count("u1"))
}

// TestPipeline_SubscriberGoneRunContinues tests persistence after the client leaves
func TestPipeline_SubscriberGoneRunContinues(t *testing.T) {
	f := newPipelineFixture(t, PipelineConfig{})
	sink := &recordingSink{failAt: domain.StageAggregating}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := f.pipeline.Generate(ctx, request(domain.ProviderGmail), sink)

	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, []domain.Stage{domain.StageStarted}, sink.stages())
	assert.Equal(t, domain.StageCompleted, f.observer.stages[len(f.observer.stages)-1])
	assert.Equal(t, 1, f.store.Count("u1"))
}

// TestPipeline_PersistFailure tests the persisting stage error
func TestPipeline_PersistFailure(t *testing.T) {
	f := newPipelineFixture(t, PipelineConfig{})
	f.store.FailUpserts = persistAttempts
	sink := &recordingSink{}

	_, err := f.pipeline.Generate(context.Background(), request(domain.ProviderGmail), sink)

	assert.True(t, errors.Is(err, domain.ErrPersistence))
	assert.Equal(t, domain.StageError, sink.last().Stage)
}
