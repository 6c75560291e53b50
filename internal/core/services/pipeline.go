package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.BriefingPipeline = (*Pipeline)(nil)

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// RequireAudio makes a speech failure fatal. When false the briefing is
	// stored script only.
	RequireAudio bool
}

// Pipeline turns a generation request into a persisted briefing:
// aggregate, synthesize interests, write the script, render audio, persist.
// Stages run in order and each reports one progress event once settled.
type Pipeline struct {
	aggregator driving.ContentAggregator
	interests  *InterestService
	script     *ScriptSynthesizer
	audio      *AudioSynthesizer
	briefings  *BriefingService
	settings   driving.SettingsService
	observers  []driven.ProgressObserver
	metrics    driven.Metrics
	tracer     trace.Tracer
	cfg        PipelineConfig
	newID      func() string
}

// PipelineDeps collects the stages of a Pipeline. Interests and Audio may be nil.
type PipelineDeps struct {
	Aggregator driving.ContentAggregator
	Interests  *InterestService
	Script     *ScriptSynthesizer
	Audio      *AudioSynthesizer
	Briefings  *BriefingService
	Settings   driving.SettingsService
	Observers  []driven.ProgressObserver
	Metrics    driven.Metrics
}

// NewPipeline creates a pipeline.
func NewPipeline(deps PipelineDeps, cfg PipelineConfig) *Pipeline {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Pipeline{
		aggregator: deps.Aggregator,
		interests:  deps.Interests,
		script:     deps.Script,
		audio:      deps.Audio,
		briefings:  deps.Briefings,
		settings:   deps.Settings,
		observers:  deps.Observers,
		metrics:    metrics,
		tracer:     otel.Tracer("github.com/custodia-labs/briefcast/pipeline"),
		cfg:        cfg,
		newID:      func() string { return uuid.New().String() },
	}
}

// Generate runs one generation. The run is detached from ctx cancellation:
// once started it completes and persists even if the caller goes away.
func (p *Pipeline) Generate(
	ctx context.Context,
	req driving.GenerateRequest,
	sink driven.ProgressSink,
) (*domain.BriefingRecord, error) {
	ctx = context.WithoutCancel(ctx)
	runID := p.newID()
	tracker := NewProgressTracker(runID, req.UserID, sink, p.observers)

	ctx, span := p.tracer.Start(ctx, "briefing.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("user.id", req.UserID),
	))
	defer span.End()

	logger.Section("briefing run " + runID)
	rec, err := p.run(ctx, runID, req, tracker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorCode(err))
		p.metrics.PipelineRun(ctx, domain.ErrorCode(err))
		logger.Error("briefing run %s for %s failed: %v", runID, req.UserID, err)
		tracker.Fail(ctx, err)
		return nil, err
	}

	p.metrics.PipelineRun(ctx, string(domain.StageCompleted))
	if err := tracker.Emit(ctx, domain.StageCompleted, map[string]any{
		"briefing_id": rec.ID,
		"date_key":    rec.DateKey,
		"audio_url":   rec.AudioURL,
		"status":      rec.Status,
	}); err != nil {
		logger.Warn("run %s: %v", runID, err)
	}
	logger.Info("briefing run %s for %s completed (%s)", runID, req.UserID, rec.Status)
	return rec, nil
}

func (p *Pipeline) run(
	ctx context.Context,
	runID string,
	req driving.GenerateRequest,
	tracker *ProgressTracker,
) (*domain.BriefingRecord, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", domain.ErrInvalidInput)
	}

	settings, err := p.settings.Get(ctx, req.UserID)
	if err != nil {
		logger.Warn("settings for %s: %v; using defaults", req.UserID, err)
		settings = domain.DefaultUserSettings(req.UserID)
	}
	providers := req.Providers
	if len(providers) == 0 {
		providers = settings.EnabledProviders
	}
	dateKey := p.briefings.DateKey(ctx, req.UserID)

	if err := tracker.Emit(ctx, domain.StageStarted, map[string]any{
		"run_id":    runID,
		"date_key":  dateKey,
		"providers": providers,
	}); err != nil {
		return nil, err
	}

	// Aggregation never fails; an empty result with no ad-hoc topics is fatal.
	var content domain.AggregatedContent
	if err := p.stage(ctx, domain.StageAggregating, func(ctx context.Context) error {
		content = p.aggregator.Aggregate(ctx, driving.AggregateRequest{
			UserID:    req.UserID,
			Providers: providers,
			Settings:  settings,
		})
		return nil
	}); err != nil {
		return nil, err
	}
	succeeded, failed := content.Counts()
	authRequired := make([]domain.Provider, 0)
	for prov, r := range content {
		if r.Status == domain.FetchAuthRequired {
			authRequired = append(authRequired, prov)
		}
	}
	sort.Slice(authRequired, func(i, j int) bool { return authRequired[i] < authRequired[j] })
	if err := tracker.Emit(ctx, domain.StageAggregating, map[string]any{
		"providers":     content.Statuses(),
		"succeeded":     succeeded,
		"failed":        failed,
		"items":         content.ItemCount(),
		"auth_required": authRequired,
	}); err != nil {
		return nil, err
	}
	if content.IsEmpty() && len(req.TrendTopics) == 0 {
		if content.AllAuthRequired() {
			return nil, fmt.Errorf("%w: %w: every provider needs reconnecting", domain.ErrNoContent, domain.ErrAuthRequired)
		}
		return nil, fmt.Errorf("%w: no provider returned content", domain.ErrNoContent)
	}

	var profile domain.InterestProfile
	if p.interests != nil {
		_ = p.stage(ctx, domain.StageSynthesizingInterest, func(ctx context.Context) error {
			profile = p.interests.ProfileFromContent(ctx, req.UserID, content)
			return nil
		})
		if err := tracker.Emit(ctx, domain.StageSynthesizingInterest, map[string]any{
			"keywords": len(profile.Keywords),
			"status":   profile.Status,
		}); err != nil {
			return nil, err
		}
	}

	var script ScriptResult
	if err := p.stage(ctx, domain.StageSynthesizingScript, func(ctx context.Context) error {
		var err error
		script, err = p.script.Synthesize(ctx, ScriptInput{
			Content:     content,
			Interests:   profile,
			TrendTopics: req.TrendTopics,
			Language:    settings.Language,
			DateLabel:   dateKey,
		})
		return err
	}); err != nil {
		return nil, err
	}
	doc := script.Document.Clone()
	if err := tracker.Emit(ctx, domain.StageSynthesizingScript, map[string]any{
		"sections":      len(doc.Sections),
		"words":         doc.WordCount(),
		"failed_topics": script.FailedTopics,
	}); err != nil {
		return nil, err
	}

	audio, err := p.synthesizeAudio(ctx, req.UserID, dateKey, doc, settings.Language)
	if err != nil {
		return nil, err
	}
	audioPayload := map[string]any{"skipped": audio == nil}
	if audio != nil {
		audioPayload["mime_type"] = audio.MimeType
		audioPayload["bytes"] = audio.ByteLength
		audioPayload["duration_seconds"] = audio.DurationEstimateSeconds
	}
	if err := tracker.Emit(ctx, domain.StageSynthesizingAudio, audioPayload); err != nil {
		return nil, err
	}

	var rec *domain.BriefingRecord
	if err := p.stage(ctx, domain.StagePersisting, func(ctx context.Context) error {
		var err error
		rec, err = p.briefings.Upsert(ctx, req.UserID, dateKey, doc, audio)
		return err
	}); err != nil {
		return nil, err
	}
	if err := tracker.Emit(ctx, domain.StagePersisting, map[string]any{
		"date_key": rec.DateKey,
		"status":   rec.Status,
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

// synthesizeAudio returns nil audio without error when speech is not
// configured, or when it fails and audio is optional.
func (p *Pipeline) synthesizeAudio(
	ctx context.Context,
	userID, dateKey string,
	doc domain.ScriptDocument,
	language string,
) (*domain.AudioArtifact, error) {
	if p.audio == nil {
		if p.cfg.RequireAudio {
			return nil, fmt.Errorf("%w: no speech provider configured", domain.ErrSynthesisFailure)
		}
		return nil, nil
	}
	var audio *domain.AudioArtifact
	err := p.stage(ctx, domain.StageSynthesizingAudio, func(ctx context.Context) error {
		var err error
		audio, err = p.audio.Synthesize(ctx, userID, dateKey, doc, language)
		return err
	})
	switch {
	case err == nil:
		return audio, nil
	case errors.Is(err, domain.ErrSynthesisFailure) && !p.cfg.RequireAudio:
		logger.Warn("audio for %s skipped: %v", userID, err)
		return nil, nil
	default:
		return nil, err
	}
}

// stage runs fn in a span and records its duration.
func (p *Pipeline) stage(ctx context.Context, stage domain.Stage, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "briefing."+string(stage))
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	p.metrics.StageDuration(ctx, stage, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
