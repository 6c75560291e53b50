package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.Metrics = (*Metrics)(nil)

// Metrics records pipeline measurements as OpenTelemetry instruments.
type Metrics struct {
	runs      metric.Int64Counter
	stages    metric.Float64Histogram
	fetches   metric.Int64Counter
	refreshes metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runs, err := meter.Int64Counter("briefcast.pipeline.runs",
		metric.WithDescription("Finished briefing runs by outcome."))
	if err != nil {
		return nil, err
	}
	stages, err := meter.Float64Histogram("briefcast.stage.duration",
		metric.WithDescription("Time spent in each pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120, 300))
	if err != nil {
		return nil, err
	}
	fetches, err := meter.Int64Counter("briefcast.source.fetches",
		metric.WithDescription("Provider fetches by status."))
	if err != nil {
		return nil, err
	}
	refreshes, err := meter.Int64Counter("briefcast.credential.refreshes",
		metric.WithDescription("OAuth refresh exchanges by outcome."))
	if err != nil {
		return nil, err
	}
	return &Metrics{runs: runs, stages: stages, fetches: fetches, refreshes: refreshes}, nil
}

func (m *Metrics) PipelineRun(ctx context.Context, outcome string) {
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) StageDuration(ctx context.Context, stage domain.Stage, d time.Duration) {
	m.stages.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", string(stage))))
}

func (m *Metrics) SourceFetch(ctx context.Context, provider domain.Provider, status domain.FetchStatus) {
	m.fetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", string(provider)),
		attribute.String("status", string(status)),
	))
}

func (m *Metrics) CredentialRefresh(ctx context.Context, provider domain.Provider, outcome string) {
	m.refreshes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", string(provider)),
		attribute.String("outcome", outcome),
	))
}
