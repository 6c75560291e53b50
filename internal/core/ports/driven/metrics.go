package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// Metrics records pipeline measurements.
type Metrics interface {
	// PipelineRun counts a finished run by outcome ("completed" or an error code).
	PipelineRun(ctx context.Context, outcome string)

	// StageDuration records how long a stage took.
	StageDuration(ctx context.Context, stage domain.Stage, d time.Duration)

	// SourceFetch counts one provider fetch by status.
	SourceFetch(ctx context.Context, provider domain.Provider, status domain.FetchStatus)

	// CredentialRefresh counts a refresh exchange by outcome ("ok" or "failed").
	CredentialRefresh(ctx context.Context, provider domain.Provider, outcome string)
}
