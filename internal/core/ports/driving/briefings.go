package driving

import (
	"context"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// BriefingPipeline runs one generation from aggregation to persistence.
type BriefingPipeline interface {
	// Generate runs the pipeline, reporting every stage to sink. Work runs to
	// completion and is persisted even when the sink fails mid-run or ctx is
	// cancelled after the run started.
	Generate(ctx context.Context, req GenerateRequest, sink driven.ProgressSink) (*domain.BriefingRecord, error)
}

// GenerateRequest describes one generation.
type GenerateRequest struct {
	UserID string
	// Providers overrides the user's enabled providers when set.
	Providers []domain.Provider
	// TrendTopics are ad-hoc topics narrated in addition to fetched content.
	TrendTopics []string
}

// BriefingService reads and edits stored briefings.
type BriefingService interface {
	// Today returns today's record, or nil if none exists yet.
	Today(ctx context.Context, userID string) (*domain.BriefingRecord, error)

	// History returns recent records, newest first.
	History(ctx context.Context, userID string, limit int) ([]domain.BriefingRecord, error)

	// SaveEdit applies a manual edit to today's record without running the pipeline.
	SaveEdit(ctx context.Context, userID string, edit domain.BriefingEdit) (*domain.BriefingRecord, error)
}

// InterestService manages cached interest profiles.
type InterestService interface {
	// Profile returns the cached profile, synthesizing one when none is cached.
	Profile(ctx context.Context, userID string) (domain.InterestProfile, error)

	// Refresh invalidates the cache and synthesizes a new profile.
	Refresh(ctx context.Context, userID string) (domain.InterestProfile, error)

	// Invalidate drops the cached profile.
	Invalidate(ctx context.Context, userID string) error
}

// SettingsService reads and updates user settings.
type SettingsService interface {
	// Get returns stored settings, or defaults for a new user.
	Get(ctx context.Context, userID string) (domain.UserSettings, error)

	// SetProviders replaces the enabled providers.
	SetProviders(ctx context.Context, userID string, providers []domain.Provider) (domain.UserSettings, error)

	// Save replaces all settings.
	Save(ctx context.Context, settings domain.UserSettings) error
}
