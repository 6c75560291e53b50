package driven

import (
	"context"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// BriefingStore persists daily briefings, unique on (user, date key).
type BriefingStore interface {
	// Upsert creates the record for (UserID, DateKey) or replaces the script,
	// section and audio fields of the existing one. The write is atomic.
	Upsert(ctx context.Context, in domain.BriefingUpsert) (*domain.BriefingRecord, error)

	// Get returns the record for a user and day, or domain.ErrNotFound.
	Get(ctx context.Context, userID, dateKey string) (*domain.BriefingRecord, error)

	// List returns a user's records, newest day first.
	List(ctx context.Context, userID string, limit int) ([]domain.BriefingRecord, error)
}

// InterestStore caches interest profiles per user.
type InterestStore interface {
	// Get returns the cached profile, or domain.ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.InterestProfile, error)

	// Save stores a profile, replacing any cached one.
	Save(ctx context.Context, profile domain.InterestProfile) error

	// Delete drops the cached profile. Deleting a missing profile is not an error.
	Delete(ctx context.Context, userID string) error
}

// UserSettingsStore persists per-user generation preferences.
type UserSettingsStore interface {
	// Get returns the stored settings, or domain.ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.UserSettings, error)

	// Save stores the settings.
	Save(ctx context.Context, settings domain.UserSettings) error
}
