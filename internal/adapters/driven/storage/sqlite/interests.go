package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// ==================== Interest Store ====================

type interestStore struct {
	store *Store
}

var _ driven.InterestStore = (*interestStore)(nil)

// Get returns the cached profile for a user.
func (s *interestStore) Get(ctx context.Context, userID string) (*domain.InterestProfile, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, keywords, status, generated_at
		FROM interest_profiles WHERE user_id = ?
	`, userID)

	var (
		p           domain.InterestProfile
		keywords    string
		status      string
		generatedAt sql.NullString
	)
	if err := row.Scan(&p.UserID, &keywords, &status, &generatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning interest profile: %w", err)
	}
	p.Status = domain.InterestStatus(status)
	p.GeneratedAt = decodeTime(generatedAt)
	if err := unmarshalJSON(keywords, &p.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshalling keywords: %w", err)
	}
	return &p, nil
}

// Save stores a profile, replacing any cached one.
func (s *interestStore) Save(ctx context.Context, p domain.InterestProfile) error {
	if p.UserID == "" {
		return domain.ErrInvalidInput
	}
	keywords, err := marshalJSON(p.Keywords)
	if err != nil {
		return fmt.Errorf("marshalling keywords: %w", err)
	}
	if p.GeneratedAt.IsZero() {
		p.GeneratedAt = time.Now()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO interest_profiles (user_id, keywords, status, generated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			keywords = excluded.keywords,
			status = excluded.status,
			generated_at = excluded.generated_at
	`, p.UserID, keywords, string(p.Status), encodeTime(p.GeneratedAt))
	if err != nil {
		return fmt.Errorf("saving interest profile: %w", err)
	}
	return nil
}

// Delete drops the cached profile.
func (s *interestStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM interest_profiles WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("deleting interest profile: %w", err)
	}
	return nil
}

// ==================== Settings Store ====================

type settingsStore struct {
	store *Store
}

var _ driven.UserSettingsStore = (*settingsStore)(nil)

// Get returns the stored settings for a user.
func (s *settingsStore) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, enabled_providers, language, timezone, trend_region, updated_at
		FROM user_settings WHERE user_id = ?
	`, userID)

	var (
		st        domain.UserSettings
		providers string
		updatedAt sql.NullString
	)
	if err := row.Scan(&st.UserID, &providers, &st.Language, &st.Timezone, &st.TrendRegion, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning settings: %w", err)
	}
	if err := unmarshalJSON(providers, &st.EnabledProviders); err != nil {
		return nil, fmt.Errorf("unmarshalling providers: %w", err)
	}
	st.UpdatedAt = decodeTime(updatedAt)
	return &st, nil
}

// Save stores the settings.
func (s *settingsStore) Save(ctx context.Context, st domain.UserSettings) error {
	if st.UserID == "" {
		return domain.ErrInvalidInput
	}
	providers, err := marshalJSON(st.EnabledProviders)
	if err != nil {
		return fmt.Errorf("marshalling providers: %w", err)
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, enabled_providers, language, timezone, trend_region, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			enabled_providers = excluded.enabled_providers,
			language = excluded.language,
			timezone = excluded.timezone,
			trend_region = excluded.trend_region,
			updated_at = excluded.updated_at
	`, st.UserID, providers, st.Language, st.Timezone, st.TrendRegion, encodeTime(st.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
