package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService manages per-user generation preferences.
type SettingsService struct {
	store driven.UserSettingsStore
	now   func() time.Time
}

// NewSettingsService creates a settings service.
func NewSettingsService(store driven.UserSettingsStore) *SettingsService {
	return &SettingsService{store: store, now: time.Now}
}

// Get returns stored settings, or defaults for a user without any.
func (s *SettingsService) Get(ctx context.Context, userID string) (domain.UserSettings, error) {
	st, err := s.store.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultUserSettings(userID), nil
	}
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}
	return *st, nil
}

// SetProviders replaces the enabled providers.
func (s *SettingsService) SetProviders(
	ctx context.Context,
	userID string,
	providers []domain.Provider,
) (domain.UserSettings, error) {
	for _, p := range providers {
		if !p.Valid() {
			return domain.UserSettings{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, p)
		}
	}
	st, err := s.Get(ctx, userID)
	if err != nil {
		return domain.UserSettings{}, err
	}
	st.EnabledProviders = uniqueProviders(providers)
	if err := s.Save(ctx, st); err != nil {
		return domain.UserSettings{}, err
	}
	return st, nil
}

// Save validates and stores settings.
func (s *SettingsService) Save(ctx context.Context, settings domain.UserSettings) error {
	if settings.UserID == "" {
		return fmt.Errorf("%w: missing user id", domain.ErrInvalidInput)
	}
	if settings.Timezone != "" {
		if _, err := time.LoadLocation(settings.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q", domain.ErrInvalidInput, settings.Timezone)
		}
	}
	settings.UpdatedAt = s.now()
	if err := s.store.Save(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
