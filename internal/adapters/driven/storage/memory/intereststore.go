package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

var errStoreUnavailable = errors.New("memory store unavailable")

// Ensure InterestStore implements the interface.
var _ driven.InterestStore = (*InterestStore)(nil)

// InterestStore is an in-memory implementation of driven.InterestStore.
type InterestStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.InterestProfile
}

// NewInterestStore creates a new in-memory interest store.
func NewInterestStore() *InterestStore {
	return &InterestStore{profiles: make(map[string]domain.InterestProfile)}
}

// Get returns the cached profile.
func (s *InterestStore) Get(_ context.Context, userID string) (*domain.InterestProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Keywords = append([]string(nil), p.Keywords...)
	return &p, nil
}

// Save caches a profile.
func (s *InterestStore) Save(_ context.Context, profile domain.InterestProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile.Keywords = append([]string(nil), profile.Keywords...)
	s.profiles[profile.UserID] = profile
	return nil
}

// Delete drops a cached profile.
func (s *InterestStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	return nil
}

// Ensure UserSettingsStore implements the interface.
var _ driven.UserSettingsStore = (*UserSettingsStore)(nil)

// UserSettingsStore is an in-memory implementation of driven.UserSettingsStore.
type UserSettingsStore struct {
	mu       sync.RWMutex
	settings map[string]domain.UserSettings
}

// NewUserSettingsStore creates a new in-memory settings store.
func NewUserSettingsStore() *UserSettingsStore {
	return &UserSettingsStore{settings: make(map[string]domain.UserSettings)}
}

// Get returns stored settings.
func (s *UserSettingsStore) Get(_ context.Context, userID string) (*domain.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	st.EnabledProviders = append([]domain.Provider(nil), st.EnabledProviders...)
	return &st, nil
}

// Save stores settings.
func (s *UserSettingsStore) Save(_ context.Context, settings domain.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.EnabledProviders = append([]domain.Provider(nil), settings.EnabledProviders...)
	s.settings[settings.UserID] = settings
	return nil
}
