package domain

import "time"

// UserSettings are the per-user generation preferences.
type UserSettings struct {
	UserID string `json:"user_id"`
	// EnabledProviders are fetched for each run, in this order.
	EnabledProviders []Provider `json:"enabled_providers"`
	// Language is the narration language, e.g. "en".
	Language string `json:"language"`
	// Timezone names the IANA zone used for date keys. Empty uses the default.
	Timezone string `json:"timezone,omitempty"`
	// TrendRegion is the region code for the trend feed, e.g. "US".
	TrendRegion string    `json:"trend_region,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultUserSettings returns the settings used when a user has none stored.
func DefaultUserSettings(userID string) UserSettings {
	return UserSettings{
		UserID:           userID,
		EnabledProviders: []Provider{ProviderGmail, ProviderCalendar, ProviderYouTube, ProviderTrends},
		Language:         "en",
		TrendRegion:      "US",
	}
}

// Location resolves the settings timezone, falling back to def.
func (s UserSettings) Location(def *time.Location) *time.Location {
	if s.Timezone == "" {
		return def
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return def
	}
	return loc
}
