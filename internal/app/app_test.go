package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/config"
	"github.com/custodia-labs/briefcast/internal/core/domain"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Driver = config.ModeMemory
	cfg.ObjectStore.Directory = t.TempDir()
	cfg.Prompts.Directory = t.TempDir()
	cfg.Prompts.Watch = false
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

// TestNew tests assembling the services with in-memory adapters
func TestNew(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg, "test")
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Pipeline)
	assert.NotNil(t, a.Briefings)
	assert.NotNil(t, a.Interests)
	assert.Equal(t, cfg.ObjectStore.Directory, a.MediaDir)
	assert.NotNil(t, a.MetricsHandler())
	assert.NoError(t, a.Ready(context.Background()))

	statuses, err := a.Connectors.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, statuses, len(domain.AllProviders()))

	settings, err := a.Settings.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, settings.EnabledProviders)

	token, err := a.Sessions.IssueSession("u1", time.Hour)
	require.NoError(t, err)
	user, err := a.Sessions.VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", user)
}

// TestNew_SQLite tests that the database opens under the storage path
func TestNew_SQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = config.ModeSQLite
	cfg.Storage.Path = t.TempDir()

	a, err := New(context.Background(), cfg, "test")
	require.NoError(t, err)
	assert.NoError(t, a.Ready(context.Background()))
	assert.NoError(t, a.Close())
}

// TestNew_MissingSecret tests that production refuses to run without a secret
func TestNew_MissingSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Environment = "production"
	cfg.Auth.JWTSecret = ""

	_, err := New(context.Background(), cfg, "test")
	assert.Error(t, err)
}

// TestNew_DevelopmentSecret tests the temporary development secret
func TestNew_DevelopmentSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = ""

	a, err := New(context.Background(), cfg, "test")
	require.NoError(t, err)
	defer a.Close()
	assert.NotNil(t, a.Sessions)
}

// TestProviderConfigs tests family fallback and the default redirect URL
func TestProviderConfigs(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.PublicURL = "https://brief.example.com/"
	cfg.Providers = map[string]config.ProviderConfig{
		"google": {ClientID: "gid", ClientSecret: "gsecret"},
		"notion": {ClientID: "nid", RedirectURL: "https://other.example.com/cb"},
	}

	got := providerConfigs(cfg)

	require.Contains(t, got, domain.ProviderGmail)
	assert.Equal(t, "gid", got[domain.ProviderGmail].ClientID)
	assert.Equal(t, "https://brief.example.com/api/connectors/gmail/callback", got[domain.ProviderGmail].RedirectURL)
	assert.Equal(t, "https://brief.example.com/api/connectors/youtube/callback", got[domain.ProviderYouTube].RedirectURL)
	assert.Equal(t, "https://other.example.com/cb", got[domain.ProviderNotion].RedirectURL)
	assert.NotContains(t, got, domain.ProviderGitHub)
	assert.NotContains(t, got, domain.ProviderTrends)
}
