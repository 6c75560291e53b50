// Package app assembles the briefing services from configuration.
//
// It is the single place where adapters are chosen and connected to the
// core. Both the HTTP server and the command line build an App and talk to
// the driving ports it exposes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/briefcast/internal/adapters/driven/ai"
	"github.com/custodia-labs/briefcast/internal/adapters/driven/auth"
	"github.com/custodia-labs/briefcast/internal/adapters/driven/bus"
	"github.com/custodia-labs/briefcast/internal/adapters/driven/config/file"
	"github.com/custodia-labs/briefcast/internal/adapters/driven/oauth"
	"github.com/custodia-labs/briefcast/internal/adapters/driven/objectstore/local"
	"github.com/custodia-labs/briefcast/internal/adapters/driven/objectstore/s3"
	"github.com/custodia-labs/briefcast/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/briefcast/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/briefcast/internal/config"
	"github.com/custodia-labs/briefcast/internal/connectors"
	"github.com/custodia-labs/briefcast/internal/connectors/captions"
	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
	"github.com/custodia-labs/briefcast/internal/core/services"
	"github.com/custodia-labs/briefcast/internal/logger"
	"github.com/custodia-labs/briefcast/internal/telemetry"
)

// CallbackPath is the OAuth redirect path relative to the public URL.
const CallbackPath = "/api/connectors/%s/callback"

// App holds the assembled services.
type App struct {
	Config config.Config

	Pipeline   driving.BriefingPipeline
	Briefings  driving.BriefingService
	Connectors driving.ConnectorRegistry
	Interests  driving.InterestService
	Settings   driving.SettingsService

	// Sessions issues and verifies API bearer tokens.
	Sessions  *auth.Signer
	Telemetry *telemetry.Provider
	Prompts   *file.PromptStore
	// MediaDir is the local object store root, empty for remote stores.
	MediaDir string

	sqlite  *sqlite.Store
	bus     *bus.Publisher
	llm     driven.LLMService
	closers []func() error
}

// stores groups the persistence ports.
type stores struct {
	credentials driven.CredentialStore
	briefings   driven.BriefingStore
	interests   driven.InterestStore
	settings    driven.UserSettingsStore
}

// New builds an App. The returned App must be closed.
func New(ctx context.Context, cfg config.Config, version string) (*App, error) {
	a := &App{Config: cfg}
	if err := a.build(ctx, version); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, version string) error {
	cfg := a.Config

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, version, promclient.NewRegistry())
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	a.Telemetry = tel
	a.closers = append(a.closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tel.Shutdown(shutdownCtx)
	})

	st, err := a.openStores()
	if err != nil {
		return err
	}

	signer, err := newSigner(cfg)
	if err != nil {
		return err
	}
	a.Sessions = signer

	registry := services.NewConnectorRegistry(
		st.credentials,
		oauth.NewExchanger(providerConfigs(cfg)),
		signer,
		services.WithRefreshSkew(time.Duration(cfg.Auth.RefreshSkewSeconds)*time.Second),
		services.WithRegistryMetrics(tel.Metrics),
	)
	a.Connectors = registry

	settings := services.NewSettingsService(st.settings)
	a.Settings = settings
	briefings := services.NewBriefingService(st.briefings, settings, cfg.Location())
	a.Briefings = briefings

	llm, err := ai.CreateLLMService(cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	a.llm = llm
	a.closers = append(a.closers, llm.Close)

	speech, err := ai.CreateSpeechSynthesizer(cfg.Speech)
	if err != nil {
		return fmt.Errorf("speech: %w", err)
	}

	prompts, err := file.NewPromptStore(cfg.Prompts.Directory, services.DefaultPrompts())
	if err != nil {
		return fmt.Errorf("prompts: %w", err)
	}
	a.Prompts = prompts

	transcripts := services.NewTranscriptService(
		captions.NewTimedTextExtractor(cfg.Transcripts.BaseURL, nil),
		captions.NewWatchPageExtractor("", nil),
		config.Millis(cfg.Transcripts.DelayMS),
	)
	set := connectors.Build(connectors.Options{
		Transcripts:              transcripts,
		VideoDescriptionFallback: true,
	})

	aggregator := services.NewAggregator(registry, set.Fetchers, tel.Metrics, services.AggregatorConfig{
		Concurrency:  cfg.Pipeline.Concurrency,
		FetchTimeout: config.Millis(cfg.Pipeline.FetchTimeoutMS),
		ProviderTimeouts: map[domain.Provider]time.Duration{
			domain.ProviderYouTube: config.Millis(cfg.Pipeline.VideoFetchTimeoutMS),
		},
		ItemLimit:       cfg.Pipeline.ItemLimit,
		Lookback:        time.Duration(cfg.Pipeline.LookbackHours) * time.Hour,
		DefaultLocation: cfg.Location(),
	})

	interests := services.NewInterestService(llm, st.interests, prompts, registry, set.Signals, st.settings,
		services.InterestConfig{Timeout: config.Millis(cfg.Pipeline.InterestTimeoutMS)})
	a.Interests = interests

	script := services.NewScriptSynthesizer(llm, prompts, services.ScriptConfig{
		Concurrency: cfg.Pipeline.ScriptConcurrency,
		Delay:       config.Millis(cfg.Pipeline.ScriptDelayMS),
		Timeout:     config.Millis(cfg.Pipeline.ScriptTimeoutMS),
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	objects, err := a.openObjectStore()
	if err != nil {
		return err
	}
	audio := services.NewAudioSynthesizer(speech, objects, services.AudioConfig{
		Voices:         cfg.Speech.Voices,
		Timeout:        config.Millis(cfg.Pipeline.SpeechTimeoutMS),
		UploadAttempts: cfg.ObjectStore.UploadAttempts,
		UploadBackoff:  config.Millis(cfg.ObjectStore.UploadBackoffMS),
	})

	var observers []driven.ProgressObserver
	if cfg.Bus.Enabled {
		pub, err := bus.Connect(cfg.Bus)
		if err != nil {
			// The event stream still reaches the caller without the bus.
			logger.Warn("progress bus unavailable: %v", err)
		} else {
			a.bus = pub
			observers = append(observers, pub)
			a.closers = append(a.closers, func() error { pub.Close(); return nil })
		}
	}

	a.Pipeline = services.NewPipeline(services.PipelineDeps{
		Aggregator: aggregator,
		Interests:  interests,
		Script:     script,
		Audio:      audio,
		Briefings:  briefings,
		Settings:   settings,
		Observers:  observers,
		Metrics:    tel.Metrics,
	}, services.PipelineConfig{RequireAudio: cfg.Pipeline.RequireAudio})

	logger.Debug("assembled briefing services (storage=%s llm=%s speech=%s objects=%s)",
		cfg.Storage.Driver, llm.ModelName(), cfg.Speech.Mode, cfg.ObjectStore.Mode)
	return nil
}

func (a *App) openStores() (stores, error) {
	switch a.Config.Storage.Driver {
	case config.ModeMemory:
		logger.Warn("using in-memory storage; briefings are lost on exit")
		return stores{
			credentials: memory.NewCredentialStore(),
			briefings:   memory.NewBriefingStore(),
			interests:   memory.NewInterestStore(),
			settings:    memory.NewUserSettingsStore(),
		}, nil
	default:
		db, err := sqlite.NewStore(a.Config.Storage.Path)
		if err != nil {
			return stores{}, fmt.Errorf("%w: open database: %w", domain.ErrPersistence, err)
		}
		a.sqlite = db
		a.closers = append(a.closers, db.Close)
		logger.Info("database at %s", db.Path())
		return stores{
			credentials: db.CredentialStore(),
			briefings:   db.BriefingStore(),
			interests:   db.InterestStore(),
			settings:    db.UserSettingsStore(),
		}, nil
	}
}

func (a *App) openObjectStore() (driven.ObjectStore, error) {
	oc := a.Config.ObjectStore
	if oc.Mode == config.ModeS3 {
		store, err := s3.NewStore(s3.Config{
			Bucket:        oc.Bucket,
			Region:        oc.Region,
			Endpoint:      oc.Endpoint,
			PublicBaseURL: oc.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("object store: %w", err)
		}
		return store, nil
	}

	base := oc.PublicBaseURL
	if base == "" {
		base = a.Config.HTTP.PublicURL
	}
	store, err := local.NewStore(oc.Directory, base)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	a.MediaDir = store.Root()
	return store, nil
}

// newSigner builds the session and state signer. Development runs without a
// configured secret get a random one, so sessions do not survive a restart.
func newSigner(cfg config.Config) (*auth.Signer, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" && cfg.Environment == "development" {
		logger.Warn("auth.jwt_secret is not set; using a temporary secret")
		secret = uuid.NewString() + uuid.NewString()
	}
	signer, err := auth.NewSigner(secret, cfg.Auth.Issuer)
	if err != nil {
		return nil, fmt.Errorf("session signer: %w", err)
	}
	return signer, nil
}

// providerConfigs maps configured OAuth clients onto providers. A missing
// redirect URL points at this server's callback route.
func providerConfigs(cfg config.Config) map[domain.Provider]oauth.ProviderConfig {
	out := make(map[domain.Provider]oauth.ProviderConfig)
	for _, p := range domain.AllProviders() {
		if !p.RequiresAuth() {
			continue
		}
		pc, ok := cfg.Provider(string(p), p.AuthFamily())
		if !ok {
			continue
		}
		redirect := pc.RedirectURL
		if redirect == "" {
			redirect = strings.TrimRight(cfg.HTTP.PublicURL, "/") + fmt.Sprintf(CallbackPath, p)
		}
		out[p] = oauth.ProviderConfig{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  redirect,
			Scopes:       pc.Scopes,
		}
	}
	return out
}

// MetricsHandler returns the Prometheus scrape handler, nil when metrics are off.
func (a *App) MetricsHandler() http.Handler {
	if a.Telemetry == nil {
		return nil
	}
	return a.Telemetry.Handler
}

// WatchPrompts reloads edited prompt templates until ctx is done.
func (a *App) WatchPrompts(ctx context.Context) {
	if a.Prompts == nil || !a.Config.Prompts.Watch {
		return
	}
	changes, err := a.Prompts.Watch(ctx)
	if err != nil {
		logger.Warn("prompt watch disabled: %v", err)
		return
	}
	go func() {
		for name := range changes {
			logger.Info("prompt %q changed", name)
		}
	}()
}

// Ready reports whether the backing services can take requests.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	if a.sqlite != nil {
		if err := a.sqlite.Ping(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if a.Config.Bus.Enabled && !a.bus.Healthy() {
		errs = append(errs, errors.New("progress bus: not connected"))
	}
	if a.llm != nil && a.Config.LLM.Mode != config.ModeMock {
		if err := ai.Ping(ctx, a.llm); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases everything New opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
