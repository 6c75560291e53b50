package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Ensure InterestService implements the interface.
var _ driving.InterestService = (*InterestService)(nil)

// InterestService reduces viewing signals to a ranked keyword profile and
// caches it per user until invalidated.
type InterestService struct {
	llm      driven.LLMService
	store    driven.InterestStore
	prompts  driven.PromptStore
	registry driving.ConnectorRegistry
	source   driven.InterestSignalSource
	settings driven.UserSettingsStore

	timeout     time.Duration
	signalLimit int
	now         func() time.Time
}

// InterestConfig configures an InterestService.
type InterestConfig struct {
	// Timeout bounds the generative call.
	Timeout time.Duration
	// SignalLimit bounds the signals fetched from the source.
	SignalLimit int
}

// NewInterestService creates an interest service. source, registry and
// prompts may be nil.
func NewInterestService(
	llm driven.LLMService,
	store driven.InterestStore,
	prompts driven.PromptStore,
	registry driving.ConnectorRegistry,
	source driven.InterestSignalSource,
	settings driven.UserSettingsStore,
	cfg InterestConfig,
) *InterestService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.SignalLimit <= 0 {
		cfg.SignalLimit = 50
	}
	return &InterestService{
		llm:         llm,
		store:       store,
		prompts:     prompts,
		registry:    registry,
		source:      source,
		settings:    settings,
		timeout:     cfg.Timeout,
		signalLimit: cfg.SignalLimit,
		now:         time.Now,
	}
}

// Synthesize runs one generative call over signals. It never returns an
// error: the profile status tells generated, empty and failed apart.
func (s *InterestService) Synthesize(ctx context.Context, signals []string, language string) domain.InterestProfile {
	profile := domain.InterestProfile{Status: domain.InterestEmpty, GeneratedAt: s.now()}
	if len(signals) == 0 {
		return profile
	}
	if s.llm == nil {
		logger.Warn("interest synthesis skipped: %v", domain.ErrLLMUnavailable)
		profile.Status = domain.InterestFailed
		return profile
	}
	if language == "" {
		language = "en"
	}

	prompt, err := renderPrompt(s.prompts, driven.PromptInterests, map[string]any{
		"Language": language,
		"Min":      domain.MinInterestKeywords,
		"Max":      domain.MaxInterestKeywords,
		"Signals":  signals,
	})
	if err != nil {
		logger.Warn("interest prompt: %v", err)
		profile.Status = domain.InterestFailed
		return profile
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.llm.Generate(cctx, prompt, driven.GenerateOptions{MaxTokens: 400, Temperature: 0.3})
	if err != nil {
		logger.Warn("interest synthesis: %v", err)
		profile.Status = domain.InterestFailed
		return profile
	}

	keywords, _ := DecodeBestEffort[[]string](raw, nil)
	profile.Keywords = domain.NormalizeKeywords(keywords)
	if len(profile.Keywords) > 0 {
		profile.Status = domain.InterestGenerated
	}
	if n := len(profile.Keywords); n > 0 && n < domain.MinInterestKeywords {
		logger.Debug("interest synthesis returned only %d keywords", n)
	}
	return profile
}

// Profile returns the cached profile, synthesizing and caching one from the
// signal source when none is cached.
func (s *InterestService) Profile(ctx context.Context, userID string) (domain.InterestProfile, error) {
	if cached, ok := s.cached(ctx, userID); ok {
		return cached, nil
	}
	signals := s.fetchSignals(ctx, userID)
	return s.synthesizeAndCache(ctx, userID, signals), nil
}

// ProfileFromContent returns the cached profile or synthesizes one, taking
// signals from already aggregated video items before asking the source.
func (s *InterestService) ProfileFromContent(
	ctx context.Context,
	userID string,
	content domain.AggregatedContent,
) domain.InterestProfile {
	if cached, ok := s.cached(ctx, userID); ok {
		return cached
	}
	var signals []string
	for _, it := range content.Items(domain.ProviderYouTube) {
		if it.Title != "" {
			signals = append(signals, it.Title)
		}
	}
	if len(signals) == 0 {
		signals = s.fetchSignals(ctx, userID)
	}
	return s.synthesizeAndCache(ctx, userID, signals)
}

// Refresh invalidates the cache and synthesizes a new profile.
func (s *InterestService) Refresh(ctx context.Context, userID string) (domain.InterestProfile, error) {
	if err := s.Invalidate(ctx, userID); err != nil {
		return domain.InterestProfile{}, err
	}
	return s.Profile(ctx, userID)
}

// Invalidate drops the cached profile.
func (s *InterestService) Invalidate(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("invalidate interests: %w", err)
	}
	return nil
}

func (s *InterestService) cached(ctx context.Context, userID string) (domain.InterestProfile, bool) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("load cached interests for %s: %v", userID, err)
		}
		return domain.InterestProfile{}, false
	}
	return *p, true
}

func (s *InterestService) synthesizeAndCache(ctx context.Context, userID string, signals []string) domain.InterestProfile {
	profile := s.Synthesize(ctx, signals, s.language(ctx, userID))
	profile.UserID = userID
	// Without signals there is nothing to remember; a later run may have them.
	if profile.Cacheable() && len(signals) > 0 {
		if err := s.store.Save(ctx, profile); err != nil {
			logger.Warn("cache interests for %s: %v", userID, err)
		}
	}
	logger.Info("interest profile for %s: %s (%d keywords)", userID, profile.Status, len(profile.Keywords))
	return profile
}

// fetchSignals asks the signal source directly. Missing credentials or
// source errors degrade to no signals.
func (s *InterestService) fetchSignals(ctx context.Context, userID string) []string {
	if s.source == nil || s.registry == nil {
		return nil
	}
	cred, err := s.registry.GetValidCredential(ctx, userID, domain.ProviderYouTube)
	if err != nil {
		logger.Debug("interest signals for %s: %v", userID, err)
		return nil
	}
	signals, err := s.source.InterestSignals(ctx, cred, s.signalLimit)
	if err != nil {
		logger.Warn("interest signals for %s: %v", userID, err)
		return nil
	}
	return signals
}

func (s *InterestService) language(ctx context.Context, userID string) string {
	if s.settings == nil {
		return "en"
	}
	st, err := s.settings.Get(ctx, userID)
	if err != nil || st.Language == "" {
		return "en"
	}
	return st.Language
}
