package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Ensure ConnectorRegistry implements the interface.
var _ driving.ConnectorRegistry = (*ConnectorRegistry)(nil)

// DefaultRefreshSkew is how long before nominal expiry a token is treated as expired.
const DefaultRefreshSkew = 2 * time.Minute

// ConnectorRegistry holds per-user provider credentials and keeps their
// access tokens fresh. Refresh-then-persist for one (user, provider) key is
// serialized so concurrent callers trigger a single refresh exchange.
type ConnectorRegistry struct {
	store     driven.CredentialStore
	exchanger driven.TokenExchanger
	states    driven.StateCodec
	metrics   driven.Metrics
	skew      time.Duration
	now       func() time.Time
	locks     *keyedMutex
}

// RegistryOption configures a ConnectorRegistry.
type RegistryOption func(*ConnectorRegistry)

// WithRefreshSkew sets the early-expiry window.
func WithRefreshSkew(d time.Duration) RegistryOption {
	return func(r *ConnectorRegistry) {
		if d >= 0 {
			r.skew = d
		}
	}
}

// WithRegistryMetrics records refresh outcomes.
func WithRegistryMetrics(m driven.Metrics) RegistryOption {
	return func(r *ConnectorRegistry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithRegistryClock overrides the clock. Used by tests.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *ConnectorRegistry) { r.now = now }
}

// NewConnectorRegistry creates a registry.
func NewConnectorRegistry(
	store driven.CredentialStore,
	exchanger driven.TokenExchanger,
	states driven.StateCodec,
	opts ...RegistryOption,
) *ConnectorRegistry {
	r := &ConnectorRegistry{
		store:     store,
		exchanger: exchanger,
		states:    states,
		metrics:   noopMetrics{},
		skew:      DefaultRefreshSkew,
		now:       time.Now,
		locks:     newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetValidCredential returns a usable credential, refreshing it when expired.
func (r *ConnectorRegistry) GetValidCredential(
	ctx context.Context,
	userID string,
	provider domain.Provider,
) (*domain.Credential, error) {
	if !provider.RequiresAuth() {
		return nil, fmt.Errorf("%w: %s needs no credential", domain.ErrInvalidInput, provider)
	}

	cred, err := r.load(ctx, userID, provider)
	if err != nil {
		return nil, err
	}
	if !cred.IsExpired(r.now(), r.skew) {
		return cred, nil
	}

	unlock := r.locks.Lock(userID + "\x00" + string(provider))
	defer unlock()

	// Another caller may have refreshed while we waited.
	cred, err = r.load(ctx, userID, provider)
	if err != nil {
		return nil, err
	}
	if !cred.IsExpired(r.now(), r.skew) {
		return cred, nil
	}

	if !cred.HasRefreshToken() {
		logger.Info("credential for %s/%s expired without a refresh token", userID, provider)
		return nil, fmt.Errorf("%w: %s token expired", domain.ErrAuthRequired, provider)
	}

	token, err := r.exchanger.Refresh(ctx, provider, cred.RefreshToken)
	if err != nil {
		r.metrics.CredentialRefresh(ctx, provider, "failed")
		logger.Warn("refresh %s token for %s: %v", provider, userID, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}
	if token.AccessToken == "" {
		r.metrics.CredentialRefresh(ctx, provider, "failed")
		return nil, fmt.Errorf("%w: %s refresh returned no access token", domain.ErrAuthRequired, provider)
	}

	cred.ApplyToken(token, r.now())
	if err := r.store.Save(ctx, *cred); err != nil {
		r.metrics.CredentialRefresh(ctx, provider, "failed")
		return nil, fmt.Errorf("save refreshed credential: %w", err)
	}
	r.metrics.CredentialRefresh(ctx, provider, "ok")
	logger.Debug("refreshed %s credential for %s", provider, userID)
	return cred, nil
}

// load returns the stored credential or ErrAuthRequired when there is none.
func (r *ConnectorRegistry) load(ctx context.Context, userID string, provider domain.Provider) (*domain.Credential, error) {
	cred, err := r.store.Get(ctx, userID, provider)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil || !cred.IsAuthenticated() {
		return nil, fmt.Errorf("%w: %s not connected", domain.ErrAuthRequired, provider)
	}
	return cred, nil
}

// NeedsReauthorization reports whether the user has to reconnect the provider.
func (r *ConnectorRegistry) NeedsReauthorization(
	ctx context.Context,
	userID string,
	provider domain.Provider,
) (bool, error) {
	if !provider.RequiresAuth() {
		return false, nil
	}
	cred, err := r.load(ctx, userID, provider)
	if errors.Is(err, domain.ErrAuthRequired) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return cred.IsExpired(r.now(), r.skew) && !cred.HasRefreshToken(), nil
}

// AuthorizationURL returns the consent URL for a provider.
func (r *ConnectorRegistry) AuthorizationURL(
	_ context.Context,
	userID string,
	provider domain.Provider,
) (string, error) {
	if !provider.RequiresAuth() {
		return "", fmt.Errorf("%w: %s needs no authorization", domain.ErrInvalidInput, provider)
	}
	state, err := r.states.Encode(userID, provider)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return r.exchanger.AuthCodeURL(provider, state)
}

// Connect completes an authorization started by AuthorizationURL.
func (r *ConnectorRegistry) Connect(
	ctx context.Context,
	provider domain.Provider,
	code, state string,
) (*domain.Credential, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", domain.ErrInvalidInput)
	}
	userID, stateProvider, err := r.states.Decode(state)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid state: %w", domain.ErrInvalidInput, err)
	}
	if stateProvider != provider {
		return nil, fmt.Errorf("%w: state issued for %s, callback for %s", domain.ErrInvalidInput, stateProvider, provider)
	}

	token, err := r.exchanger.Exchange(ctx, provider, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	unlock := r.locks.Lock(userID + "\x00" + string(provider))
	defer unlock()

	now := r.now()
	cred, err := r.store.Get(ctx, userID, provider)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		cred = &domain.Credential{
			ID:        uuid.New().String(),
			UserID:    userID,
			Provider:  provider,
			TokenType: "Bearer",
			CreatedAt: now,
		}
	}
	cred.ApplyToken(token, now)
	if err := r.store.Save(ctx, *cred); err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}
	logger.Info("connected %s for %s", provider, userID)
	return cred, nil
}

// Disconnect removes the user's credential for a provider.
func (r *ConnectorRegistry) Disconnect(ctx context.Context, userID string, provider domain.Provider) error {
	unlock := r.locks.Lock(userID + "\x00" + string(provider))
	defer unlock()
	if err := r.store.Delete(ctx, userID, provider); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Status reports the connection state of every provider.
func (r *ConnectorRegistry) Status(ctx context.Context, userID string) ([]domain.ConnectionStatus, error) {
	creds, err := r.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	byProvider := make(map[domain.Provider]domain.Credential, len(creds))
	for _, c := range creds {
		byProvider[c.Provider] = c
	}

	now := r.now()
	statuses := make([]domain.ConnectionStatus, 0, len(domain.AllProviders()))
	for _, p := range domain.AllProviders() {
		st := domain.ConnectionStatus{Provider: p}
		cred, ok := byProvider[p]
		switch {
		case !p.RequiresAuth():
			st.State = domain.ConnectionNotRequired
		case !ok || !cred.IsAuthenticated():
			st.State = domain.ConnectionDisconnected
		case cred.IsExpired(now, r.skew) && !cred.HasRefreshToken():
			st.State = domain.ConnectionNeedsReauth
			st.ExpiresAt = cred.ExpiresAt
		default:
			st.State = domain.ConnectionConnected
			st.ExpiresAt = cred.ExpiresAt
			st.Scopes = cred.Scopes
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// keyedMutex hands out one mutex per key and forgets it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock locks key and returns the matching unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// noopMetrics discards measurements.
type noopMetrics struct{}

func (noopMetrics) PipelineRun(context.Context, string)                              {}
func (noopMetrics) StageDuration(context.Context, domain.Stage, time.Duration)       {}
func (noopMetrics) SourceFetch(context.Context, domain.Provider, domain.FetchStatus) {}
func (noopMetrics) CredentialRefresh(context.Context, domain.Provider, string)       {}
