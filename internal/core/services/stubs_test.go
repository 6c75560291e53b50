package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// --- Stub implementations shared by the pipeline tests ---

// stubExchanger implements driven.TokenExchanger.
type stubExchanger struct {
	token        *domain.OAuthToken
	refreshErr   error
	exchangeErr  error
	delay        time.Duration
	refreshCalls atomic.Int32
}

func (s *stubExchanger) AuthCodeURL(provider domain.Provider, state string) (string, error) {
	return "https://auth.example/" + string(provider) + "?state=" + state, nil
}

func (s *stubExchanger) Exchange(_ context.Context, _ domain.Provider, code string) (*domain.OAuthToken, error) {
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	t := *s.token
	t.AccessToken = t.AccessToken + "-" + code
	return &t, nil
}

func (s *stubExchanger) Refresh(_ context.Context, _ domain.Provider, _ string) (*domain.OAuthToken, error) {
	s.refreshCalls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	t := *s.token
	return &t, nil
}

// stubStates implements driven.StateCodec with a plain "user|provider" encoding.
type stubStates struct{}

func (stubStates) Encode(userID string, provider domain.Provider) (string, error) {
	return userID + "|" + string(provider), nil
}

func (stubStates) Decode(state string) (string, domain.Provider, error) {
	user, p, ok := strings.Cut(state, "|")
	if !ok {
		return "", "", errors.New("malformed state")
	}
	return user, domain.Provider(p), nil
}

// stubRegistry implements driving.ConnectorRegistry with fixed answers per provider.
type stubRegistry struct {
	errs map[domain.Provider]error
}

func (r *stubRegistry) GetValidCredential(_ context.Context, userID string, p domain.Provider) (*domain.Credential, error) {
	if err := r.errs[p]; err != nil {
		return nil, err
	}
	return &domain.Credential{UserID: userID, Provider: p, AccessToken: "token"}, nil
}

func (r *stubRegistry) NeedsReauthorization(context.Context, string, domain.Provider) (bool, error) {
	return false, nil
}

func (r *stubRegistry) AuthorizationURL(context.Context, string, domain.Provider) (string, error) {
	return "", nil
}

func (r *stubRegistry) Connect(context.Context, domain.Provider, string, string) (*domain.Credential, error) {
	return nil, nil
}

func (r *stubRegistry) Disconnect(context.Context, string, domain.Provider) error { return nil }

func (r *stubRegistry) Status(context.Context, string) ([]domain.ConnectionStatus, error) {
	return nil, nil
}

// stubFetcher implements driven.SourceFetcher.
type stubFetcher struct {
	provider domain.Provider
	items    []domain.ContentItem
	err      error
	block    bool
	panics   bool
	calls    atomic.Int32
	lastReq  driven.FetchRequest
	mu       sync.Mutex
}

func (f *stubFetcher) Provider() domain.Provider { return f.provider }

func (f *stubFetcher) Fetch(ctx context.Context, req driven.FetchRequest) ([]domain.ContentItem, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	if f.panics {
		panic("fetcher exploded")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.items, f.err
}

func items(p domain.Provider, n int) []domain.ContentItem {
	out := make([]domain.ContentItem, n)
	for i := range out {
		out[i] = domain.ContentItem{SourceID: string(p) + "-" + string(rune('a'+i)), Title: "item", Body: "body"}
	}
	return out
}

// stubLLM implements driven.LLMService with a function per call.
type stubLLM struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	prompts []string
}

func (l *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()
	return l.respond(prompt)
}

func (l *stubLLM) Chat(ctx context.Context, msgs []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return l.Generate(ctx, msgs[len(msgs)-1].Content, driven.GenerateOptions{})
}

func (l *stubLLM) ModelName() string          { return "stub" }
func (l *stubLLM) Ping(context.Context) error { return nil }
func (l *stubLLM) Close() error               { return nil }

func (l *stubLLM) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

const topicJSON = `{"title": "Segment", "lines": [{"speaker": "Host", "text": "Hello there."}, {"speaker": "Guest", "text": "Hi."}]}`

// stubCaptions implements driven.CaptionExtractor.
type stubCaptions struct {
	name  string
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (c *stubCaptions) Name() string { return c.name }

func (c *stubCaptions) Extract(_ context.Context, id, _ string) (domain.ContentItem, error) {
	c.calls = append(c.calls, id)
	if err := c.errs[id]; err != nil {
		return domain.ContentItem{}, err
	}
	return domain.ContentItem{SourceID: id, Title: "video " + id, Body: c.texts[id]}, nil
}

// stubSpeech implements driven.SpeechSynthesizer.
type stubSpeech struct {
	audio []byte
	mime  string
	err   error
	calls atomic.Int32
}

func (s *stubSpeech) Name() string { return "stub-speech" }

func (s *stubSpeech) Synthesize(context.Context, driven.SpeechRequest) (*driven.SpeechResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &driven.SpeechResult{Audio: s.audio, MimeType: s.mime}, nil
}

// stubObjectStore implements driven.ObjectStore, failing the first failFirst puts.
type stubObjectStore struct {
	mu        sync.Mutex
	failFirst int
	puts      int
	keys      []string
}

func (o *stubObjectStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.puts++
	if o.puts <= o.failFirst {
		return "", errors.New("bucket unavailable")
	}
	o.keys = append(o.keys, key)
	return "https://cdn.example/" + key, nil
}

// recordingSink implements driven.ProgressSink.
type recordingSink struct {
	mu       sync.Mutex
	events   []domain.ProgressEvent
	failAt   domain.Stage
	closed   int
	sendErrs int
}

func (s *recordingSink) Send(_ context.Context, e domain.ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt != "" && e.Stage == s.failAt {
		s.sendErrs++
		return errors.New("client disconnected")
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *recordingSink) stages() []domain.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Stage, len(s.events))
	for i, e := range s.events {
		out[i] = e.Stage
	}
	return out
}

func (s *recordingSink) last() domain.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

// recordingObserver implements driven.ProgressObserver.
type recordingObserver struct {
	mu     sync.Mutex
	stages []domain.Stage
}

func (o *recordingObserver) Publish(_ context.Context, e domain.ProgressEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, e.Stage)
	return nil
}
