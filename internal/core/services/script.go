package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// ScriptConfig configures script synthesis.
type ScriptConfig struct {
	// Concurrency is the number of topic calls in flight.
	Concurrency int
	// Delay spaces topic calls apart.
	Delay time.Duration
	// Timeout bounds each topic call.
	Timeout time.Duration
	// MaxTokens bounds each topic response.
	MaxTokens int
}

// DefaultScriptConfig returns the default script synthesis settings.
func DefaultScriptConfig() ScriptConfig {
	return ScriptConfig{
		Concurrency: 2,
		Timeout:     3 * time.Minute,
		MaxTokens:   1200,
	}
}

// ScriptInput is everything a script is written from.
type ScriptInput struct {
	Content     domain.AggregatedContent
	Interests   domain.InterestProfile
	TrendTopics []string
	Language    string
	// DateLabel names the day the briefing is for.
	DateLabel string
}

// ScriptResult is a synthesized document and the topics that were dropped.
type ScriptResult struct {
	Document     domain.ScriptDocument
	FailedTopics []string
}

// ScriptSynthesizer writes a narration script with one generative call per
// topic. A failing topic is dropped; the stage only fails when every content
// topic fails or there was nothing to write about.
type ScriptSynthesizer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	cfg     ScriptConfig
}

// NewScriptSynthesizer creates a script synthesizer. prompts may be nil.
func NewScriptSynthesizer(llm driven.LLMService, prompts driven.PromptStore, cfg ScriptConfig) *ScriptSynthesizer {
	def := DefaultScriptConfig()
	if cfg.Concurrency < 1 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return &ScriptSynthesizer{llm: llm, prompts: prompts, cfg: cfg}
}

// topic is one generative call.
type topic struct {
	label  string
	title  string
	prompt string
	data   map[string]any
}

// topicOutput is the JSON shape requested from the model.
type topicOutput struct {
	Title string        `json:"title"`
	Lines []domain.Line `json:"lines"`
}

// Synthesize writes a new ScriptDocument.
func (s *ScriptSynthesizer) Synthesize(ctx context.Context, in ScriptInput) (ScriptResult, error) {
	if in.Language == "" {
		in.Language = "en"
	}
	topics := s.contentTopics(in)
	if len(topics) == 0 {
		return ScriptResult{}, fmt.Errorf("%w: aggregated content is empty", domain.ErrNoContent)
	}
	if s.llm == nil {
		return ScriptResult{}, fmt.Errorf("%w: %w", domain.ErrNoContent, domain.ErrLLMUnavailable)
	}

	sections, failed, errs := s.run(ctx, topics)
	var body []domain.Section
	var titles []string
	for _, sec := range sections {
		if sec != nil {
			body = append(body, *sec)
			titles = append(titles, sec.Title)
		}
	}
	if len(body) == 0 {
		return ScriptResult{FailedTopics: failed}, fmt.Errorf("%w: all %d topics failed: %w",
			domain.ErrNoContent, len(topics), errors.Join(errs...))
	}

	frame := []topic{
		{label: "opening", title: "Opening", prompt: driven.PromptScriptOpening,
			data: map[string]any{"Language": in.Language, "Date": in.DateLabel, "Topics": titles}},
		{label: "closing", title: "Closing", prompt: driven.PromptScriptClosing,
			data: map[string]any{"Language": in.Language, "Topics": titles}},
	}
	framing, frameFailed, _ := s.run(ctx, frame)
	failed = append(failed, frameFailed...)

	doc := domain.ScriptDocument{Title: "Your briefing"}
	if in.DateLabel != "" {
		doc.Title = "Your briefing for " + in.DateLabel
	}
	if framing[0] != nil {
		doc.Sections = append(doc.Sections, *framing[0])
	}
	doc.Sections = append(doc.Sections, body...)
	if framing[1] != nil {
		doc.Sections = append(doc.Sections, *framing[1])
	}
	logger.Info("script synthesized: %d sections, %d topics failed", len(doc.Sections), len(failed))
	return ScriptResult{Document: doc, FailedTopics: failed}, nil
}

// run executes topic calls through the pacer. Results keep topic order.
func (s *ScriptSynthesizer) run(ctx context.Context, topics []topic) ([]*domain.Section, []string, []error) {
	sections := make([]*domain.Section, len(topics))
	errs := make([]error, len(topics))
	pacer := NewPacer(s.cfg.Delay, s.cfg.Concurrency)
	pacer.Each(ctx, len(topics), func(ctx context.Context, i int) {
		sec, err := s.generate(ctx, topics[i])
		if err != nil {
			errs[i] = fmt.Errorf("topic %s: %w", topics[i].label, err)
			return
		}
		sections[i] = sec
	})

	var failed []string
	var failures []error
	for i, sec := range sections {
		if sec != nil {
			continue
		}
		failed = append(failed, topics[i].label)
		err := errs[i]
		if err == nil {
			err = fmt.Errorf("topic %s: not started", topics[i].label)
		}
		failures = append(failures, err)
		logger.Warn("script %v", err)
	}
	return sections, failed, failures
}

func (s *ScriptSynthesizer) generate(ctx context.Context, t topic) (*domain.Section, error) {
	prompt, err := renderPrompt(s.prompts, t.prompt, t.data)
	if err != nil {
		return nil, err
	}
	cctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	raw, err := s.llm.Generate(cctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: 0.7,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSynthesisFailure, err)
	}

	sec := &domain.Section{Label: t.label, Title: t.title}
	out, ok := DecodeBestEffort(raw, topicOutput{})
	if ok {
		sec.Text = domain.FormatLines(out.Lines)
		if out.Title != "" {
			sec.Title = out.Title
		}
	}
	// Output that decodes to no lines is kept verbatim.
	if sec.Text == "" {
		sec.Text = strings.TrimSpace(raw)
	}
	if sec.Text == "" {
		return nil, fmt.Errorf("%w: empty output", domain.ErrSynthesisFailure)
	}
	return sec, nil
}

// contentTopics builds one topic per provider with content, in narration
// order, then one per ad-hoc trend keyword.
func (s *ScriptSynthesizer) contentTopics(in ScriptInput) []topic {
	var topics []topic
	for _, p := range domain.AllProviders() {
		items := in.Content.Items(p)
		if len(items) == 0 {
			continue
		}
		topics = append(topics, topic{
			label:  string(p),
			title:  topicTitle(p),
			prompt: driven.PromptScriptTopic,
			data: map[string]any{
				"Language":  in.Language,
				"Label":     string(p),
				"Kind":      string(p.Kind()),
				"Items":     items,
				"Interests": in.Interests.Keywords,
			},
		})
	}
	seen := make(map[string]bool)
	for _, kw := range in.TrendTopics {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" || seen[key] {
			continue
		}
		seen[key] = true
		topics = append(topics, topic{
			label:  "trend:" + kw,
			title:  kw,
			prompt: driven.PromptTrendTopic,
			data: map[string]any{
				"Language":  in.Language,
				"Topic":     kw,
				"Interests": in.Interests.Keywords,
			},
		})
	}
	return topics
}

func topicTitle(p domain.Provider) string {
	switch p {
	case domain.ProviderGmail:
		return "Your inbox"
	case domain.ProviderCalendar:
		return "Your schedule"
	case domain.ProviderDrive:
		return "Your documents"
	case domain.ProviderNotion:
		return "Your notes"
	case domain.ProviderYouTube:
		return "From your videos"
	case domain.ProviderGitHub:
		return "Your code"
	default:
		return "Trending today"
	}
}
