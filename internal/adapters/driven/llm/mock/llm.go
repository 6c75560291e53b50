// Package mock provides a canned LLM service for development without a
// model provider.
package mock

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Keywords is the canned interest profile.
var Keywords = []string{
	"technology", "software", "science", "music", "travel",
	"cooking", "fitness", "economy", "startups", "design",
}

// LLMService answers JSON requests with a two-speaker section and plain
// requests with a keyword list.
type LLMService struct {
	latency time.Duration
}

// NewLLMService creates a mock service.
func NewLLMService() *LLMService {
	return &LLMService{latency: 20 * time.Millisecond}
}

type line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type section struct {
	Title string `json:"title"`
	Lines []line `json:"lines"`
}

// Generate returns canned output.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(s.latency):
	}

	if !opts.JSON {
		out, err := json.Marshal(Keywords)
		return string(out), err
	}

	topic := firstLine(prompt)
	out, err := json.Marshal(section{
		Title: topic,
		Lines: []line{
			{Speaker: "Host", Text: "Here is a quick look at " + topic + "."},
			{Speaker: "Guest", Text: "Thanks. That is all for this part."},
		},
	})
	return string(out), err
}

// Chat answers with the last user message treated as a prompt.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var prompt string
	for _, m := range messages {
		if m.Role == "user" {
			prompt = m.Content
		}
	}
	return s.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: opts.MaxTokens, JSON: opts.JSON})
}

func firstLine(s string) string {
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			if len(l) > 80 {
				l = l[:80]
			}
			return l
		}
	}
	return "today"
}

// ModelName returns "mock".
func (s *LLMService) ModelName() string {
	return "mock"
}

// Ping always succeeds.
func (s *LLMService) Ping(context.Context) error {
	return nil
}

// Close releases nothing.
func (s *LLMService) Close() error {
	return nil
}
