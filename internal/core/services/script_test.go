package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

func contentFor(providers ...domain.Provider) domain.AggregatedContent {
	agg := domain.AggregatedContent{}
	for _, p := range providers {
		agg[p] = domain.SourceFetchResult{Provider: p, Status: domain.FetchOK, Items: items(p, 2)}
	}
	return agg
}

// TestScriptSynthesizer_SectionsInNarrationOrder tests framing and topic order
func TestScriptSynthesizer_SectionsInNarrationOrder(t *testing.T) {
	llm := &stubLLM{respond: func(string) (string, error) { return topicJSON, nil }}
	s := NewScriptSynthesizer(llm, nil, ScriptConfig{})

	res, err := s.Synthesize(context.Background(), ScriptInput{
		Content:     contentFor(domain.ProviderYouTube, domain.ProviderGmail),
		TrendTopics: []string{"golang", "Golang", " "},
		DateLabel:   "2025-06-01",
	})

	require.NoError(t, err)
	labels := make([]string, len(res.Document.Sections))
	for i, sec := range res.Document.Sections {
		labels[i] = sec.Label
	}
	assert.Equal(t, []string{"opening", "gmail", "youtube", "trend:golang", "closing"}, labels)
	assert.Equal(t, "Host: Hello there.\nGuest: Hi.", res.Document.Sections[1].Text)
	assert.Equal(t, "Your briefing for 2025-06-01", res.Document.Title)
	assert.Empty(t, res.FailedTopics)
	assert.Equal(t, 5, llm.calls())
}

// TestScriptSynthesizer_PartialFailure tests that failing topics are dropped
func TestScriptSynthesizer_PartialFailure(t *testing.T) {
	llm := &stubLLM{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Segment: gmail") || strings.Contains(prompt, "opening") {
			return "", errors.New("rate limited")
		}
		return topicJSON, nil
	}}
	s := NewScriptSynthesizer(llm, nil, ScriptConfig{Concurrency: 1})

	res, err := s.Synthesize(context.Background(), ScriptInput{Content: contentFor(domain.ProviderGmail, domain.ProviderCalendar)})

	require.NoError(t, err)
	require.Len(t, res.Document.Sections, 2)
	assert.Equal(t, "calendar", res.Document.Sections[0].Label)
	assert.Equal(t, "closing", res.Document.Sections[1].Label)
	assert.ElementsMatch(t, []string{"gmail", "opening"}, res.FailedTopics)
}

// TestScriptSynthesizer_AllTopicsFail tests the no-content failure
func TestScriptSynthesizer_AllTopicsFail(t *testing.T) {
	llm := &stubLLM{respond: func(string) (string, error) { return "", errors.New("down") }}
	s := NewScriptSynthesizer(llm, nil, ScriptConfig{})

	_, err := s.Synthesize(context.Background(), ScriptInput{Content: contentFor(domain.ProviderGmail)})

	assert.True(t, errors.Is(err, domain.ErrNoContent))
	assert.Equal(t, 1, llm.calls())
}

// TestScriptSynthesizer_NothingToWrite tests empty input and a missing model
func TestScriptSynthesizer_NothingToWrite(t *testing.T) {
	llm := &stubLLM{respond: func(string) (string, error) { return topicJSON, nil }}

	_, err := NewScriptSynthesizer(llm, nil, ScriptConfig{}).Synthesize(context.Background(), ScriptInput{})
	assert.True(t, errors.Is(err, domain.ErrNoContent))
	assert.Equal(t, 0, llm.calls())

	_, err = NewScriptSynthesizer(nil, nil, ScriptConfig{}).Synthesize(context.Background(), ScriptInput{TrendTopics: []string{"go"}})
	assert.True(t, errors.Is(err, domain.ErrNoContent))
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
}

// TestScriptSynthesizer_PlainTextOutput tests that undecodable text is kept verbatim
func TestScriptSynthesizer_PlainTextOutput(t *testing.T) {
	llm := &stubLLM{respond: func(string) (string, error) { return "  Host: Plain narration.  ", nil }}
	s := NewScriptSynthesizer(llm, nil, ScriptConfig{})

	res, err := s.Synthesize(context.Background(), ScriptInput{TrendTopics: []string{"rust"}})

	require.NoError(t, err)
	assert.Equal(t, "Host: Plain narration.", res.Document.Sections[1].Text)
	assert.Equal(t, "rust", res.Document.Sections[1].Title)
}

// TestScriptSynthesizer_UnexpectedJSONShape tests that well-formed JSON without
// lines is kept verbatim instead of failing the topic
func TestScriptSynthesizer_UnexpectedJSONShape(t *testing.T) {
	llm := &stubLLM{respond: func(string) (string, error) { return `{"text":"Host: Rust 2.0 is out."}`, nil }}
	s := NewScriptSynthesizer(llm, nil, ScriptConfig{})

	res, err := s.Synthesize(context.Background(), ScriptInput{TrendTopics: []string{"rust"}})

	require.NoError(t, err)
	assert.Empty(t, res.FailedTopics)
	assert.Equal(t, `{"text":"Host: Rust 2.0 is out."}`, res.Document.Sections[1].Text)
}
