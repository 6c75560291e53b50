package mock

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// TestLLMService_Generate tests both canned shapes
func TestLLMService_Generate(t *testing.T) {
	svc := NewLLMService()

	raw, err := svc.Generate(context.Background(), "\n  Mail summary\nmore", driven.GenerateOptions{JSON: true})
	require.NoError(t, err)
	var sec section
	require.NoError(t, json.Unmarshal([]byte(raw), &sec))
	assert.Equal(t, "Mail summary", sec.Title)
	require.Len(t, sec.Lines, 2)
	assert.Equal(t, "Guest", sec.Lines[1].Speaker)

	raw, err = svc.Generate(context.Background(), "interests", driven.GenerateOptions{})
	require.NoError(t, err)
	var kw []string
	require.NoError(t, json.Unmarshal([]byte(raw), &kw))
	assert.Equal(t, Keywords, kw)
}

// TestLLMService_Cancelled tests context cancellation
func TestLLMService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLLMService().Generate(ctx, "x", driven.GenerateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
