package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// TestLLMService_Generate tests the generate endpoint with JSON format
func TestLLMService_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json", req.Format)
		assert.Equal(t, "sys", req.System)
		assert.False(t, req.Stream)
		assert.Nil(t, req.Options)
		_, _ = w.Write([]byte(`{"response":"{}","done":true}`))
	}))
	defer srv.Close()

	svc := NewLLMService(LLMConfig{BaseURL: srv.URL, HTTPClient: srv.Client()})
	out, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{System: "sys", JSON: true})

	require.NoError(t, err)
	assert.Equal(t, "{}", out)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
}

// TestLLMService_Chat tests the chat endpoint and error status
func TestLLMService_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"hello"},"done":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	svc := NewLLMService(LLMConfig{BaseURL: srv.URL, HTTPClient: srv.Client()})
	out, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{MaxTokens: 5})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	assert.Error(t, svc.Ping(context.Background()))
}
