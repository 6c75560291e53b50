// Package ai provides factory functions for creating generative adapters
// (text and speech) from configuration.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/briefcast/internal/adapters/driven/llm/anthropic"
	mockllm "github.com/custodia-labs/briefcast/internal/adapters/driven/llm/mock"
	ollamallm "github.com/custodia-labs/briefcast/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/briefcast/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/briefcast/internal/adapters/driven/speech/elevenlabs"
	mockspeech "github.com/custodia-labs/briefcast/internal/adapters/driven/speech/mock"
	"github.com/custodia-labs/briefcast/internal/config"
	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateLLMService creates the LLM service selected by cfg.Mode.
func CreateLLMService(cfg config.LLMConfig) (driven.LLMService, error) {
	timeout := config.Millis(cfg.TimeoutMS)

	switch cfg.Mode {
	case config.ModeMock, "":
		return mockllm.NewLLMService(), nil

	case config.ModeOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		}), nil

	case config.ModeOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		})

	case config.ModeAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Mode)
	}
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(ctx context.Context, cfg config.LLMConfig) (driven.LLMService, error) {
	svc, err := CreateLLMService(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	if err := Ping(ctx, svc); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// Ping checks that svc answers within pingTimeout.
func Ping(ctx context.Context, svc driven.LLMService) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrLLMUnavailable, svc.ModelName(), err)
	}
	return nil
}

// CreateSpeechSynthesizer creates the speech provider selected by cfg.Mode.
func CreateSpeechSynthesizer(cfg config.SpeechConfig) (driven.SpeechSynthesizer, error) {
	switch cfg.Mode {
	case config.ModeMock, "":
		return mockspeech.NewSynthesizer(mockspeech.DefaultSampleRate), nil

	case config.ModeElevenLabs:
		return elevenlabs.NewSynthesizer(elevenlabs.Config{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			ModelID:      cfg.ModelID,
			OutputFormat: cfg.OutputFormat,
			Timeout:      config.Millis(cfg.TimeoutMS),
		})

	default:
		return nil, fmt.Errorf("unsupported speech provider: %s", cfg.Mode)
	}
}
