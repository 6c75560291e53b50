// Package elevenlabs renders speaker turns with the ElevenLabs
// text-to-dialogue endpoint.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.SpeechSynthesizer = (*Synthesizer)(nil)

// Default configuration values.
const (
	DefaultBaseURL      = "https://api.elevenlabs.io"
	DefaultModelID      = "eleven_v3"
	DefaultOutputFormat = "mp3_44100_128"
	DefaultTimeout      = 5 * time.Minute
	// DefaultMaxChars bounds the text sent in one request. Longer scripts are
	// split on turn boundaries and the MP3 parts joined.
	DefaultMaxChars = 3000
)

// DefaultVoices maps the narration speakers to premade voices.
var DefaultVoices = map[string]string{
	domain.SpeakerHost:  "JBFqnCBsd6RMkjVDRZzb",
	domain.SpeakerGuest: "21m00Tcm4TlvDq8ikWAM",
}

// Config holds ElevenLabs settings.
type Config struct {
	APIKey       string
	BaseURL      string
	ModelID      string
	OutputFormat string
	MaxChars     int
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Synthesizer calls the text-to-dialogue endpoint.
type Synthesizer struct {
	cfg    Config
	client *http.Client
}

// NewSynthesizer creates a synthesizer. The API key is required.
func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("elevenlabs: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Synthesizer{cfg: cfg, client: client}, nil
}

// Name identifies the provider.
func (s *Synthesizer) Name() string {
	return "elevenlabs"
}

type dialogueInput struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

type dialogueRequest struct {
	Inputs       []dialogueInput `json:"inputs"`
	ModelID      string          `json:"model_id"`
	LanguageCode string          `json:"language_code,omitempty"`
}

// Synthesize renders the turns. The returned MIME type is the one the API declared.
func (s *Synthesizer) Synthesize(ctx context.Context, req driven.SpeechRequest) (*driven.SpeechResult, error) {
	inputs, err := s.inputs(req)
	if err != nil {
		return nil, err
	}

	batches := [][]dialogueInput{inputs}
	if strings.HasPrefix(s.cfg.OutputFormat, "mp3") {
		batches = split(inputs, s.cfg.MaxChars)
	}

	var (
		audio    bytes.Buffer
		mimeType string
	)
	for i, batch := range batches {
		data, ct, err := s.call(ctx, dialogueRequest{
			Inputs:       batch,
			ModelID:      s.cfg.ModelID,
			LanguageCode: req.Language,
		})
		if err != nil {
			return nil, fmt.Errorf("part %d/%d: %w", i+1, len(batches), err)
		}
		if mimeType == "" {
			mimeType = ct
		}
		audio.Write(data)
	}
	logger.Debug("elevenlabs: %d turns in %d requests, %d bytes", len(inputs), len(batches), audio.Len())
	return &driven.SpeechResult{Audio: audio.Bytes(), MimeType: mimeType}, nil
}

func (s *Synthesizer) inputs(req driven.SpeechRequest) ([]dialogueInput, error) {
	inputs := make([]dialogueInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		voice := req.Voices[l.Speaker]
		if voice == "" {
			voice = DefaultVoices[l.Speaker]
		}
		if voice == "" {
			return nil, fmt.Errorf("elevenlabs: no voice for speaker %q", l.Speaker)
		}
		inputs = append(inputs, dialogueInput{Text: text, VoiceID: voice})
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("elevenlabs: nothing to say")
	}
	return inputs, nil
}

// split groups turns so each group stays under maxChars. A single turn
// longer than maxChars gets a group of its own.
func split(inputs []dialogueInput, maxChars int) [][]dialogueInput {
	var (
		batches [][]dialogueInput
		cur     []dialogueInput
		size    int
	)
	for _, in := range inputs {
		if len(cur) > 0 && size+len(in.Text) > maxChars {
			batches = append(batches, cur)
			cur, size = nil, 0
		}
		cur = append(cur, in)
		size += len(in.Text)
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

func (s *Synthesizer) call(ctx context.Context, body dialogueRequest) ([]byte, string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := s.cfg.BaseURL + "/v1/text-to-dialogue?" + url.Values{"output_format": {s.cfg.OutputFormat}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("elevenlabs error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
