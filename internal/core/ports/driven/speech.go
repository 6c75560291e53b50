package driven

import (
	"context"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// SpeechSynthesizer turns speaker turns into audio.
type SpeechSynthesizer interface {
	// Name identifies the provider.
	Name() string

	// Synthesize renders the turns with one voice per speaker.
	Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResult, error)
}

// SpeechRequest is the input to a synthesis call.
type SpeechRequest struct {
	Lines []domain.Line
	// Voices maps a speaker name to a provider voice id.
	Voices   map[string]string
	Language string
}

// SpeechResult is raw audio and its declared content type. The content type
// is whatever the provider returned and is not assumed to be fixed.
type SpeechResult struct {
	Audio    []byte
	MimeType string
}

// ObjectStore stores binary objects and returns a public URL for them.
type ObjectStore interface {
	// Put stores data under key and returns its URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
