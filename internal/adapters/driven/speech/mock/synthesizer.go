// Package mock renders silent WAV audio sized to the script, for development
// without a speech provider.
package mock

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.SpeechSynthesizer = (*Synthesizer)(nil)

// DefaultSampleRate is the mock output rate.
const DefaultSampleRate = 8000

// maxSeconds caps the silent output.
const maxSeconds = 30

// Synthesizer produces mono 16-bit PCM silence.
type Synthesizer struct {
	sampleRate int
}

// NewSynthesizer creates a mock synthesizer.
func NewSynthesizer(sampleRate int) *Synthesizer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Synthesizer{sampleRate: sampleRate}
}

// Name identifies the provider.
func (s *Synthesizer) Name() string {
	return "mock"
}

// Synthesize returns one second of silence per estimated minute of speech,
// between one and maxSeconds seconds.
func (s *Synthesizer) Synthesize(ctx context.Context, req driven.SpeechRequest) (*driven.SpeechResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(50 * time.Millisecond):
	}

	words := 0
	for _, l := range req.Lines {
		words += len(strings.Fields(l.Text))
	}
	secs := domain.EstimateDurationSeconds(words) / 60
	if secs < 1 {
		secs = 1
	}
	if secs > maxSeconds {
		secs = maxSeconds
	}
	return &driven.SpeechResult{Audio: silentWAV(s.sampleRate, secs), MimeType: "audio/wav"}, nil
}

// silentWAV builds a RIFF/WAVE file holding secs seconds of silence.
func silentWAV(sampleRate, secs int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := uint32(sampleRate * secs * channels * bitsPerSample / 8)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*bitsPerSample/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}
