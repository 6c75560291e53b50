package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// AudioConfig configures audio synthesis and upload.
type AudioConfig struct {
	// Voices maps speaker names to provider voice ids.
	Voices map[string]string
	// Timeout bounds the synthesis call.
	Timeout time.Duration
	// UploadAttempts is the number of upload tries before giving up.
	UploadAttempts int
	// UploadBackoff is the wait before the second try; it doubles after each failure.
	UploadBackoff time.Duration
}

// AudioSynthesizer renders a script to speech and stores the result.
type AudioSynthesizer struct {
	speech driven.SpeechSynthesizer
	store  driven.ObjectStore
	cfg    AudioConfig
	sleep  func(ctx context.Context, d time.Duration) error
	newID  func() string
}

// NewAudioSynthesizer creates an audio synthesizer.
func NewAudioSynthesizer(speech driven.SpeechSynthesizer, store driven.ObjectStore, cfg AudioConfig) *AudioSynthesizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.UploadAttempts < 1 {
		cfg.UploadAttempts = 3
	}
	if cfg.UploadBackoff <= 0 {
		cfg.UploadBackoff = time.Second
	}
	return &AudioSynthesizer{
		speech: speech,
		store:  store,
		cfg:    cfg,
		sleep:  sleepContext,
		newID:  func() string { return uuid.New().String() },
	}
}

// Synthesize renders doc and uploads the audio under
// briefings/<user>/<dateKey>/<id>.<ext>. A synthesis failure wraps
// domain.ErrSynthesisFailure; an upload that keeps failing wraps
// domain.ErrPersistence.
func (a *AudioSynthesizer) Synthesize(
	ctx context.Context,
	userID, dateKey string,
	doc domain.ScriptDocument,
	language string,
) (*domain.AudioArtifact, error) {
	lines := doc.Lines()
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: script has no lines", domain.ErrSynthesisFailure)
	}

	sctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	res, err := a.speech.Synthesize(sctx, driven.SpeechRequest{
		Lines:    lines,
		Voices:   a.cfg.Voices,
		Language: language,
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSynthesisFailure, a.speech.Name(), err)
	}
	if res == nil || len(res.Audio) == 0 {
		return nil, fmt.Errorf("%w: %s returned no audio", domain.ErrSynthesisFailure, a.speech.Name())
	}

	mimeType := res.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	ext, known := domain.ExtensionForMIME(mimeType)
	if !known {
		logger.Warn("unrecognised audio type %q from %s; storing as .%s", mimeType, a.speech.Name(), ext)
	}
	key := fmt.Sprintf("briefings/%s/%s/%s.%s", url.PathEscape(userID), dateKey, a.newID(), ext)

	storageURL, err := a.upload(ctx, key, res.Audio, mimeType)
	if err != nil {
		return nil, err
	}
	return &domain.AudioArtifact{
		MimeType:                mimeType,
		ByteLength:              int64(len(res.Audio)),
		StorageURL:              storageURL,
		StorageKey:              key,
		DurationEstimateSeconds: domain.EstimateDurationSeconds(doc.WordCount()),
	}, nil
}

// upload retries storage failures with doubling backoff. Synthesis is not
// repeated.
func (a *AudioSynthesizer) upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	backoff := a.cfg.UploadBackoff
	var lastErr error
	for attempt := 1; attempt <= a.cfg.UploadAttempts; attempt++ {
		u, err := a.store.Put(ctx, key, data, contentType)
		if err == nil {
			if attempt > 1 {
				logger.Info("uploaded %s on attempt %d", key, attempt)
			}
			return u, nil
		}
		lastErr = err
		logger.Warn("upload %s attempt %d/%d: %v", key, attempt, a.cfg.UploadAttempts, err)
		if attempt == a.cfg.UploadAttempts {
			break
		}
		if err := a.sleep(ctx, backoff); err != nil {
			lastErr = err
			break
		}
		backoff *= 2
	}
	return "", fmt.Errorf("%w: upload %s: %w", domain.ErrPersistence, key, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
