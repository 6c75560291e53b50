package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Ensure BriefingService implements the interface.
var _ driving.BriefingService = (*BriefingService)(nil)

const (
	defaultHistoryLimit = 30
	persistAttempts     = 3
)

// BriefingService persists and reads daily briefings. Writes go through a
// single upsert per (user, day) so regeneration replaces content in place.
type BriefingService struct {
	store    driven.BriefingStore
	settings driving.SettingsService
	loc      *time.Location
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	backoff  time.Duration
}

// NewBriefingService creates a briefing service. loc is the default
// timezone for date keys.
func NewBriefingService(store driven.BriefingStore, settings driving.SettingsService, loc *time.Location) *BriefingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BriefingService{
		store:    store,
		settings: settings,
		loc:      loc,
		now:      time.Now,
		sleep:    sleepContext,
		backoff:  200 * time.Millisecond,
	}
}

// DateKey returns today's calendar day for the user.
func (s *BriefingService) DateKey(ctx context.Context, userID string) string {
	loc := s.loc
	if s.settings != nil {
		if st, err := s.settings.Get(ctx, userID); err == nil {
			loc = st.Location(s.loc)
		}
	}
	return domain.DateKey(s.now(), loc)
}

// Upsert writes the result of a pipeline run for the given day. Store
// failures are retried; the final failure wraps domain.ErrPersistence.
func (s *BriefingService) Upsert(
	ctx context.Context,
	userID, dateKey string,
	doc domain.ScriptDocument,
	audio *domain.AudioArtifact,
) (*domain.BriefingRecord, error) {
	status := domain.BriefingCompleted
	if audio == nil {
		status = domain.BriefingScriptOnly
	}
	return s.write(ctx, domain.BriefingUpsert{
		UserID:   userID,
		DateKey:  dateKey,
		Script:   doc.Clone(),
		Audio:    audio,
		Status:   status,
		Occurred: s.now(),
	})
}

func (s *BriefingService) write(ctx context.Context, in domain.BriefingUpsert) (*domain.BriefingRecord, error) {
	backoff := s.backoff
	var lastErr error
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		rec, err := s.store.Upsert(ctx, in)
		if err == nil {
			return rec, nil
		}
		lastErr = err
		logger.Warn("upsert briefing %s/%s attempt %d: %v", in.UserID, in.DateKey, attempt, err)
		if attempt < persistAttempts {
			if err := s.sleep(ctx, backoff); err != nil {
				lastErr = err
				break
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, lastErr)
}

// Today returns today's record, or nil if none exists yet.
func (s *BriefingService) Today(ctx context.Context, userID string) (*domain.BriefingRecord, error) {
	rec, err := s.store.Get(ctx, userID, s.DateKey(ctx, userID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get today's briefing: %w", err)
	}
	return rec, nil
}

// History returns recent records, newest first.
func (s *BriefingService) History(ctx context.Context, userID string, limit int) ([]domain.BriefingRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	recs, err := s.store.List(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list briefings: %w", err)
	}
	return recs, nil
}

// SaveEdit applies a manual edit to today's record, creating the record if
// none exists. Audio is left as it was.
func (s *BriefingService) SaveEdit(ctx context.Context, userID string, edit domain.BriefingEdit) (*domain.BriefingRecord, error) {
	if edit.IsEmpty() {
		return nil, fmt.Errorf("%w: edit changes nothing", domain.ErrInvalidInput)
	}
	dateKey := s.DateKey(ctx, userID)

	var doc domain.ScriptDocument
	existing, err := s.store.Get(ctx, userID, dateKey)
	switch {
	case err == nil:
		doc = existing.Document()
	case errors.Is(err, domain.ErrNotFound):
		if edit.Sections == nil {
			return nil, fmt.Errorf("%w: no briefing today to retitle", domain.ErrNotFound)
		}
	default:
		return nil, fmt.Errorf("get today's briefing: %w", err)
	}

	if edit.Title != nil {
		doc.Title = *edit.Title
	}
	if edit.Sections != nil {
		doc.Sections = append([]domain.Section(nil), edit.Sections...)
	}

	return s.write(ctx, domain.BriefingUpsert{
		UserID:    userID,
		DateKey:   dateKey,
		Script:    doc,
		KeepAudio: true,
		Status:    domain.BriefingEdited,
		Occurred:  s.now(),
	})
}
