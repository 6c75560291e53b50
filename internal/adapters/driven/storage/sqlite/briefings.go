package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

type briefingStore struct {
	store *Store
}

var _ driven.BriefingStore = (*briefingStore)(nil)

var briefingColumns = []string{
	"id", "user_id", "date_key", "title", "script", "sections", "status",
	"audio_url", "audio_mime_type", "audio_bytes", "duration_seconds", "created_at", "updated_at",
}

// Upsert reads the current record for the day and writes the merged result
// in one transaction, so a failure leaves the previous record untouched.
func (s *briefingStore) Upsert(ctx context.Context, in domain.BriefingUpsert) (*domain.BriefingRecord, error) {
	if in.UserID == "" || in.DateKey == "" {
		return nil, domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin briefing upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	existing, err := s.get(ctx, tx, in.UserID, in.DateKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	rec := in.Apply(existing, uuid.New().String())
	sections, err := marshalJSON(rec.Sections)
	if err != nil {
		return nil, fmt.Errorf("marshalling sections: %w", err)
	}

	query, args, err := s.store.qb.Insert("briefings").
		Columns(briefingColumns...).
		Values(rec.ID, rec.UserID, rec.DateKey, rec.Title, rec.Script, sections, string(rec.Status),
			rec.AudioURL, rec.AudioMimeType, rec.AudioBytes, rec.DurationSeconds,
			encodeTime(rec.CreatedAt), encodeTime(rec.UpdatedAt)).
		Suffix(`ON CONFLICT(user_id, date_key) DO UPDATE SET
			title = excluded.title,
			script = excluded.script,
			sections = excluded.sections,
			status = excluded.status,
			audio_url = excluded.audio_url,
			audio_mime_type = excluded.audio_mime_type,
			audio_bytes = excluded.audio_bytes,
			duration_seconds = excluded.duration_seconds,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building briefing upsert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("saving briefing: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit briefing: %w", err)
	}
	return &rec, nil
}

// Get returns the record for a user and day.
func (s *briefingStore) Get(ctx context.Context, userID, dateKey string) (*domain.BriefingRecord, error) {
	return s.get(ctx, s.store.db, userID, dateKey)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *briefingStore) get(ctx context.Context, db queryRower, userID, dateKey string) (*domain.BriefingRecord, error) {
	query, args, err := s.store.qb.Select(briefingColumns...).
		From("briefings").
		Where(sq.Eq{"user_id": userID, "date_key": dateKey}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building briefing query: %w", err)
	}
	return scanBriefing(db.QueryRowContext(ctx, query, args...))
}

// List returns a user's records, newest day first.
func (s *briefingStore) List(ctx context.Context, userID string, limit int) ([]domain.BriefingRecord, error) {
	b := s.store.qb.Select(briefingColumns...).
		From("briefings").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("date_key DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building briefing query: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing briefings: %w", err)
	}
	defer rows.Close()

	var records []domain.BriefingRecord
	for rows.Next() {
		rec, err := scanBriefing(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating briefings: %w", err)
	}
	return records, nil
}

func scanBriefing(row rowScanner) (*domain.BriefingRecord, error) {
	var (
		rec       domain.BriefingRecord
		sections  string
		status    string
		createdAt sql.NullString
		updatedAt sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.DateKey, &rec.Title, &rec.Script, &sections, &status,
		&rec.AudioURL, &rec.AudioMimeType, &rec.AudioBytes, &rec.DurationSeconds, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning briefing: %w", err)
	}
	rec.Status = domain.BriefingStatus(status)
	rec.CreatedAt = decodeTime(createdAt)
	rec.UpdatedAt = decodeTime(updatedAt)
	if err := unmarshalJSON(sections, &rec.Sections); err != nil {
		return nil, fmt.Errorf("unmarshalling sections: %w", err)
	}
	return &rec, nil
}
