package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

type credentialStore struct {
	store *Store
}

var _ driven.CredentialStore = (*credentialStore)(nil)

var credentialColumns = []string{
	"id", "user_id", "provider", "access_token", "refresh_token", "token_type",
	"expires_at", "scopes", "created_at", "updated_at",
}

// Save stores a credential, replacing the tokens of an existing one for the
// same user and provider.
func (s *credentialStore) Save(ctx context.Context, cred domain.Credential) error {
	if cred.ID == "" || cred.UserID == "" || cred.Provider == "" {
		return domain.ErrInvalidInput
	}

	scopes, err := marshalJSON(cred.Scopes)
	if err != nil {
		return fmt.Errorf("marshalling scopes: %w", err)
	}

	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	if cred.UpdatedAt.IsZero() {
		cred.UpdatedAt = now
	}

	query, args, err := s.store.qb.Insert("credentials").
		Columns(credentialColumns...).
		Values(cred.ID, cred.UserID, string(cred.Provider), cred.AccessToken, cred.RefreshToken,
			cred.TokenType, encodeNullableTime(cred.ExpiresAt), scopes, encodeTime(cred.CreatedAt), encodeTime(cred.UpdatedAt)).
		Suffix(`ON CONFLICT(user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			scopes = excluded.scopes,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("building credential upsert: %w", err)
	}

	if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// Get returns the credential for a user and provider, or nil if none exists.
func (s *credentialStore) Get(ctx context.Context, userID string, provider domain.Provider) (*domain.Credential, error) {
	query, args, err := s.store.qb.Select(credentialColumns...).
		From("credentials").
		Where(sq.Eq{"user_id": userID, "provider": string(provider)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building credential query: %w", err)
	}

	cred, err := scanCredential(s.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return cred, err
}

// List returns every credential of a user, ordered by provider.
func (s *credentialStore) List(ctx context.Context, userID string) ([]domain.Credential, error) {
	query, args, err := s.store.qb.Select(credentialColumns...).
		From("credentials").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("provider").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building credential query: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	defer rows.Close()

	var creds []domain.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the credential for a user and provider.
func (s *credentialStore) Delete(ctx context.Context, userID string, provider domain.Provider) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM credentials WHERE user_id = ? AND provider = ?", userID, string(provider))
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

func scanCredential(row rowScanner) (*domain.Credential, error) {
	var (
		cred      domain.Credential
		provider  string
		expiresAt sql.NullString
		scopes    string
		createdAt sql.NullString
		updatedAt sql.NullString
	)
	err := row.Scan(&cred.ID, &cred.UserID, &provider, &cred.AccessToken, &cred.RefreshToken,
		&cred.TokenType, &expiresAt, &scopes, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning credential: %w", err)
	}

	cred.Provider = domain.Provider(provider)
	cred.ExpiresAt = decodeTime(expiresAt)
	cred.CreatedAt = decodeTime(createdAt)
	cred.UpdatedAt = decodeTime(updatedAt)
	if err := unmarshalJSON(scopes, &cred.Scopes); err != nil {
		return nil, fmt.Errorf("unmarshalling scopes: %w", err)
	}
	return &cred, nil
}
