package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

// tokenStore implements driven.TokenStore.
type tokenStore struct {
	store *Store
}

var _ driven.TokenStore = (*tokenStore)(nil)

// SaveCredentials replaces the stored credentials.
func (s *tokenStore) SaveCredentials(ctx context.Context, creds domain.RemoteCredentials) error {
	if creds.AccessToken == "" && creds.RefreshToken == "" {
		return domain.ErrInvalidInput
	}

	db, err := s.store.conn(ctx)
	if err != nil {
		return domain.NewStorageError("open", err)
	}

	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = time.Now()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO remote_tokens
			(id, account_identifier, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_identifier = excluded.account_identifier,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`, domain.CurrentHandleID, creds.AccountIdentifier, creds.AccessToken, creds.RefreshToken,
		creds.TokenType, toMillis(creds.Expiry), toMillis(creds.UpdatedAt))
	if err != nil {
		return domain.NewStorageError("put", err)
	}
	return nil
}

// GetCredentials returns the stored credentials, or nil.
func (s *tokenStore) GetCredentials(ctx context.Context) (*domain.RemoteCredentials, error) {
	db, err := s.store.conn(ctx)
	if err != nil {
		return nil, domain.NewStorageError("open", err)
	}

	var (
		creds             domain.RemoteCredentials
		expiry, updatedAt int64
	)
	row := db.QueryRowContext(ctx, `
		SELECT account_identifier, access_token, refresh_token, token_type, expiry, updated_at
		FROM remote_tokens WHERE id = ?
	`, domain.CurrentHandleID)
	if err := row.Scan(&creds.AccountIdentifier, &creds.AccessToken, &creds.RefreshToken,
		&creds.TokenType, &expiry, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewStorageError("get", err)
	}

	creds.Expiry = fromMillis(expiry)
	creds.UpdatedAt = fromMillis(updatedAt)
	return &creds, nil
}

// DeleteCredentials removes the stored credentials.
func (s *tokenStore) DeleteCredentials(ctx context.Context) error {
	db, err := s.store.conn(ctx)
	if err != nil {
		return domain.NewStorageError("open", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM remote_tokens WHERE id = ?", domain.CurrentHandleID); err != nil {
		return domain.NewStorageError("delete", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
