package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jotterapp/jotter-server/internal/domain"
	"github.com/jotterapp/jotter-server/internal/store"
)

// refreshTokenColumns is the ordered list of columns selected in refresh
// token queries. Must match the scan order in scanRefreshToken.
const refreshTokenColumns = `id, user_id, token_hash, expires_at, revoked, created_at`

// scanRefreshToken scans a sql.Row (or sql.Rows via its Scan method) into a domain.RefreshToken.
func scanRefreshToken(scanner interface{ Scan(dest ...any) error }) (*domain.RefreshToken, error) {
	var t domain.RefreshToken

	var (
		expiresAt string
		revoked   int
		createdAt string
	)

	err := scanner.Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&expiresAt,
		&revoked,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	t.Revoked = revoked != 0

	return &t, nil
}

// CreateRefreshToken inserts a new refresh token into the database.
// Returns store.ErrAlreadyExists if the ID or token hash already exists.
func (s *Store) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID,
		token.UserID,
		token.TokenHash,
		formatTime(token.ExpiresAt),
		boolToInt(token.Revoked),
		formatTime(token.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetActiveRefreshToken retrieves a refresh token by hash, excluding
// revoked and expired rows. A revoked or expired token is
// indistinguishable from a missing one.
// Returns store.ErrNotFound if no active token matches.
func (s *Store) GetActiveRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+refreshTokenColumns+` FROM refresh_tokens
		WHERE token_hash = ? AND revoked = 0 AND expires_at > ?`,
		tokenHash, formatTime(time.Now()))

	t, err := scanRefreshToken(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// RotateRefreshToken revokes the old token and inserts its successor in
// a single transaction. The revoke is conditional on the row still being
// active, so concurrent rotations of the same token lose with
// store.ErrNotFound and neither successor leaks.
func (s *Store) RotateRefreshToken(ctx context.Context, oldID string, successor *domain.RefreshToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1
		WHERE id = ? AND revoked = 0 AND expires_at > ?`,
		oldID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		successor.ID,
		successor.UserID,
		successor.TokenHash,
		formatTime(successor.ExpiresAt),
		boolToInt(successor.Revoked),
		formatTime(successor.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert successor token: %w", err)
	}

	return tx.Commit()
}

// DeleteExpiredRefreshTokens deletes all tokens past their expiry.
// Returns the number of tokens deleted.
func (s *Store) DeleteExpiredRefreshTokens(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ?`, formatTime(time.Now()))
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
