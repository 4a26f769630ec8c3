package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo persists issued bearer tokens by their jti so they can be revoked
// individually (logout) or all at once (password change).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store records a newly issued token.  A nil exp means the token never
// expires on its own.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenID string, exp *time.Time) error {
	var expiresAt sql.NullTime
	if exp != nil {
		expiresAt = sql.NullTime{Time: exp.UTC(), Valid: true}
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO access_tokens (user_id, token_id, expires_at) VALUES (?,?,?)",
		userID, tokenID, expiresAt)
	return err
}

// Active returns the owning user id if the token exists, is not revoked and
// is not expired.  Any other case yields ErrNotFound.
func (r *TokenRepo) Active(ctx context.Context, tokenID string) (uint64, error) {
	var (
		userID    uint64
		expiresAt sql.NullTime
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM access_tokens WHERE token_id=? LIMIT 1",
		tokenID).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if revokedAt.Valid {
		return 0, ErrNotFound
	}
	if expiresAt.Valid && time.Now().UTC().After(expiresAt.Time) {
		return 0, ErrNotFound
	}
	return userID, nil
}

// Revoke marks a single token as revoked.
func (r *TokenRepo) Revoke(ctx context.Context, tokenID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE access_tokens SET revoked_at=CURRENT_TIMESTAMP WHERE token_id=? AND revoked_at IS NULL",
		tokenID)
	return err
}

// RevokeAllForUser revokes every active token of the user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE access_tokens SET revoked_at=CURRENT_TIMESTAMP WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
