// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *Token) error
	FindByHash(ctx context.Context, tokenHash string) (*Token, error)
	RevokeByID(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	TouchLastUsed(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

// NewRepository binds token persistence to db, which may be a pool or an
// open transaction. Services construct transaction-bound repositories
// inside core.InTx for the revoke+issue pair.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, token *Token) error {
	query := `
		INSERT INTO session_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create session token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*Token, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, last_used_at,
		       expires_at, revoked_at
		FROM session_tokens
		WHERE token_hash = $1`

	var token Token
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find session token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session token: %w", err)
	}

	return &token, nil
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	query := `
		UPDATE session_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoke session token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke session token: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("revoke session token: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RevokeAllForUser(
	ctx context.Context,
	userID string,
) error {
	query := `
		UPDATE session_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("revoke all user tokens: %w", err)
	}

	return nil
}

func (r *repository) TouchLastUsed(ctx context.Context, id string) error {
	query := `
		UPDATE session_tokens
		SET last_used_at = NOW()
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("touch session token: %w", err)
	}

	return nil
}

func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM session_tokens
		WHERE expires_at < $1`

	cutoff := time.Now().Add(-24 * time.Hour)

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return rows, nil
}
