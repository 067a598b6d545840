package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/dbx"
	"github.com/romcom/romcom-auth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, token string, expiresAt, createdAt time.Time) (int64, error) {
	query := `INSERT INTO refresh_tokens (user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, userID, token, expiresAt, createdAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `SELECT id, user_id, token, expires_at, created_at, is_revoked, revoked_at
		FROM refresh_tokens
		WHERE token = $1`

	var (
		t         models.RefreshToken
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt, &t.Revoked, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if revokedAt.Valid {
		at := revokedAt.Time
		t.RevokedAt = &at
	}
	return &t, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, token string, at time.Time) (bool, error) {
	query := `UPDATE refresh_tokens
		SET is_revoked = TRUE, revoked_at = $2
		WHERE token = $1 AND NOT is_revoked`

	n, err := dbx.ExecAffected(ctx, r.db, query, token, at)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) RevokeAll(ctx context.Context, userID int64, at time.Time) (int64, error) {
	query := `UPDATE refresh_tokens
		SET is_revoked = TRUE, revoked_at = $2
		WHERE user_id = $1 AND NOT is_revoked`

	n, err := dbx.ExecAffected(ctx, r.db, query, userID, at)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
