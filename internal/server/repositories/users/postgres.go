package users

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

const userColumns = `u.id, u.username, u.email, u.role_id, u.role_name,
       u.first_name, u.last_name, u.profile_picture, u.last_login_date`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*models.User, error) {
	var (
		u                    models.User
		first, last, picture sql.NullString
		lastLogin            sql.NullTime
	)
	dest := append([]any{
		&u.ID, &u.UserName, &u.Email, &u.RoleID, &u.RoleName,
		&first, &last, &picture, &lastLogin,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	u.FirstName = nullString(first)
	u.LastName = nullString(last)
	u.ProfilePicture = nullString(picture)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginDate = &t
	}
	return &u, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func (r *PostgresRepository) ValidateUser(ctx context.Context, userName string) (*models.User, string, error) {
	query := `SELECT ` + userColumns + `, c.password_hash
		FROM users u
		JOIN user_credentials c ON c.user_id = u.id
		WHERE u.username = $1`

	var digest string
	u, err := scanUser(r.db.QueryRowContext(ctx, query, userName), &digest)
	if err != nil {
		return nil, "", err
	}
	return u, digest, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetUserByUserName(ctx context.Context, userName string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, userName))
}

func (r *PostgresRepository) GetPasswordDigest(ctx context.Context, userID int64) (string, error) {
	query := `SELECT password_hash FROM user_credentials WHERE user_id = $1`

	var digest string
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&digest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return digest, nil
}

func (r *PostgresRepository) UpdatePasswordDigest(ctx context.Context, userID int64, digest string, at time.Time) error {
	query := `INSERT INTO user_credentials (user_id, password_hash, modified_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, modified_at = EXCLUDED.modified_at`

	if _, err := r.db.ExecContext(ctx, query, userID, digest, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	query := `UPDATE users SET last_login_date = $2 WHERE id = $1`

	n, err := dbx.ExecAffected(ctx, r.db, query, userID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (username, email, role_id, role_name, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.RoleID, user.RoleName, user.FirstName, user.LastName,
	).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
