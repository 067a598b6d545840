// Package repomanager wires repository constructors together and runs the
// goose schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/romcom/romcom-auth/internal/dbx"
	"github.com/romcom/romcom-auth/internal/server/migrations"
	"github.com/romcom/romcom-auth/internal/server/repositories/refreshtokens"
	"github.com/romcom/romcom-auth/internal/server/repositories/users"
)

// PostgresRepositoryManager keeps everything in PostgreSQL.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// RedisRepositoryManager keeps users in PostgreSQL and refresh tokens in
// Redis. The refresh token repository ignores the DBTX it is handed, so it
// does not take part in SQL transactions.
type RedisRepositoryManager struct {
	PostgresRepositoryManager
	tokens *refreshtokens.RedisRepository
}

func NewRedisRepositoryManager(client redis.UniversalClient) *RedisRepositoryManager {
	return &RedisRepositoryManager{tokens: refreshtokens.NewRedisRepository(client)}
}

func (m *RedisRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.tokens
}
