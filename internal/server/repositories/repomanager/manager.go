package repomanager

import (
	"context"
	"database/sql"

	"github.com/romcom/romcom-auth/internal/dbx"
	"github.com/romcom/romcom-auth/internal/server/repositories/refreshtokens"
	"github.com/romcom/romcom-auth/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same code against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
