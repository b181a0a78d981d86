package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/pinsession/internal/dbx"
	"github.com/dmitrijs2005/pinsession/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/pinsession/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
