// Package repomanager provides the PostgreSQL RepositoryManager and the
// schema migrations of the identity service (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/pinsession/internal/dbx"
	"github.com/dmitrijs2005/pinsession/internal/logging"
	"github.com/dmitrijs2005/pinsession/internal/server/migrations"
	"github.com/dmitrijs2005/pinsession/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/pinsession/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
	// logger receives goose output. A nil logger keeps goose's default.
	logger logging.Logger
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

// RunMigrations applies the embedded migrations to db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	if m.logger != nil {
		goose.SetLogger(logging.NewPrintfLogger(m.logger.With("module", "migrations")))
	}
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager(logger logging.Logger) RepositoryManager {
	return &PostgresRepositoryManager{logger: logger}
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// OpenPostgres opens dsn with the pgx driver and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}
