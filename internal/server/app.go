// Package server wires the identity service: PostgreSQL storage and
// migrations, the identity watch hub and the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/pinsession/internal/logging"
	"github.com/dmitrijs2005/pinsession/internal/server/config"
	"github.com/dmitrijs2005/pinsession/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pinsession/internal/server/services"
	"github.com/dmitrijs2005/pinsession/internal/server/watch"

	gs "github.com/dmitrijs2005/pinsession/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager(logger)
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	identity := services.NewIdentityService(db, rm, watch.NewHub(), c, logger)
	server := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, identity, c.SecretKey)

	return &App{config: c, logger: logger, db: db, server: server}, nil
}

// Run serves until ctx is cancelled, then closes the database.
func (app *App) Run(ctx context.Context) error {

	app.logger.Info(ctx, "Starting app...")

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}()

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}
	return nil
}
