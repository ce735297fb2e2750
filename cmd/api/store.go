package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/api/http/handlers"
	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/persistence"
	"github.com/spec-kit/incident-service/internal/repository"
	"github.com/spec-kit/incident-service/internal/repository/sqlite"
)

// store is the repository pair backed by whichever DB_DRIVER is configured.
type store struct {
	users     repository.UserRepository
	incidents repository.IncidentRepository
	pinger    handlers.Pinger
	close     func()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := sqlite.Migrate(db.DB); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrate sqlite: %w", err)
			}
		}
		return &store{
			users:     sqlite.NewUserRepository(db.DB),
			incidents: sqlite.NewIncidentRepository(db.DB),
			pinger:    db,
			close:     db.Close,
		}, nil
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if migrate {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return &store{
			users:     repository.NewUserRepository(pg.Pool),
			incidents: repository.NewIncidentRepository(pg.Pool),
			pinger:    pg,
			close:     pg.Close,
		}, nil
	}
}
