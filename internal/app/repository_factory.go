package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/felixgeelhaar/quadra/internal/matrix/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/quadra/internal/shared/application"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/quadra/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/quadra/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/quadra/internal/shared/infrastructure/persistence"
)

// Stores groups the task store with the outbox and the unit of work that
// commits both together.
type Stores struct {
	Driver     database.Driver
	Conn       database.Connection // nil for the memory driver
	Tasks      task.Repository
	Outbox     outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork
}

// ResolveDatabaseConfig maps the configured URL onto a database config.
// An empty URL selects the local SQLite file.
func ResolveDatabaseConfig(url string, maxConns int) database.Config {
	if url == "" {
		url = "sqlite://" + database.DefaultSQLitePath()
	}
	return database.Config{URL: url, MaxConns: maxConns}
}

// OpenStores connects to the configured backend and applies pending
// migrations. The memory driver needs neither.
func OpenStores(ctx context.Context, cfg database.Config, logger *slog.Logger) (*Stores, error) {
	driver := cfg.ResolvedDriver()

	if driver == database.DriverMemory {
		logger.Info("using in-memory task store")
		return &Stores{
			Driver:     driver,
			Tasks:      persistence.NewInMemoryTaskRepository(),
			Outbox:     outbox.NewInMemoryRepository(),
			UnitOfWork: sharedPersistence.NewLockingUnitOfWork(),
		}, nil
	}

	conn, err := database.NewConnection(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate %s schema: %w", driver, err)
	}

	logger.Info("connected to database", "driver", driver.String())

	return &Stores{
		Driver:     driver,
		Conn:       conn,
		Tasks:      persistence.NewSQLTaskRepository(conn),
		Outbox:     outbox.NewSQLRepository(conn),
		UnitOfWork: database.NewUnitOfWork(conn),
	}, nil
}

// Ping checks the backing store. The memory driver is always reachable.
func (s *Stores) Ping(ctx context.Context) error {
	if s.Conn == nil {
		return nil
	}
	return s.Conn.Ping(ctx)
}

// Close releases the SQL connection, if any.
func (s *Stores) Close() error {
	if s.Conn == nil {
		return nil
	}
	return s.Conn.Close()
}
