package postgres

import (
	"errors"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver for golang_migrate
	_ "github.com/golang-migrate/migrate/v4/source/file"       // support file scheme for golang_migrate

	"github.com/basilisk-nexus/eventnexus/log"
)

// RunMigrations brings the schema at endpoint up to date with the
// migrations at source (e.g. file://storage/migrations).
func RunMigrations(source, endpoint string, logger *log.Logger) error {
	m, err := migrate.New(source, endpoint)
	if err != nil {
		logger.Error("migrator failed to start",
			"error", err,
		)
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("failed to close migrator", "source_err", srcErr, "db_err", dbErr)
		}
	}()

	switch err = m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("no migrations needed to be applied")
	case err != nil:
		logger.Error("migrations failed",
			"error", err,
		)
		return err
	default:
		logger.Info("migrations completed")
	}
	return nil
}
