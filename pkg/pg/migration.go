package pg

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending goose migration found in dir.
func Migrate(cfg Config, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	// goose drives plain database/sql, lib/pq registers the "postgres" driver
	db, err := sql.Open("postgres", dsn(cfg))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	if err = goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err == nil {
		logger.Info("migrations applied", "dir", dir, "version", version)
	}
	return nil
}
