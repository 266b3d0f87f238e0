package main

import (
	"os"
	"strings"

	"github.com/nimasrn/service-reminders/internal/bootstrap"
	"github.com/nimasrn/service-reminders/internal/config"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/nimasrn/service-reminders/pkg/pg"
)

// cli --env=.env --dir=./migrations
func main() {
	defer logger.Sync()

	envPath := bootstrap.EnvPath(os.Args)
	if envPath == "" {
		if _, err := os.Stat(".env"); err == nil {
			envPath = ".env"
		}
	}
	if err := config.Load(envPath); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := pg.Migrate(bootstrap.WriteConfig(config.Get()), migrationDir(os.Args)); err != nil {
		logger.Error("migration: error running migrations", "error", err)
		os.Exit(1)
	}
}

func migrationDir(args []string) string {
	for _, v := range args {
		if strings.HasPrefix(v, "--dir=") {
			return strings.TrimPrefix(v, "--dir=")
		}
	}
	return "./migrations"
}
