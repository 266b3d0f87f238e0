// Package bootstrap holds the process wiring shared by the binaries under cmd/.
package bootstrap

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nimasrn/service-reminders/internal/config"
	"github.com/nimasrn/service-reminders/internal/status"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/nimasrn/service-reminders/pkg/pg"
	"github.com/nimasrn/service-reminders/pkg/prom"
	"github.com/nimasrn/service-reminders/pkg/redis"
	"github.com/pkg/errors"
)

// EnvPath returns the value of a --env=<file> argument when the file can be opened.
func EnvPath(args []string) string {
	for _, v := range args {
		if !strings.HasPrefix(v, "--env=") {
			continue
		}
		path := strings.TrimPrefix(v, "--env=")
		f, err := os.Open(path)
		if err != nil {
			logger.Error("failed to open the passed env file", "path", path, "error", err)
			return ""
		}
		_ = f.Close()
		return path
	}
	return ""
}

func ReadConfig(c *config.Config) pg.Config {
	return pg.Config{
		User:     c.PostgresReadUser,
		Host:     c.PostgresReadHost,
		Port:     c.PostgresReadPort,
		Password: c.PostgresReadPassword,
		Database: c.PostgresReadDatabase,
	}
}

func WriteConfig(c *config.Config) pg.Config {
	return pg.Config{
		User:     c.PostgresWriteUser,
		Host:     c.PostgresWriteHost,
		Port:     c.PostgresWritePort,
		Password: c.PostgresWritePassword,
		Database: c.PostgresWriteDatabase,
	}
}

// Postgres opens the read/write pair. SQL logging is on in dev.
func Postgres(c *config.Config) (*pg.DB, error) {
	db, err := pg.CreateReadWrite(ReadConfig(c), WriteConfig(c), c.AppEnv == "dev")
	if err != nil {
		return nil, errors.Wrap(err, "failed connecting to pg")
	}
	return db, nil
}

func Redis(c *config.Config, name string) (redis.RedisAdapter, error) {
	adapter, err := redis.NewRedisAdapter(name, c.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{c.RedisAddr},
		ClientName: name,
		DB:         c.RedisDatabase,
		Username:   c.RedisUsername,
		Password:   c.RedisPassword,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed connecting to redis")
	}
	return adapter, nil
}

// Metrics registers the collectors and serves /metrics in the background.
func Metrics(c *config.Config) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, c.AppEnv, c.PromNamespace); err != nil {
		return errors.Wrap(err, "failed to create prometheus metrics")
	}
	go prom.ListenAndServer(c.PromListenAddr, "/metrics")
	return nil
}

func Thresholds(c *config.Config) status.Thresholds {
	t := status.DefaultThresholds()
	t.DueNowDays = c.StatusDueNowDays
	t.MileageSoonWindow = c.StatusMileageSoon
	return t
}

// WaitForSignal blocks until SIGINT or SIGTERM.
func WaitForSignal() os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	return <-c
}
