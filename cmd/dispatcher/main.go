package main

import (
	"os"

	"github.com/nimasrn/service-reminders/internal/bootstrap"
	"github.com/nimasrn/service-reminders/internal/config"
	gateway "github.com/nimasrn/service-reminders/internal/gateways"
	"github.com/nimasrn/service-reminders/internal/processor"
	"github.com/nimasrn/service-reminders/internal/queue"
	"github.com/nimasrn/service-reminders/internal/repository"
	"github.com/nimasrn/service-reminders/pkg/logger"
)

func main() {
	defer logger.Sync()

	err := config.Load(bootstrap.EnvPath(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()

	db, err := bootstrap.Postgres(cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}

	redisAdap, err := bootstrap.Redis(cfg, "default")
	if err != nil {
		logger.Error("failed to open redis", "error", err)
		return
	}

	if err := bootstrap.Metrics(cfg); err != nil {
		logger.Error("failed to start metrics", "error", err)
		return
	}

	idempotencyConfig := processor.DefaultIdempotencyConfig()
	idempotencyConfig.LockTTL = cfg.DispatchLockTTL
	idempotencyConfig.MaxRetries = cfg.DispatchMaxAttempts
	idempotency := processor.NewIdempotencyService(redisAdap, idempotencyConfig)

	dispatch := processor.NewDispatchProcessor(
		repository.NewReminderMessageRepository(db),
		repository.NewOrganizationRepository(db),
		gateway.NewTwilioSender(cfg.TwilioTimeout),
		idempotency,
	)

	service := processor.NewProcessorService(redisAdap, processor.ServiceConfig{
		Queue:     queue.ConfigFrom(cfg),
		Consumers: cfg.DispatchConsumers,
		Workers:   cfg.DispatchWorkers,
	}, dispatch)

	if err := service.Start(); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
		service.Stop()
		return
	}

	sig := bootstrap.WaitForSignal()
	logger.Info("received signal", "signal", sig.String())
	service.Stop()
}
