package main

import (
	"context"
	"os"

	"github.com/nimasrn/service-reminders/internal/bootstrap"
	"github.com/nimasrn/service-reminders/internal/config"
	"github.com/nimasrn/service-reminders/internal/queue"
	"github.com/nimasrn/service-reminders/internal/repository"
	"github.com/nimasrn/service-reminders/internal/scheduler"
	"github.com/nimasrn/service-reminders/internal/services"
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

	q, err := queue.NewQueue(redisAdap, queue.ConfigFrom(cfg))
	if err != nil {
		logger.Error("failed creating dispatch queue", "error", err)
		return
	}

	orgRepo := repository.NewOrganizationRepository(db)
	configRepo := repository.NewReminderConfigRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	messageRepo := repository.NewReminderMessageRepository(db)

	customerService := services.NewCustomerService(customerRepo, configRepo, bootstrap.Thresholds(cfg))
	reminderService := services.NewReminderService(orgRepo, configRepo, customerRepo, messageRepo,
		services.WithPublisher(q),
		services.WithFireWindowDays(cfg.ReminderFireWindowDays),
	)

	sched := scheduler.New(scheduler.Config{
		Spec:       cfg.SchedulerCron,
		Workers:    cfg.SchedulerWorkers,
		RunLockTTL: cfg.SchedulerRunLockTTL,
	}, orgRepo, reminderService, customerService, redisAdap)

	// --once evaluates every organization a single time and exits
	for _, a := range os.Args[1:] {
		if a == "--once" {
			summary, err := sched.RunOnce(context.Background())
			if err != nil {
				logger.Error("scheduler run failed", "error", err)
				return
			}
			logger.Info("scheduler run finished",
				"orgs", summary.Orgs, "queued", summary.Queued,
				"skipped", summary.Skipped, "failed", summary.Failed)
			return
		}
	}

	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		return
	}

	sig := bootstrap.WaitForSignal()
	logger.Info("received signal", "signal", sig.String())
	sched.Stop()
}
