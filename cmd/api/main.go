package main

import (
	"os"
	"time"

	"github.com/nimasrn/service-reminders/internal/bootstrap"
	"github.com/nimasrn/service-reminders/internal/config"
	"github.com/nimasrn/service-reminders/internal/handlers"
	"github.com/nimasrn/service-reminders/internal/queue"
	"github.com/nimasrn/service-reminders/internal/repository"
	"github.com/nimasrn/service-reminders/internal/services"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
	"github.com/nimasrn/service-reminders/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer logger.Sync()

	err := config.Load(bootstrap.EnvPath(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	opts := xhttp.DefaultServerOption
	opts.Name = cfg.AppName
	opts.MaxRequestBodySize = cfg.HttpMaxBodyBytes
	s := xhttp.NewServer(opts)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.TimeoutMiddleware(time.Second * 30))

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

	// services
	thresholds := bootstrap.Thresholds(cfg)
	seedService := services.NewSeedService(configRepo)
	orgService := services.NewOrganizationService(orgRepo, configRepo, seedService)
	customerService := services.NewCustomerService(customerRepo, configRepo, thresholds)
	importService := services.NewImportService(customerRepo, configRepo, thresholds)
	reminderService := services.NewReminderService(orgRepo, configRepo, customerRepo, messageRepo,
		services.WithPublisher(q),
		services.WithFireWindowDays(cfg.ReminderFireWindowDays),
	)

	g := s.Router.Group("/api/v1")
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": db,
		"redis":    redisAdap,
	}))
	handlers.RegisterOrganizationRoutes(g, handlers.NewOrganizationHandler(orgService))
	handlers.RegisterSettingsRoutes(g, handlers.NewSettingsHandler(orgService))
	handlers.RegisterCustomerRoutes(g, handlers.NewCustomerHandler(customerService))
	handlers.RegisterImportRoutes(g, handlers.NewImportHandler(importService, int64(cfg.HttpMaxBodyBytes)))
	handlers.RegisterReminderRoutes(g, handlers.NewReminderHandler(orgService, reminderService))

	go func() {
		if err := s.ListenAndServe(cfg.HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	sig := bootstrap.WaitForSignal()
	logger.Info("received signal", "signal", sig.String())
	s.Shutdown()
}
