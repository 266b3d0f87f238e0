package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every configuration value of the reminder services.
// Only this struct must be used to read configuration, no direct access
// to env or any other config source should be made.
type Config struct {
	AppEnv   string `env:"APP_ENV,default=dev"`
	AppName  string `env:"APP_NAME,default=service_reminders"`
	AppDebug bool   `env:"APP_DEBUG,default=true"`

	HttpListenAddr   string `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpMaxBodyBytes int    `env:"HTTP_MAX_BODY_BYTES,default=10485760"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace  string `env:"PROM_NAMESPACE,default=reminders"`
	PromListenAddr string `env:"PROM_LISTEN_ADDR,default=:9100"`

	QueueName              string        `env:"QUEUE_NAME,default=reminders:dispatch"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP,default=dispatchers"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES,default=3"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT,default=30s"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL,default=1s"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE,default=10"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN,default=100000"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ,default=true"`

	DispatchConsumers   int           `env:"DISPATCH_CONSUMERS,default=2"`
	DispatchWorkers     int           `env:"DISPATCH_WORKERS,default=16"`
	DispatchLockTTL     time.Duration `env:"DISPATCH_LOCK_TTL,default=30s"`
	DispatchMaxAttempts int           `env:"DISPATCH_MAX_ATTEMPTS,default=3"`

	SchedulerCron       string        `env:"SCHEDULER_CRON,default=0 * * * *"`
	SchedulerWorkers    int           `env:"SCHEDULER_WORKERS,default=8"`
	SchedulerRunLockTTL time.Duration `env:"SCHEDULER_RUN_LOCK_TTL,default=10m"`

	ReminderFireWindowDays int `env:"REMINDER_FIRE_WINDOW_DAYS,default=3"`
	StatusDueNowDays       int `env:"STATUS_DUE_NOW_DAYS,default=0"`
	StatusMileageSoon      int `env:"STATUS_MILEAGE_SOON,default=500"`

	TwilioTimeout time.Duration `env:"TWILIO_TIMEOUT,default=10s"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err = env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set replaces the loaded configuration, used by tests and tools that
// build a Config by hand.
func Set(c *Config) {
	config = c
}
