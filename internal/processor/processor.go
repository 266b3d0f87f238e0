package processor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/service-reminders/internal/queue"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/nimasrn/service-reminders/pkg/redis"
	"github.com/nimasrn/service-reminders/pkg/worker"
)

const ProcessingTimeout = 15 * time.Second
const HealthInterval = 30 * time.Second
const ShutdownTimeout = time.Minute

// Processor handles one stream message.
type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

type ServiceConfig struct {
	Queue     queue.QueueConfig
	Consumers int
	Workers   int
}

// ProcessorService reads the dispatch stream with several consumers and
// hands each message to a shared worker pool.
type ProcessorService struct {
	adapter   redis.RedisAdapter
	config    ServiceConfig
	queues    []*queue.Queue
	processor Processor
	worker    *worker.WorkerManager
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc

	processed atomic.Int64
	failed    atomic.Int64
}

func NewProcessorService(adapter redis.RedisAdapter, cfg ServiceConfig, p Processor) *ProcessorService {
	if cfg.Consumers < 1 {
		cfg.Consumers = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ProcessorService{
		adapter:   adapter,
		config:    cfg,
		processor: p,
		worker:    worker.NewWorkerManager(cfg.Workers*4, cfg.Workers, nil),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *ProcessorService) Start() error {
	logger.Info("starting processor service", "type", s.processor.GetType())

	s.worker.SetWorker(s.workerHandler)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			logger.Info("worker manager stopped", "reason", err)
		}
	}()

	base := s.config.Queue.ConsumerName
	if base == "" {
		base = fmt.Sprintf("dispatcher-%d", time.Now().UnixNano())
	}
	for i := 0; i < s.config.Consumers; i++ {
		qc := s.config.Queue
		qc.ConsumerName = fmt.Sprintf("%s-%d", base, i)

		q, err := queue.NewQueue(s.adapter, qc)
		if err != nil {
			return fmt.Errorf("failed to create queue consumer %d: %w", i, err)
		}
		if err := q.Consume(s.messageHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
	}

	s.wg.Add(1)
	go s.healthChecker()

	logger.Info("processor service started", "consumers", len(s.queues), "workers", s.config.Workers)
	return nil
}

func (s *ProcessorService) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ProcessorService) performHealthCheck() {
	if err := s.adapter.Ping(s.ctx); err != nil {
		logger.Error("health check failed: redis unreachable", "error", err)
		return
	}
	if len(s.queues) == 0 {
		return
	}
	stats, err := s.queues[0].GetStats(s.ctx)
	if err != nil {
		logger.Warn("health check: queue stats unavailable", "error", err)
		return
	}
	logger.Info("health check",
		"queue", s.queues[0].Name(),
		"total", stats.TotalMessages,
		"pending", stats.PendingMessages,
		"processed", s.processed.Load(),
		"failed", s.failed.Load())
}

func (s *ProcessorService) Stop() {
	logger.Info("shutting down processor service")
	s.cancel()

	var stopWG sync.WaitGroup
	for i, q := range s.queues {
		stopWG.Add(1)
		go func(index int, q *queue.Queue) {
			defer stopWG.Done()
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("error stopping consumer", "consumer", index, "error", err)
			}
		}(i, q)
	}
	stopWG.Wait()

	s.worker.Exit()
	s.wg.Wait()
	logger.Info("processor service stopped", "processed", s.processed.Load(), "failed", s.failed.Load())
}

type job struct {
	ctx    context.Context
	msg    *queue.Message
	result chan error
}

// messageHandler blocks the consumer until a worker has processed the message.
func (s *ProcessorService) messageHandler(ctx context.Context, msg *queue.Message) error {
	jobCtx, cancel := context.WithTimeout(ctx, ProcessingTimeout)
	defer cancel()

	j := &job{ctx: jobCtx, msg: msg, result: make(chan error, 1)}
	if err := s.worker.Enqueue(jobCtx, j); err != nil {
		return err
	}

	select {
	case err := <-j.result:
		return err
	case <-jobCtx.Done():
		return fmt.Errorf("timeout waiting for worker: %w", jobCtx.Err())
	}
}

func (s *ProcessorService) workerHandler(workerIndex int, payload interface{}) {
	j, ok := payload.(*job)
	if !ok {
		logger.Error("invalid job type in worker", "worker", workerIndex)
		return
	}
	if j.ctx.Err() != nil {
		return
	}

	err := s.processor.Process(j.ctx, j.msg)
	if err != nil {
		s.failed.Add(1)
		logger.Error("failed to process message", "worker", workerIndex, "stream_id", j.msg.ID, "error", err)
	} else {
		s.processed.Add(1)
	}
	j.result <- err
}
