package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/nimasrn/service-reminders/pkg/redis"
	"github.com/nimasrn/service-reminders/pkg/worker"
	"github.com/robfig/cron/v3"
)

var ErrAlreadyStarted = errors.New("scheduler already started")

type OrganizationLister interface {
	ListReminderEnabled(ctx context.Context) ([]*model.Organization, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, org *model.Organization) (*model.EvaluationResult, error)
}

type StatusRefresher interface {
	RefreshStatuses(ctx context.Context, orgID string) (int, error)
}

type Config struct {
	Spec       string
	Workers    int
	RunLockTTL time.Duration
}

// OrgRun is the outcome of one organization within a tick.
type OrgRun struct {
	OrgID     string
	Locked    bool
	Refreshed int
	Result    *model.EvaluationResult
	Err       error
}

type Summary struct {
	Orgs    int
	Queued  int
	Skipped int
	Failed  int
	Runs    []OrgRun
}

// Scheduler evaluates every reminder-enabled organization on a cron spec.
type Scheduler struct {
	cfg       Config
	orgs      OrganizationLister
	evaluator Evaluator
	refresher StatusRefresher
	lock      redis.RedisAdapter

	mu   sync.Mutex
	cron *cron.Cron
}

func New(cfg Config, orgs OrganizationLister, evaluator Evaluator, refresher StatusRefresher, lock redis.RedisAdapter) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.RunLockTTL <= 0 {
		cfg.RunLockTTL = 10 * time.Minute
	}
	return &Scheduler{
		cfg:       cfg,
		orgs:      orgs,
		evaluator: evaluator,
		refresher: refresher,
		lock:      lock,
	}
}

// Start registers the tick on the cron spec and returns immediately.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return ErrAlreadyStarted
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.cfg.Spec, s.tick); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", s.cfg.Spec, err)
	}
	c.Start()
	s.cron = c

	logger.Info("reminder scheduler started", "spec", s.cfg.Spec, "workers", s.cfg.Workers)
	return nil
}

// Stop waits for a running tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) tick() {
	summary, err := s.RunOnce(context.Background())
	if err != nil {
		logger.Error("scheduler tick failed", "error", err)
		return
	}
	logger.Info("scheduler tick finished",
		"orgs", summary.Orgs,
		"queued", summary.Queued,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
}

// RunOnce evaluates all enabled organizations in parallel.
func (s *Scheduler) RunOnce(ctx context.Context) (*Summary, error) {
	orgs, err := s.orgs.ListReminderEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}

	summary := &Summary{Orgs: len(orgs)}
	if len(orgs) == 0 {
		return summary, nil
	}

	runs := make([]OrgRun, len(orgs))
	var wg sync.WaitGroup

	// The tick waits on every org; shutdown goes through cron's Stop instead of SIGTERM.
	pool := worker.NewWorkerManager(len(orgs), s.cfg.Workers, nil, worker.WithoutSignals())
	pool.SetWorker(func(_ int, job interface{}) {
		i := job.(int)
		runs[i] = s.runOrg(ctx, orgs[i])
		wg.Done()
	})
	go func() { _ = pool.Start() }()
	defer pool.Exit()

	for i := range orgs {
		wg.Add(1)
		if err := pool.Enqueue(ctx, i); err != nil {
			wg.Done()
			runs[i] = OrgRun{OrgID: orgs[i].ID, Err: err}
		}
	}
	wg.Wait()

	for _, r := range runs {
		switch {
		case r.Err != nil:
			summary.Failed++
		case !r.Locked || r.Result == nil || r.Result.Skipped:
			summary.Skipped++
		default:
			summary.Queued += r.Result.Queued
		}
	}
	summary.Runs = runs
	return summary, nil
}

func (s *Scheduler) lockKey(orgID string) string {
	return "scheduler:run:" + orgID
}

func (s *Scheduler) runOrg(ctx context.Context, org *model.Organization) OrgRun {
	run := OrgRun{OrgID: org.ID}
	log := logger.GetLogger().With("org_id", org.ID)

	if s.lock != nil {
		ok, err := s.lock.SetNX(ctx, s.lockKey(org.ID), []byte(strconv.FormatInt(time.Now().Unix(), 10)), s.cfg.RunLockTTL)
		if err != nil {
			log.Warn("run lock unavailable, evaluating anyway", "error", err)
		} else if !ok {
			log.Info("organization run already in progress")
			return run
		} else {
			defer func() {
				if err := s.lock.Del(context.WithoutCancel(ctx), s.lockKey(org.ID)); err != nil {
					log.Warn("failed to release run lock", "error", err)
				}
			}()
		}
	}
	run.Locked = true

	if s.refresher != nil {
		n, err := s.refresher.RefreshStatuses(ctx, org.ID)
		if err != nil {
			log.Warn("status refresh failed", "error", err)
		}
		run.Refreshed = n
	}

	res, err := s.evaluator.Evaluate(ctx, org)
	if err != nil {
		log.Error("reminder evaluation failed", "error", err)
		run.Err = err
		return run
	}
	run.Result = res

	log.Info("reminder evaluation finished",
		"queued", res.Queued,
		"errors", len(res.Errors),
		"skipped", res.Skipped,
		"refreshed", run.Refreshed)
	return run
}
