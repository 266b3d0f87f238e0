package worker

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nimasrn/service-reminders/pkg/logger"
)

var ErrStopped = errors.New("worker manager stopped")

type WorkerHandler = func(workerIndex int, job interface{})

type WorkerManager struct {
	numberOfWorker int
	handleSignals  bool
	jobChannel     chan interface{}
	sigTerm        chan os.Signal
	done           chan struct{}
	stopOnce       sync.Once
	do             WorkerHandler
	waiter         *sync.WaitGroup
}

type Option func(*WorkerManager)

// WithoutSignals leaves shutdown to the owner's Exit. Use it for short-lived
// pools whose caller waits on every enqueued job.
func WithoutSignals() Option {
	return func(w *WorkerManager) {
		w.handleSignals = false
	}
}

// NewWorkerManager
// is a job manager based on go routines. Define the number of internal
// workers, and start publishing jobs using Enqueue. It distributes the jobs
// among its internal pool until Exit is called or the process gets SIGTERM.
// A nil jobChannel gets a new buffered channel of bufferSize.
func NewWorkerManager(bufferSize, numberOfWorkers int, jobChannel chan interface{}, opts ...Option) *WorkerManager {
	if jobChannel == nil {
		jobChannel = make(chan interface{}, bufferSize)
	}
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}

	w := &WorkerManager{
		numberOfWorker: numberOfWorkers,
		handleSignals:  true,
		jobChannel:     jobChannel,
		done:           make(chan struct{}),
		waiter:         &sync.WaitGroup{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.handleSignals {
		w.sigTerm = make(chan os.Signal, 1)
		signal.Notify(w.sigTerm, syscall.SIGTERM)
	}
	return w
}

func (w *WorkerManager) GetUnreadCount() int64 {
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue blocks until a worker slot in the buffer is free, ctx ends or
// the manager stops.
func (w *WorkerManager) Enqueue(ctx context.Context, val interface{}) error {
	select {
	case w.jobChannel <- val:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrStopped
	}
}

// Start
// runs the workers and blocks until they all exit.
func (w *WorkerManager) Start() error {
	go func() {
		select {
		case <-w.sigTerm:
			logger.Info("SIGTERM received, stopping worker manager")
			w.Exit()
		case <-w.done:
		}
	}()

	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job := <-w.jobChannel:
					w.do(index, job)
				case <-w.done:
					return
				}
			}
		}(i)
	}
	w.waiter.Wait()

	return ErrStopped
}

// Exit stops all workers once; jobs still buffered are dropped.
func (w *WorkerManager) Exit() {
	w.stopOnce.Do(func() {
		logger.Info("Exit() is called and worker manager is going to be shutdown")
		if w.sigTerm != nil {
			signal.Stop(w.sigTerm)
		}
		close(w.done)
	})
}
