package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerManager_ProcessesJobs(t *testing.T) {
	w := NewWorkerManager(10, 3, nil)

	var sum atomic.Int64
	done := make(chan struct{}, 5)
	w.SetWorker(func(_ int, job interface{}) {
		sum.Add(int64(job.(int)))
		done <- struct{}{}
	})

	stopped := make(chan error, 1)
	go func() { stopped <- w.Start() }()

	for i := 1; i <= 5; i++ {
		require.NoError(t, w.Enqueue(context.Background(), i))
	}
	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, int64(15), sum.Load())

	w.Exit()
	w.Exit()
	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("workers did not stop")
	}
}

func TestWorkerManager_EnqueueAfterExit(t *testing.T) {
	w := NewWorkerManager(0, 1, nil)
	w.Exit()
	assert.ErrorIs(t, w.Enqueue(context.Background(), 1), ErrStopped)
}

func TestWorkerManager_EnqueueHonorsContext(t *testing.T) {
	w := NewWorkerManager(0, 1, nil)
	defer w.Exit()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Enqueue(ctx, 1), context.DeadlineExceeded)
}
