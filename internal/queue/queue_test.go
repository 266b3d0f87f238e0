package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/config"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)

	// Connection names are cached globally, keep them unique per test.
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func testConfig(name string) QueueConfig {
	return QueueConfig{
		Name:              name,
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      50 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	}
}

func TestQueue_PublishAndConsumeDispatchJob(t *testing.T) {
	_, adapter := setupTestRedis(t)

	q, err := NewQueue(adapter, testConfig("test:dispatch"))
	require.NoError(t, err)

	job := model.DispatchJob{MessageID: uuid.New(), OrgID: "org-1"}
	_, err = q.PublishJSON(context.Background(), job, map[string]string{"org_id": "org-1"})
	require.NoError(t, err)

	received := make(chan model.DispatchJob, 1)
	require.NoError(t, q.Consume(func(ctx context.Context, msg *Message) error {
		var got model.DispatchJob
		assert.NoError(t, msg.Decode(&got))
		assert.Equal(t, "org-1", msg.Metadata["org_id"])
		received <- got
		return nil
	}))

	select {
	case got := <-received:
		assert.Equal(t, job, got)
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}

	require.NoError(t, q.Stop(time.Second))

	stats, err := q.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalMessages)
	assert.Equal(t, int64(0), stats.PendingMessages)
}

func TestQueue_FailedMessageStaysPending(t *testing.T) {
	_, adapter := setupTestRedis(t)

	q, err := NewQueue(adapter, testConfig("test:pending"))
	require.NoError(t, err)

	_, err = q.PublishJSON(context.Background(), map[string]string{"k": "v"}, nil)
	require.NoError(t, err)

	handled := make(chan struct{}, 1)
	require.NoError(t, q.Consume(func(ctx context.Context, msg *Message) error {
		select {
		case handled <- struct{}{}:
		default:
		}
		return assert.AnError
	}))

	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}
	require.NoError(t, q.Stop(time.Second))

	stats, err := q.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingMessages)
}

func TestQueue_ExhaustedMessageMovesToDeadLetter(t *testing.T) {
	mr, adapter := setupTestRedis(t)

	q, err := NewQueue(adapter, testConfig("test:dlq"))
	require.NoError(t, err)
	defer q.Stop(time.Second)

	id, err := q.Publish(context.Background(), []byte(`{"k":"v"}`), map[string]string{"org_id": "org-1"})
	require.NoError(t, err)

	called := false
	q.handler = func(ctx context.Context, msg *Message) error {
		called = true
		return nil
	}

	q.handleMessage(&Message{
		ID:       id,
		Data:     []byte(`{"k":"v"}`),
		Metadata: map[string]string{"org_id": "org-1"},
		Attempts: 3,
		queue:    q,
	})

	assert.False(t, called)
	entries, err := mr.Stream(q.DeadLetterName())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Values, "original_id")
}

func TestMessage_Ack(t *testing.T) {
	_, adapter := setupTestRedis(t)

	q, err := NewQueue(adapter, testConfig("test:ack"))
	require.NoError(t, err)
	defer q.Stop(time.Second)

	msgID, err := q.Publish(context.Background(), []byte(`{"test":"data"}`), nil)
	require.NoError(t, err)

	msg := &Message{ID: msgID, queue: q}
	require.NoError(t, msg.Ack())
	assert.ErrorIs(t, msg.Ack(), ErrAlreadyAcked)
}

func TestNewQueue(t *testing.T) {
	_, adapter := setupTestRedis(t)

	t.Run("name is required", func(t *testing.T) {
		_, err := NewQueue(adapter, QueueConfig{})
		assert.Error(t, err)
	})

	t.Run("second consumer on the same group", func(t *testing.T) {
		first, err := NewQueue(adapter, testConfig("test:shared"))
		require.NoError(t, err)
		defer first.Stop(time.Second)

		second, err := NewQueue(adapter, testConfig("test:shared"))
		require.NoError(t, err)
		defer second.Stop(time.Second)
	})

	t.Run("defaults are applied", func(t *testing.T) {
		q, err := NewQueue(adapter, QueueConfig{Name: "test:defaults"})
		require.NoError(t, err)
		defer q.Stop(time.Second)

		assert.Equal(t, "default-group", q.config.ConsumerGroup)
		assert.Equal(t, 3, q.config.MaxRetries)
		assert.Equal(t, 30*time.Second, q.config.VisibilityTimeout)
	})
}

func TestConfigFrom(t *testing.T) {
	c := &config.Config{
		QueueName:          "reminders:dispatch",
		QueueConsumerGroup: "dispatchers",
		QueueMaxRetries:    5,
		QueueEnableDLQ:     true,
	}

	qc := ConfigFrom(c)
	assert.Equal(t, "reminders:dispatch", qc.Name)
	assert.Equal(t, "dispatchers", qc.ConsumerGroup)
	assert.Equal(t, 5, qc.MaxRetries)
	assert.True(t, qc.EnableDLQ)
}

func TestQueue_ConcurrentPublish(t *testing.T) {
	_, adapter := setupTestRedis(t)

	q, err := NewQueue(adapter, testConfig("test:concurrent"))
	require.NoError(t, err)
	defer q.Stop(time.Second)

	const n = 10
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func(id int) {
			_, err := q.PublishJSON(context.Background(), map[string]int{"id": id}, nil)
			assert.NoError(t, err)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}

	stats, err := q.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(n), stats.TotalMessages)
}
