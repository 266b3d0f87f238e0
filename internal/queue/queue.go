package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nimasrn/service-reminders/internal/config"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/nimasrn/service-reminders/pkg/redis"
)

var ErrAlreadyAcked = errors.New("message already acknowledged")

// Message is one dispatch entry read from the stream.
type Message struct {
	ID        string
	Data      []byte
	Metadata  map[string]string
	Timestamp time.Time
	// Attempts counts earlier deliveries of this entry to any consumer.
	Attempts int
	acked    bool
	queue    *Queue
}

// Ack removes the message from the pending list of the consumer group.
func (m *Message) Ack() error {
	if m.acked {
		return ErrAlreadyAcked
	}
	m.acked = true
	return m.queue.ackMessage(m.ID)
}

// Decode unmarshals the JSON payload into v.
func (m *Message) Decode(v any) error {
	return json.Unmarshal(m.Data, v)
}

// MessageHandler processes one message. A nil return acks it; an error
// leaves it pending so it is reclaimed after the visibility timeout.
type MessageHandler func(ctx context.Context, msg *Message) error

type QueueConfig struct {
	Name              string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
}

// ConfigFrom builds the dispatch stream settings from the loaded config.
func ConfigFrom(c *config.Config) QueueConfig {
	return QueueConfig{
		Name:              c.QueueName,
		ConsumerGroup:     c.QueueConsumerGroup,
		ConsumerName:      c.QueueConsumerName,
		MaxRetries:        c.QueueMaxRetries,
		VisibilityTimeout: c.QueueVisibilityTimeout,
		PollInterval:      c.QueuePollInterval,
		BatchSize:         c.QueueBatchSize,
		MaxLen:            c.QueueMaxLen,
		EnableDLQ:         c.QueueEnableDLQ,
	}
}

type Queue struct {
	adapter    redis.RedisAdapter
	config     QueueConfig
	handler    MessageHandler
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	processing map[string]*Message
}

type QueueStats struct {
	TotalMessages   int64
	PendingMessages int64
	ConsumerCount   int64
}

func NewQueue(adapter redis.RedisAdapter, config QueueConfig) (*Queue, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "default-group"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.VisibilityTimeout == 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		adapter:    adapter,
		config:     config,
		ctx:        ctx,
		cancel:     cancel,
		processing: make(map[string]*Message),
	}

	// BUSYGROUP just means another consumer created it first.
	if err := adapter.XGroupCreateMkStream(ctx, config.Name, config.ConsumerGroup, "0"); err != nil &&
		!strings.Contains(err.Error(), "BUSYGROUP") {
		cancel()
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return q, nil
}

func (q *Queue) Name() string {
	return q.config.Name
}

// Publish appends raw data with optional metadata to the stream.
func (q *Queue) Publish(ctx context.Context, data []byte, metadata map[string]string) (string, error) {
	values := map[string]interface{}{
		"data":      string(data),
		"timestamp": time.Now().Unix(),
	}
	for k, v := range metadata {
		values["meta_"+k] = v
	}

	id, err := q.adapter.XAdd(ctx, q.config.Name, q.config.MaxLen, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish message: %w", err)
	}
	return id, nil
}

func (q *Queue) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return q.Publish(ctx, jsonData, metadata)
}

// Consume starts the poll loop in the background.
func (q *Queue) Consume(handler MessageHandler) error {
	if handler == nil {
		return fmt.Errorf("message handler is required")
	}

	q.handler = handler
	q.wg.Add(1)
	go q.consumeLoop()

	return nil
}

func (q *Queue) consumeLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processMessages()
			q.claimStuckMessages()
		}
	}
}

func (q *Queue) processMessages() {
	messages, err := q.adapter.XReadGroup(q.ctx, q.config.ConsumerGroup, q.config.ConsumerName, q.config.Name, q.config.BatchSize)
	if err != nil {
		if !errors.Is(err, redis.NilError) {
			logger.Error("failed to read from stream", "queue", q.config.Name, "error", err)
		}
		return
	}

	for _, streamMsg := range messages {
		q.handleMessage(q.toMessage(streamMsg))
	}
}

// claimStuckMessages takes over entries idle longer than the visibility
// timeout. The pending entry's delivery count becomes Attempts.
func (q *Queue) claimStuckMessages() {
	pending, err := q.adapter.XPending(q.ctx, q.config.Name, q.config.ConsumerGroup)
	if err != nil || pending == nil || pending.Count == 0 {
		return
	}

	pendingExt, err := q.adapter.XPendingExt(q.ctx, q.config.Name, q.config.ConsumerGroup, 100)
	if err != nil || len(pendingExt) == 0 {
		return
	}

	deliveries := make(map[string]int64, len(pendingExt))
	var ids []string
	for _, p := range pendingExt {
		if p.Idle >= q.config.VisibilityTimeout {
			ids = append(ids, p.ID)
			deliveries[p.ID] = p.RetryCount
		}
	}
	if len(ids) == 0 {
		return
	}

	messages, err := q.adapter.XClaim(
		q.ctx,
		q.config.Name,
		q.config.ConsumerGroup,
		q.config.ConsumerName,
		q.config.VisibilityTimeout,
		ids...,
	)
	if err != nil {
		logger.Warn("failed to claim pending messages", "queue", q.config.Name, "error", err)
		return
	}

	for _, streamMsg := range messages {
		msg := q.toMessage(streamMsg)
		msg.Attempts = int(deliveries[msg.ID])
		q.handleMessage(msg)
	}
}

func (q *Queue) handleMessage(msg *Message) {
	q.mu.Lock()
	q.processing[msg.ID] = msg
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		delete(q.processing, msg.ID)
		q.mu.Unlock()
	}()

	if msg.Attempts >= q.config.MaxRetries {
		logger.Warn("message exceeded max retries", "queue", q.config.Name, "id", msg.ID, "attempts", msg.Attempts)
		q.moveToDeadLetterQueue(msg)
		_ = msg.Ack()
		return
	}

	ctx, cancel := context.WithTimeout(q.ctx, q.config.VisibilityTimeout)
	defer cancel()

	if err := q.handler(ctx, msg); err != nil {
		return
	}
	if !msg.acked {
		if err := msg.Ack(); err != nil {
			logger.Error("failed to ack message", "queue", q.config.Name, "id", msg.ID, "error", err)
		}
	}
}

func (q *Queue) ackMessage(messageID string) error {
	// acks must land even while Stop drains in-flight messages
	return q.adapter.XAck(context.WithoutCancel(q.ctx), q.config.Name, q.config.ConsumerGroup, messageID)
}

func (q *Queue) DeadLetterName() string {
	return q.config.Name + ":dlq"
}

func (q *Queue) moveToDeadLetterQueue(msg *Message) {
	if !q.config.EnableDLQ {
		return
	}

	values := map[string]interface{}{
		"data":           string(msg.Data),
		"original_id":    msg.ID,
		"attempts":       msg.Attempts,
		"failed_at":      time.Now().Unix(),
		"original_queue": q.config.Name,
	}
	for k, v := range msg.Metadata {
		values["meta_"+k] = v
	}

	if _, err := q.adapter.XAdd(context.WithoutCancel(q.ctx), q.DeadLetterName(), q.config.MaxLen, values); err != nil {
		logger.Error("failed to move message to dead letter queue", "queue", q.config.Name, "id", msg.ID, "error", err)
	}
}

func (q *Queue) toMessage(streamMsg redis.StreamMessage) *Message {
	msg := &Message{
		ID:       streamMsg.ID,
		Metadata: make(map[string]string),
		queue:    q,
	}

	for k, v := range streamMsg.Values {
		s, _ := v.(string)
		switch {
		case k == "data":
			msg.Data = []byte(s)
		case k == "timestamp":
			if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
				msg.Timestamp = time.Unix(unix, 0)
			}
		case strings.HasPrefix(k, "meta_"):
			msg.Metadata[strings.TrimPrefix(k, "meta_")] = s
		}
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	return msg
}

func (q *Queue) Stop(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for queue to stop")
	}
}

// GetStats reads the stream length and pending count. It works before Consume
// and after Stop.
func (q *Queue) GetStats(ctx context.Context) (*QueueStats, error) {
	total, err := q.adapter.XLen(ctx, q.config.Name)
	if err != nil {
		return nil, err
	}

	stats := &QueueStats{TotalMessages: total}
	if pending, err := q.adapter.XPending(ctx, q.config.Name, q.config.ConsumerGroup); err == nil && pending != nil {
		stats.PendingMessages = pending.Count
		stats.ConsumerCount = int64(len(pending.Consumers))
	}

	return stats, nil
}
