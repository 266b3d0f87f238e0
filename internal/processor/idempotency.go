package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/nimasrn/service-reminders/pkg/redis"
)

var (
	ErrAlreadyProcessed   = errors.New("message already sent")
	ErrLockAcquireFailed  = errors.New("failed to acquire send lock")
	ErrMaxRetriesExceeded = errors.New("maximum send attempts exceeded")
)

type IdempotencyConfig struct {
	// LockTTL bounds how long a crashed consumer blocks a message.
	LockTTL time.Duration
	// ProcessedTTL keeps the sent marker and the attempt counter.
	ProcessedTTL time.Duration
	MaxRetries   int
	KeyPrefix    string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:      30 * time.Second,
		ProcessedTTL: 24 * time.Hour,
		MaxRetries:   3,
		KeyPrefix:    "dispatch:",
	}
}

// IdempotencyService keeps a provider send from happening twice for the
// same reminder message, even when the stream redelivers it.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type ProcessingContext struct {
	MessageID    string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
}

func (s *IdempotencyService) lockKey(id string) string  { return s.config.KeyPrefix + "lock:" + id }
func (s *IdempotencyService) sentKey(id string) string  { return s.config.KeyPrefix + "sent:" + id }
func (s *IdempotencyService) retryKey(id string) string { return s.config.KeyPrefix + "retry:" + id }

// SentSID returns the provider SID recorded for a message that was
// already handed to the provider.
func (s *IdempotencyService) SentSID(ctx context.Context, messageID string) (string, bool, error) {
	b, err := s.redis.Get(ctx, s.sentKey(messageID))
	if errors.Is(err, redis.NilError) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

func (s *IdempotencyService) AcquireProcessingLock(ctx context.Context, messageID string) (*ProcessingContext, error) {
	exists, err := s.redis.Exist(ctx, s.sentKey(messageID))
	if err != nil {
		logger.Warn("failed to check sent marker", "message_id", messageID, "error", err)
	} else if exists {
		return nil, ErrAlreadyProcessed
	}

	retryCount, err := s.GetRetryCount(ctx, messageID)
	if err != nil {
		logger.Warn("failed to read retry counter", "message_id", messageID, "error", err)
	}
	if retryCount >= s.config.MaxRetries {
		return nil, fmt.Errorf("%w: message_id=%s, retries=%d", ErrMaxRetriesExceeded, messageID, retryCount)
	}

	lockValue := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := s.redis.SetNX(ctx, s.lockKey(messageID), lockValue, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return nil, ErrLockAcquireFailed
	}

	logger.Debug("send lock acquired", "message_id", messageID, "retry_count", retryCount)

	return &ProcessingContext{
		MessageID:    messageID,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
	}, nil
}

// MarkSent stores the provider SID and drops the lock and attempt counter.
func (s *IdempotencyService) MarkSent(ctx context.Context, pc *ProcessingContext, sid string) error {
	if err := s.redis.Set(ctx, s.sentKey(pc.MessageID), []byte(sid), s.config.ProcessedTTL); err != nil {
		return fmt.Errorf("failed to mark as sent: %w", err)
	}

	if err := s.redis.Del(ctx, s.retryKey(pc.MessageID)); err != nil {
		logger.Warn("failed to clean retry counter", "message_id", pc.MessageID, "error", err)
	}
	return s.ReleaseLock(ctx, pc)
}

// MarkFailure counts a failed send attempt and frees the lock for a retry.
func (s *IdempotencyService) MarkFailure(ctx context.Context, pc *ProcessingContext, reason error) error {
	next := pc.RetryCount + 1
	if err := s.redis.Set(ctx, s.retryKey(pc.MessageID), []byte(strconv.Itoa(next)), s.config.ProcessedTTL); err != nil {
		logger.Error("failed to increment retry counter", "message_id", pc.MessageID, "error", err)
	}

	logger.Warn("send attempt failed",
		"message_id", pc.MessageID,
		"retry_count", next,
		"max_retries", s.config.MaxRetries,
		"reason", reason)

	return s.ReleaseLock(ctx, pc)
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, pc *ProcessingContext) error {
	if pc == nil || !pc.lockAcquired {
		return nil
	}
	if err := s.redis.Del(context.WithoutCancel(ctx), s.lockKey(pc.MessageID)); err != nil {
		logger.Warn("failed to release send lock", "message_id", pc.MessageID, "error", err)
		return err
	}
	pc.lockAcquired = false
	return nil
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, messageID string) (int, error) {
	b, err := s.redis.Get(ctx, s.retryKey(messageID))
	if errors.Is(err, redis.NilError) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(b))
}
