package redis

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var NilError = goredis.Nil

type Options = goredis.UniversalOptions

// StreamMessage is one entry read from a Redis stream.
type StreamMessage struct {
	ID     string
	Values map[string]interface{}
}

type RedisAdapter interface {
	// Keys are stored under the adapter prefix.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
	Exist(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
	Client() goredis.UniversalClient

	// Streams
	XAdd(ctx context.Context, stream string, maxLen int64, values map[string]interface{}) (string, error)
	XReadGroup(ctx context.Context, group, consumer, stream string, count int64) ([]StreamMessage, error)
	XAck(ctx context.Context, stream, group string, ids ...string) error
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) error
	XLen(ctx context.Context, stream string) (int64, error)
	XPending(ctx context.Context, stream, group string) (*goredis.XPending, error)
	XPendingExt(ctx context.Context, stream, group string, count int64) ([]goredis.XPendingExt, error)
	XClaim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, ids ...string) ([]StreamMessage, error)
}

type redisAdapter struct {
	prefix   string
	Conn     goredis.UniversalClient
	ConnName string
}

var redisLock = &sync.RWMutex{}
var redisInstance map[string]RedisAdapter

// NewRedisAdapter returns the adapter registered under connName, dialing
// and pinging a new client the first time the name is seen.
func NewRedisAdapter(connName string, keysPrefix string, opts *goredis.UniversalOptions) (RedisAdapter, error) {
	redisLock.RLock()
	if redisInstance != nil {
		if adapter, ok := redisInstance[connName]; ok {
			redisLock.RUnlock()
			return adapter, nil
		}
	}
	redisLock.RUnlock()

	c := goredis.NewUniversalClient(opts)
	if cmd := c.Ping(context.Background()); cmd.Err() != nil {
		return nil, cmd.Err()
	}

	adapter := &redisAdapter{
		Conn:     c,
		prefix:   keysPrefix,
		ConnName: connName,
	}

	redisLock.Lock()
	defer redisLock.Unlock()
	if redisInstance == nil {
		redisInstance = make(map[string]RedisAdapter)
	}
	if existing, ok := redisInstance[connName]; ok {
		_ = c.Close()
		return existing, nil
	}
	redisInstance[connName] = adapter

	return adapter, nil
}

func (r *redisAdapter) key(k string) string {
	return r.prefix + k
}

func (r *redisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.Conn.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *redisAdapter) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return r.Conn.SetNX(ctx, r.key(key), value, ttl).Result()
}

// Get returns NilError for a missing key.
func (r *redisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	return r.Conn.Get(ctx, r.key(key)).Bytes()
}

func (r *redisAdapter) Del(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	return r.Conn.Del(ctx, prefixed...).Err()
}

func (r *redisAdapter) Exist(ctx context.Context, key string) (bool, error) {
	n, err := r.Conn.Exists(ctx, r.key(key)).Result()
	return n > 0, err
}

func (r *redisAdapter) Ping(ctx context.Context) error {
	return r.Conn.Ping(ctx).Err()
}

func (r *redisAdapter) Client() goredis.UniversalClient {
	return r.Conn
}

// XAdd appends an entry, trimming the stream to roughly maxLen when maxLen > 0.
func (r *redisAdapter) XAdd(ctx context.Context, stream string, maxLen int64, values map[string]interface{}) (string, error) {
	args := &goredis.XAddArgs{
		Stream: r.key(stream),
		ID:     "*",
		Values: values,
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}
	return r.Conn.XAdd(ctx, args).Result()
}

// XReadGroup reads new entries for the consumer without blocking; an empty
// stream yields NilError.
func (r *redisAdapter) XReadGroup(ctx context.Context, group, consumer, stream string, count int64) ([]StreamMessage, error) {
	res, err := r.Conn.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{r.key(stream), ">"},
		Count:    count,
		Block:    -1,
	}).Result()
	if err != nil {
		return nil, err
	}

	var messages []StreamMessage
	for _, s := range res {
		messages = append(messages, toStreamMessages(s.Messages)...)
	}
	return messages, nil
}

func (r *redisAdapter) XAck(ctx context.Context, stream, group string, ids ...string) error {
	return r.Conn.XAck(ctx, r.key(stream), group, ids...).Err()
}

func (r *redisAdapter) XGroupCreateMkStream(ctx context.Context, stream, group, start string) error {
	return r.Conn.XGroupCreateMkStream(ctx, r.key(stream), group, start).Err()
}

func (r *redisAdapter) XLen(ctx context.Context, stream string) (int64, error) {
	return r.Conn.XLen(ctx, r.key(stream)).Result()
}

func (r *redisAdapter) XPending(ctx context.Context, stream, group string) (*goredis.XPending, error) {
	return r.Conn.XPending(ctx, r.key(stream), group).Result()
}

// XPendingExt lists up to count pending entries of the group, oldest first.
func (r *redisAdapter) XPendingExt(ctx context.Context, stream, group string, count int64) ([]goredis.XPendingExt, error) {
	return r.Conn.XPendingExt(ctx, &goredis.XPendingExtArgs{
		Stream: r.key(stream),
		Group:  group,
		Start:  "-",
		End:    "+",
		Count:  count,
	}).Result()
}

func (r *redisAdapter) XClaim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, ids ...string) ([]StreamMessage, error) {
	res, err := r.Conn.XClaim(ctx, &goredis.XClaimArgs{
		Stream:   r.key(stream),
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		return nil, err
	}
	return toStreamMessages(res), nil
}

func toStreamMessages(in []goredis.XMessage) []StreamMessage {
	out := make([]StreamMessage, 0, len(in))
	for _, m := range in {
		out = append(out, StreamMessage{ID: m.ID, Values: m.Values})
	}
	return out
}
