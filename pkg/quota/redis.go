package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript performs the limit check and conditional increment as one
// atomic server-side operation. The counter key is created on first
// increment with an absolute expiry, so the period reset is a TTL instead
// of an explicit rollover comparison. A denied call never increments, so
// the stored count can never pass the limit.
//
// KEYS[1] = counter key, ARGV[1] = limit, ARGV[2] = expiry (unix millis).
var incrScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count >= tonumber(ARGV[1]) then
	return {0, count}
end
count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIREAT', KEYS[1], tonumber(ARGV[2]))
end
return {1, count}
`)

// RedisStore implements Store on a shared Redis instance, making the
// counter consistent across multiple service instances.
type RedisStore struct {
	client      redis.UniversalClient
	keyPrefix   string
	opTimeout   time.Duration
	expiryGrace time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix sets the namespace prefix for counter keys.
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.keyPrefix = prefix
		}
	}
}

// WithRedisOpTimeout bounds each store call. A call that does not complete
// within the timeout is reported as ErrStoreUnavailable.
func WithRedisOpTimeout(timeout time.Duration) RedisStoreOption {
	return func(rs *RedisStore) {
		if timeout > 0 {
			rs.opTimeout = timeout
		}
	}
}

// WithRedisExpiryGrace sets how long counter keys outlive their window.
// The grace keeps recently-expired counters inspectable for debugging.
func WithRedisExpiryGrace(grace time.Duration) RedisStoreOption {
	return func(rs *RedisStore) {
		if grace >= 0 {
			rs.expiryGrace = grace
		}
	}
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrInvalidConfig)
	}

	rs := &RedisStore{
		client:      client,
		keyPrefix:   "cvgen:quota",
		opTimeout:   2 * time.Second,
		expiryGrace: 24 * time.Hour,
	}

	for _, opt := range opts {
		opt(rs)
	}

	return rs, nil
}

// IncrementAndCheck applies one request against the shared counter.
func (rs *RedisStore) IncrementAndCheck(ctx context.Context, key string, limit int, window Window) (bool, int, error) {
	ctx, cancel := context.WithTimeout(ctx, rs.opTimeout)
	defer cancel()

	expireAt := window.End.Add(rs.expiryGrace).UnixMilli()

	res, err := incrScript.Run(ctx, rs.client, []string{rs.counterKey(key, window)}, limit, expireAt).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("%w: unexpected script reply of length %d", ErrStoreUnavailable, len(res))
	}

	return res[0] == 1, int(res[1]), nil
}

// Reset removes all counter state for key in the current and recent windows.
// Reset is an administrative operation; it scans within the key's namespace
// only and does not block concurrent increments on other keys.
func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, rs.opTimeout)
	defer cancel()

	var cursor uint64
	pattern := rs.keyPrefix + ":" + key + ":*"
	for {
		keys, next, err := rs.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if len(keys) > 0 {
			if err := rs.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Healthcheck verifies Redis connectivity.
func (rs *RedisStore) Healthcheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, rs.opTimeout)
	defer cancel()

	if err := rs.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// counterKey namespaces the counter by window start so a new window always
// begins from a fresh key and stale keys age out via TTL.
func (rs *RedisStore) counterKey(key string, window Window) string {
	return rs.keyPrefix + ":" + key + ":" + strconv.FormatInt(window.Start.Unix(), 10)
}
