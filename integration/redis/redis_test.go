package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jobhunterui/cvgen/integration/redis"
)

func TestConnectEmptyURL(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
}

func TestConnectInvalidURL(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL: "http://not-a-redis-url",
	})
	assert.ErrorIs(t, err, redis.ErrFailedToParseConnString)
}

func TestConnectUnreachableServer(t *testing.T) {
	t.Parallel()

	// A reserved TEST-NET address: nothing listens there.
	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://192.0.2.1:6379",
		RetryAttempts:  1,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: 200 * time.Millisecond,
	})
	assert.ErrorIs(t, err, redis.ErrNotReady)
}
