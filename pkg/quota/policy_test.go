package quota_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobhunterui/cvgen/pkg/quota"
)

// fakeClock returns a fixed time that tests can move forward.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// failingStore simulates an unreachable backend.
type failingStore struct{}

func (failingStore) IncrementAndCheck(ctx context.Context, key string, limit int, window quota.Window) (bool, int, error) {
	return false, 0, quota.ErrStoreUnavailable
}

func (failingStore) Reset(ctx context.Context, key string) error {
	return quota.ErrStoreUnavailable
}

func newTestPolicy(t *testing.T, clock quota.Clock, cfg quota.Config) *quota.Policy {
	t.Helper()

	if cfg.Limits == nil {
		cfg.Limits = map[string]int{"free": 3, "premium": 10}
	}
	if cfg.DefaultTier == "" {
		cfg.DefaultTier = "free"
	}

	policy, err := quota.NewPolicy(quota.NewMemoryStore(), cfg, quota.WithClock(clock))
	require.NoError(t, err)
	return policy
}

func TestPolicyAdmitsUntilLimit(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	policy := newTestPolicy(t, clock, quota.Config{})
	ctx := context.Background()

	for i, wantRemaining := range []int{2, 1, 0} {
		result, err := policy.Check(ctx, "ip:192.0.2.1")
		require.NoError(t, err)
		assert.True(t, result.Admitted, "request %d should be admitted", i+1)
		assert.False(t, result.Degraded)
		assert.Equal(t, wantRemaining, result.Remaining)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), result.ResetAt)
		assert.Zero(t, result.RetryAfter)
	}

	result, err := policy.Check(ctx, "ip:192.0.2.1")
	require.NoError(t, err)
	assert.False(t, result.Admitted, "4th request should be denied")
	assert.False(t, result.Degraded)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, 12*time.Hour, result.RetryAfter)
}

func TestPolicyPeriodRollover(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)}
	policy := newTestPolicy(t, clock, quota.Config{Limits: map[string]int{"free": 1}, DefaultTier: "free"})
	ctx := context.Background()

	result, err := policy.Check(ctx, "ip:192.0.2.1")
	require.NoError(t, err)
	require.True(t, result.Admitted)

	result, err = policy.Check(ctx, "ip:192.0.2.1")
	require.NoError(t, err)
	require.False(t, result.Admitted)
	assert.Equal(t, time.Minute, result.RetryAfter)

	// Crossing midnight starts a fresh allowance.
	clock.now = clock.now.Add(2 * time.Minute)

	result, err = policy.Check(ctx, "ip:192.0.2.1")
	require.NoError(t, err)
	assert.True(t, result.Admitted)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), result.ResetAt)
}

func TestPolicyTierSelectsLimit(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	policy := newTestPolicy(t, clock, quota.Config{})
	ctx := context.Background()

	result, err := policy.CheckTier(ctx, "id:alice", "premium")
	require.NoError(t, err)
	assert.Equal(t, 10, result.Limit)
	assert.Equal(t, 9, result.Remaining)

	// Unknown tiers fall back to the default limit, but the consumption
	// already counted for the key still applies.
	result, err = policy.CheckTier(ctx, "id:alice", "platinum")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Limit)
	assert.Equal(t, 1, result.Remaining)
}

func TestPolicyTimezoneBoundaries(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:00 UTC on June 2 is still 23:00 June 1 in New York.
	clock := &fakeClock{now: time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)}
	policy := newTestPolicy(t, clock, quota.Config{Location: loc})

	result, err := policy.Check(context.Background(), "ip:192.0.2.1")
	require.NoError(t, err)
	assert.True(t, result.Admitted)
	assert.True(t, result.ResetAt.Equal(time.Date(2025, 6, 2, 0, 0, 0, 0, loc)),
		"reset boundary should be midnight in the configured zone, got %v", result.ResetAt)
}

func TestPolicyFailClosed(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)}
	policy, err := quota.NewPolicy(failingStore{}, quota.Config{
		Limits:      map[string]int{"free": 5},
		DefaultTier: "free",
	}, quota.WithClock(clock))
	require.NoError(t, err)

	result, err := policy.Check(context.Background(), "ip:192.0.2.1")
	require.NoError(t, err, "store failures must not surface as errors")
	assert.False(t, result.Admitted)
	assert.True(t, result.Degraded, "degraded denial must be distinguishable from exhaustion")
	assert.Equal(t, 6*time.Hour, result.RetryAfter)
}

func TestPolicyFailOpen(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)}
	policy, err := quota.NewPolicy(failingStore{}, quota.Config{
		Limits:      map[string]int{"free": 5},
		DefaultTier: "free",
		FailOpen:    true,
	}, quota.WithClock(clock))
	require.NoError(t, err)

	result, err := policy.Check(context.Background(), "ip:192.0.2.1")
	require.NoError(t, err)
	assert.True(t, result.Admitted)
	assert.True(t, result.Degraded)
	assert.Equal(t, 5, result.Remaining, "remaining is unknown and reported as the full limit")
}

func TestPolicyContextCancelled(t *testing.T) {
	t.Parallel()

	policy := newTestPolicy(t, quota.SystemClock(), quota.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := policy.Check(ctx, "ip:192.0.2.1")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPolicyValidation(t *testing.T) {
	t.Parallel()

	valid := quota.Config{Limits: map[string]int{"free": 5}, DefaultTier: "free"}

	tests := []struct {
		name  string
		store quota.Store
		cfg   quota.Config
	}{
		{
			name: "nil store",
			cfg:  valid,
		},
		{
			name:  "empty limits",
			store: quota.NewMemoryStore(),
			cfg:   quota.Config{DefaultTier: "free"},
		},
		{
			name:  "non-positive limit",
			store: quota.NewMemoryStore(),
			cfg:   quota.Config{Limits: map[string]int{"free": 0}, DefaultTier: "free"},
		},
		{
			name:  "default tier without a limit",
			store: quota.NewMemoryStore(),
			cfg:   quota.Config{Limits: map[string]int{"premium": 10}, DefaultTier: "free"},
		},
		{
			name:  "period too short",
			store: quota.NewMemoryStore(),
			cfg:   quota.Config{Limits: map[string]int{"free": 5}, DefaultTier: "free", Period: time.Millisecond},
		},
		{
			name:  "period too long",
			store: quota.NewMemoryStore(),
			cfg:   quota.Config{Limits: map[string]int{"free": 5}, DefaultTier: "free", Period: 48 * time.Hour},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := quota.NewPolicy(tt.store, tt.cfg)
			assert.ErrorIs(t, err, quota.ErrInvalidConfig)
		})
	}
}
