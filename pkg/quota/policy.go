package quota

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Config is the immutable policy configuration.
type Config struct {
	// Limits maps subscription tier names to daily request limits.
	// Every limit must be positive.
	Limits map[string]int

	// DefaultTier is the tier applied when a request carries no tier or an
	// unknown one. It must be a key of Limits.
	DefaultTier string

	// Location is the reference time zone for period boundaries
	// (default: UTC). Calendar-aligned boundaries keep all instances in
	// agreement without storing per-client anchor times.
	Location *time.Location

	// Period is the accounting window length (default: 24h). Boundaries
	// are anchored at midnight in Location.
	Period time.Duration

	// FailOpen admits requests when the store is unreachable. When false
	// (the default), such requests are denied and marked Degraded.
	FailOpen bool
}

// Result is the outcome of a single admission check.
type Result struct {
	// Admitted reports whether the request may proceed.
	Admitted bool

	// Degraded is set when the decision was made without the store
	// (store unreachable, fail-open or fail-closed applied). Degraded
	// denials must be distinguished from ordinary quota exhaustion in
	// logs and metrics.
	Degraded bool

	// Remaining is the number of requests left in the current window.
	// Unknown (reported as Limit) for degraded fail-open admissions.
	Remaining int

	// Limit is the daily limit applied to this request.
	Limit int

	// ResetAt is the next period boundary.
	ResetAt time.Time

	// RetryAfter is the time until ResetAt for denied requests, zero otherwise.
	RetryAfter time.Duration
}

// Policy decides whether a request is admitted against its client's daily
// quota. It holds no mutable state; all consumption lives in the Store.
type Policy struct {
	store  Store
	clock  Clock
	cfg    Config
	logger *slog.Logger
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock Clock) PolicyOption {
	return func(p *Policy) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithPolicyLogger sets the logger for degraded-store decisions.
func WithPolicyLogger(logger *slog.Logger) PolicyOption {
	return func(p *Policy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPolicy validates the configuration and creates a Policy. Invalid
// limits are a startup error, never evaluated per request.
func NewPolicy(store Store, cfg Config, opts ...PolicyOption) (*Policy, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if len(cfg.Limits) == 0 {
		return nil, fmt.Errorf("%w: at least one tier limit is required", ErrInvalidConfig)
	}
	for tier, limit := range cfg.Limits {
		if limit <= 0 {
			return nil, fmt.Errorf("%w: limit for tier %q must be positive, got %d", ErrInvalidConfig, tier, limit)
		}
	}
	if _, ok := cfg.Limits[cfg.DefaultTier]; !ok {
		return nil, fmt.Errorf("%w: default tier %q has no configured limit", ErrInvalidConfig, cfg.DefaultTier)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Period == 0 {
		cfg.Period = 24 * time.Hour
	}
	if cfg.Period < time.Second || cfg.Period > 24*time.Hour {
		return nil, fmt.Errorf("%w: period must be between 1s and 24h, got %v", ErrInvalidConfig, cfg.Period)
	}

	p := &Policy{
		store:  store,
		clock:  SystemClock(),
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Check evaluates one request for key at the default tier.
func (p *Policy) Check(ctx context.Context, key string) (*Result, error) {
	return p.CheckTier(ctx, key, p.cfg.DefaultTier)
}

// CheckTier evaluates one request for key at the given subscription tier.
// The tier selects the limit; consumption is tracked per key, so a tier
// change mid-period keeps the client's counted usage.
//
// A non-nil Result is always returned. Store failures are resolved here
// per the fail-open/fail-closed configuration and surface only as
// Result.Degraded; the error return is reserved for context cancellation.
func (p *Policy) CheckTier(ctx context.Context, key, tier string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit, ok := p.cfg.Limits[tier]
	if !ok {
		limit = p.cfg.Limits[p.cfg.DefaultTier]
	}

	now := p.clock.Now()
	window := windowFor(now, p.cfg.Location, p.cfg.Period)

	admitted, count, err := p.store.IncrementAndCheck(ctx, key, limit, window)
	if err != nil {
		return p.degraded(ctx, key, limit, window, now, err), nil
	}

	result := &Result{
		Admitted:  admitted,
		Remaining: max(0, limit-count),
		Limit:     limit,
		ResetAt:   window.End,
	}
	if !admitted {
		result.Remaining = 0
		result.RetryAfter = window.End.Sub(now)
	}

	return result, nil
}

// degraded resolves a store failure into a fail-open or fail-closed result.
func (p *Policy) degraded(ctx context.Context, key string, limit int, window Window, now time.Time, err error) *Result {
	p.logger.WarnContext(ctx, "quota store unavailable",
		slog.String("client_key", key),
		slog.Bool("fail_open", p.cfg.FailOpen),
		slog.Any("error", err))

	if p.cfg.FailOpen {
		// Remaining is unknown without the store; report the full limit.
		return &Result{
			Admitted:  true,
			Degraded:  true,
			Remaining: limit,
			Limit:     limit,
			ResetAt:   window.End,
		}
	}

	return &Result{
		Degraded:   true,
		Limit:      limit,
		ResetAt:    window.End,
		RetryAfter: window.End.Sub(now),
	}
}
