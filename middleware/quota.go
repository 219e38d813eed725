package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/jobhunterui/cvgen/core/logger"
	"github.com/jobhunterui/cvgen/core/response"
	"github.com/jobhunterui/cvgen/pkg/identity"
	"github.com/jobhunterui/cvgen/pkg/quota"
)

// quotaResultContextKey is used as a key for storing the admission result
// in the request context.
type quotaResultContextKey struct{}

// QuotaConfig configures the admission middleware.
type QuotaConfig struct {
	// Skip defines a function to skip admission for specific requests
	Skip func(r *http.Request) bool

	// Policy is the quota policy to apply (required).
	Policy *quota.Policy

	// Resolver derives the client key and tier (default: identity.NewResolver()).
	Resolver *identity.Resolver

	// Logger records denials and degraded decisions (default: slog.Default()).
	Logger *slog.Logger

	// Metrics counts admission decisions when set.
	Metrics *QuotaMetrics
}

// Quota creates the admission middleware. For every request it resolves
// the client identity, evaluates the quota policy, and either forwards the
// request with the admission result in the context or short-circuits with
// a structured rejection carrying Retry-After.
//
// The middleware holds no state of its own; it is a composition point.
// Panics if no policy is provided.
func Quota(cfg QuotaConfig) func(http.Handler) http.Handler {
	if cfg.Policy == nil {
		panic("quota middleware: policy is required")
	}
	if cfg.Resolver == nil {
		cfg.Resolver = identity.NewResolver()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := cfg.Resolver.ClientKey(r)
			tier := cfg.Resolver.Tier(r)

			result, err := cfg.Policy.CheckTier(r.Context(), key, tier)
			if err != nil {
				// Only context cancellation reaches here; the client is gone.
				response.Error(w, response.ErrServiceUnavailable.WithError(err))
				return
			}

			cfg.Metrics.observe(result)
			setQuotaHeaders(w, result)

			switch {
			case result.Degraded && !result.Admitted:
				// Fail-closed with the store down. Not the client's fault and
				// not quota exhaustion; tell them to come back soon rather
				// than at the period boundary.
				cfg.Logger.ErrorContext(r.Context(), "request denied, quota store degraded",
					logger.Component("quota"),
					logger.ClientKey(key))
				response.Error(w, response.ErrServiceUnavailable.WithMessage(
					"Service temporarily unavailable. Please try again later."))
				return

			case !result.Admitted:
				// Expected exhaustion, not an error condition.
				cfg.Logger.InfoContext(r.Context(), "request denied, daily quota exhausted",
					logger.Component("quota"),
					logger.ClientKey(key),
					slog.Int("limit", result.Limit))
				response.Error(w, response.ErrTooManyRequests.
					WithMessage("Daily limit reached. Please try again tomorrow.").
					WithDetails(map[string]any{
						"limit":       result.Limit,
						"retry_after": retryAfterSeconds(result),
					}))
				return
			}

			if result.Degraded {
				cfg.Logger.WarnContext(r.Context(), "request admitted with quota store degraded",
					logger.Component("quota"),
					logger.ClientKey(key))
			}

			ctx := context.WithValue(r.Context(), quotaResultContextKey{}, result)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetQuotaResult retrieves the admission result from the request context.
// Returns the result and a boolean indicating whether it was found.
func GetQuotaResult(ctx context.Context) (*quota.Result, bool) {
	result, ok := ctx.Value(quotaResultContextKey{}).(*quota.Result)
	return result, ok
}

// setQuotaHeaders adds standard rate limiting headers to the response:
// X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, and
// Retry-After when the request was denied.
func setQuotaHeaders(w http.ResponseWriter, result *quota.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

	if !result.Admitted && result.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result)))
	}
}

// retryAfterSeconds rounds the retry delay up so clients never retry
// before the boundary.
func retryAfterSeconds(result *quota.Result) int {
	return int(math.Ceil(result.RetryAfter.Seconds()))
}
