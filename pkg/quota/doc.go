// Package quota provides daily request-quota tracking with pluggable
// counter storage backends.
//
// Unlike token-bucket rate limiting, a quota counts consumed requests in
// fixed calendar-aligned periods (one day by default) and resets the count
// at each period boundary. The package is built around three pieces:
//
//   - Store: an atomic increment-and-check counter keyed by client. Two
//     implementations are provided: MemoryStore for single-instance
//     deployments and RedisStore for multi-instance deployments where the
//     counter must be shared.
//   - Clock: the time source used to compute the current accounting
//     period. Injected so that period rollover is testable.
//   - Policy: combines a Store, a Clock, and configured per-tier limits
//     into an admit/deny decision with remaining-quota metadata.
//
// # Usage
//
// Single-instance setup with an in-memory counter:
//
//	store := quota.NewMemoryStore()
//
//	policy, err := quota.NewPolicy(store, quota.Config{
//		Limits:      map[string]int{"free": 5, "premium": 50},
//		DefaultTier: "free",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := policy.Check(ctx, clientKey)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if !result.Admitted {
//		log.Printf("quota exhausted, retry after %v", result.RetryAfter)
//		return
//	}
//	log.Printf("admitted, %d of %d remaining", result.Remaining, result.Limit)
//
// Multi-instance deployments swap the store without touching callers:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	store, err := quota.NewRedisStore(client)
//
// # Admission semantics
//
// The counting discipline is admit-then-increment: a request is admitted
// if and only if the counter was below the limit at the moment of the
// atomic check, and the Nth request of a limit of N is admitted while the
// N+1th is denied. Both stores guarantee that concurrent callers racing on
// the same key never admit more than the limit within one period.
//
// When the backing store is unreachable the Policy applies the configured
// fail-open or fail-closed behavior and marks the Result as Degraded so
// callers can tell an unavailable store apart from an exhausted quota.
// Quota is charged on admission: a downstream failure after admission does
// not refund the consumed request.
package quota
