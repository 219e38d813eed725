package quota

import "context"

// Store is the counter storage contract shared by all backends.
//
// Implementations own the full lifecycle of per-key records: records are
// created lazily on first use, mutated only through IncrementAndCheck, and
// reset when the accounting window changes. The reset may be a lazy
// rollover on next access or a TTL expiry, as long as it is observably
// equivalent to the count dropping to zero at the window boundary.
type Store interface {
	// IncrementAndCheck applies one request against the counter for key
	// within the given window. The window-rollover check, the comparison
	// against limit, and the conditional increment form a single atomic
	// operation per key: concurrent callers can never admit more than
	// limit requests within one window.
	//
	// It returns whether the request was admitted and the counter value
	// after the call. A denied call does not change the counter. Backend
	// failures are reported as errors wrapping ErrStoreUnavailable.
	IncrementAndCheck(ctx context.Context, key string, limit int, window Window) (admitted bool, count int, err error)

	// Reset removes the counter state for key, if any.
	Reset(ctx context.Context, key string) error
}
