package quota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// record holds one client's consumption state for the current window.
type record struct {
	count       int
	windowStart time.Time
	lastAccess  time.Time // Used by the sweep to identify stale records
}

// MemoryStore implements Store using in-process storage. Suitable for a
// single service instance; state is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*record

	// Configuration
	sweepInterval   time.Duration
	staleThreshold  time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// State management
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	// Observability metrics
	recordsCreated atomic.Int64
	recordsEvicted atomic.Int64
}

// MemoryStoreStats provides observability metrics for monitoring and debugging.
type MemoryStoreStats struct {
	RecordsCreated int64 // Total number of records created
	RecordsEvicted int64 // Total number of stale records evicted
	ActiveRecords  int   // Current number of active records
	IsRunning      bool  // Whether the sweep goroutine is running
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets the interval for evicting stale records.
// Set to 0 to disable automatic eviction.
func WithSweepInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.sweepInterval = interval
	}
}

// WithStaleThreshold sets how long a record may go untouched before the
// sweep evicts it. A record whose window has ended is re-created on next
// access anyway, so eviction only bounds memory growth.
func WithStaleThreshold(threshold time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if threshold > 0 {
			ms.staleThreshold = threshold
		}
	}
}

// WithMemoryStoreShutdownTimeout sets the graceful shutdown timeout.
func WithMemoryStoreShutdownTimeout(timeout time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if timeout > 0 {
			ms.shutdownTimeout = timeout
		}
	}
}

// WithMemoryStoreLogger sets the logger for internal operations.
func WithMemoryStoreLogger(logger *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// NewMemoryStore creates a new in-memory store.
// Call Start() to begin background eviction of stale records.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		records:         make(map[string]*record),
		sweepInterval:   10 * time.Minute,
		staleThreshold:  48 * time.Hour,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(ms)
	}

	return ms
}

// IncrementAndCheck applies one request against the counter for key.
// The rollover check, limit comparison, and increment happen under a
// single lock, so concurrent callers on the same key serialize here.
func (ms *MemoryStore) IncrementAndCheck(ctx context.Context, key string, limit int, window Window) (bool, int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	rec, exists := ms.records[key]

	// Lazy creation and lazy rollover: a record from a previous window is
	// replaced on first access in the new window, which is observably
	// equivalent to the count resetting to zero at the boundary.
	if !exists || !rec.windowStart.Equal(window.Start) {
		rec = &record{windowStart: window.Start}
		ms.records[key] = rec
		ms.recordsCreated.Add(1)
	}
	rec.lastAccess = now

	if rec.count >= limit {
		return false, rec.count, nil
	}

	rec.count++
	return true, rec.count, nil
}

// Reset removes the counter state for key, if any.
func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.records, key)
	return nil
}

// Start begins the background eviction goroutine. This is a blocking
// operation that runs until the context is cancelled. Use Run() for
// errgroup pattern or call this in a goroutine.
func (ms *MemoryStore) Start(ctx context.Context) error {
	ms.mu.Lock()
	if ms.cancel != nil {
		ms.mu.Unlock()
		return fmt.Errorf("memory store already started")
	}

	if ms.sweepInterval <= 0 {
		ms.mu.Unlock()
		return fmt.Errorf("sweep interval must be > 0, got %v (use WithSweepInterval to configure)", ms.sweepInterval)
	}

	ms.ctx, ms.cancel = context.WithCancel(ctx)
	ms.mu.Unlock()

	ms.running.Store(true)
	defer ms.running.Store(false)

	ms.logger.InfoContext(ms.ctx, "memory store sweep started",
		slog.Duration("sweep_interval", ms.sweepInterval))

	ticker := time.NewTicker(ms.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.ctx.Done():
			ms.logger.InfoContext(context.Background(), "memory store sweep stopping")
			return ms.ctx.Err()
		case <-ticker.C:
			ms.sweepWithWait()
		}
	}
}

// Stop gracefully shuts down the background eviction with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (ms *MemoryStore) Stop() error {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return fmt.Errorf("memory store not started")
	}

	cancel := ms.cancel
	ms.cancel = nil
	ms.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), ms.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		ms.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ms.logger.InfoContext(context.Background(), "memory store stopped cleanly")
		return nil
	case <-ctx.Done():
		ms.logger.WarnContext(context.Background(), "memory store shutdown timeout exceeded",
			slog.Duration("timeout", ms.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", ms.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the eviction loop, monitors context
// cancellation, and performs graceful shutdown when the context is cancelled.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- ms.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = ms.Stop() // Ignore stop error in normal shutdown
			<-errCh       // Wait for Start() to exit
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// sweepWithWait wraps evictStale so the operation is tracked by the WaitGroup.
func (ms *MemoryStore) sweepWithWait() {
	ms.mu.RLock()
	if ms.cancel == nil {
		ms.mu.RUnlock()
		return
	}
	ms.wg.Add(1)
	ms.mu.RUnlock()

	defer ms.wg.Done()
	ms.evictStale()
}

// evictStale removes records that have not been accessed recently. Expired
// windows are rolled over lazily on access, so the sweep exists only to
// bound memory growth for keys that stop sending requests.
func (ms *MemoryStore) evictStale() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()

	evicted := 0
	for key, rec := range ms.records {
		if now.Sub(rec.lastAccess) > ms.staleThreshold {
			delete(ms.records, key)
			evicted++
		}
	}

	if evicted > 0 {
		ms.recordsEvicted.Add(int64(evicted))
	}
}

// Stats returns current memory store statistics for observability.
// This method is thread-safe and can be called at any time.
func (ms *MemoryStore) Stats() MemoryStoreStats {
	ms.mu.RLock()
	isRunning := ms.cancel != nil
	activeRecords := len(ms.records)
	ms.mu.RUnlock()

	return MemoryStoreStats{
		RecordsCreated: ms.recordsCreated.Load(),
		RecordsEvicted: ms.recordsEvicted.Load(),
		ActiveRecords:  activeRecords,
		IsRunning:      isRunning,
	}
}

// Healthcheck validates that the memory store is operational.
// Returns nil if healthy, or an error describing the health issue.
func (ms *MemoryStore) Healthcheck(ctx context.Context) error {
	stats := ms.Stats()

	if ms.sweepInterval > 0 && !stats.IsRunning {
		return fmt.Errorf("sweep is configured but not running")
	}

	return nil
}
