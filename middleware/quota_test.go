package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobhunterui/cvgen/middleware"
	"github.com/jobhunterui/cvgen/pkg/quota"
)

// failingStore simulates an unreachable backend.
type failingStore struct{}

func (failingStore) IncrementAndCheck(ctx context.Context, key string, limit int, window quota.Window) (bool, int, error) {
	return false, 0, quota.ErrStoreUnavailable
}

func (failingStore) Reset(ctx context.Context, key string) error {
	return quota.ErrStoreUnavailable
}

func newPolicy(t *testing.T, store quota.Store, failOpen bool) *quota.Policy {
	t.Helper()

	policy, err := quota.NewPolicy(store, quota.Config{
		Limits:      map[string]int{"free": 2, "premium": 5},
		DefaultTier: "free",
		FailOpen:    failOpen,
	})
	require.NoError(t, err)
	return policy
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}

func TestQuotaAdmitsUntilLimit(t *testing.T) {
	t.Parallel()

	handler := middleware.Quota(middleware.QuotaConfig{
		Policy: newPolicy(t, quota.NewMemoryStore(), false),
	})(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.RemoteAddr = "192.0.2.1:54321"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i+1)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.RemoteAddr = "192.0.2.1:54321"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code, "3rd request should be denied")
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "too_many_requests", body.Code)
	assert.EqualValues(t, 2, body.Details["limit"])
	assert.Greater(t, body.Details["retry_after"], float64(0))
}

func TestQuotaIsolatesClients(t *testing.T) {
	t.Parallel()

	handler := middleware.Quota(middleware.QuotaConfig{
		Policy: newPolicy(t, quota.NewMemoryStore(), false),
	})(okHandler())

	exhaust := func(remoteAddr string) {
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/generate", nil)
			req.RemoteAddr = remoteAddr
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}
	}
	exhaust("192.0.2.1:1000")

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.RemoteAddr = "192.0.2.2:1000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "another client keeps its own allowance")
}

func TestQuotaTierHeaderSelectsLimit(t *testing.T) {
	t.Parallel()

	handler := middleware.Quota(middleware.QuotaConfig{
		Policy: newPolicy(t, quota.NewMemoryStore(), false),
	})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	req.Header.Set("X-Subscription-Tier", "premium")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
}

func TestQuotaClientIDHeaderKeysQuota(t *testing.T) {
	t.Parallel()

	handler := middleware.Quota(middleware.QuotaConfig{
		Policy: newPolicy(t, quota.NewMemoryStore(), false),
	})(okHandler())

	// Same IP, different explicit IDs: separate allowances.
	for _, id := range []string{"ext-one", "ext-two"} {
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		req.Header.Set("X-Client-ID", id)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestQuotaFailClosedReturns503(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := middleware.NewQuotaMetrics(reg)

	handler := middleware.Quota(middleware.QuotaConfig{
		Policy:  newPolicy(t, failingStore{}, false),
		Metrics: metrics,
	})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "service_unavailable", body.Code,
		"a degraded denial must not look like quota exhaustion")

	expected := `
# HELP cvgen_quota_decisions_total Admission decisions partitioned by outcome.
# TYPE cvgen_quota_decisions_total counter
cvgen_quota_decisions_total{outcome="degraded_denied"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected)))
}

func TestQuotaFailOpenAdmits(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := middleware.NewQuotaMetrics(reg)

	handler := middleware.Quota(middleware.QuotaConfig{
		Policy:  newPolicy(t, failingStore{}, true),
		Metrics: metrics,
	})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	expected := `
# HELP cvgen_quota_decisions_total Admission decisions partitioned by outcome.
# TYPE cvgen_quota_decisions_total counter
cvgen_quota_decisions_total{outcome="degraded_admitted"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected)))
}

func TestQuotaResultInContext(t *testing.T) {
	t.Parallel()

	var got *quota.Result
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, ok := middleware.GetQuotaResult(r.Context())
		require.True(t, ok, "admitted requests must carry the admission result")
		got = result
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.Quota(middleware.QuotaConfig{
		Policy: newPolicy(t, quota.NewMemoryStore(), false),
	})(inner)

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.True(t, got.Admitted)
	assert.Equal(t, 2, got.Limit)
	assert.Equal(t, 1, got.Remaining)
	assert.True(t, got.ResetAt.After(time.Now()), "reset boundary must be in the future")
}

func TestQuotaSkip(t *testing.T) {
	t.Parallel()

	handler := middleware.Quota(middleware.QuotaConfig{
		Policy: newPolicy(t, quota.NewMemoryStore(), false),
		Skip: func(r *http.Request) bool {
			return r.URL.Path == "/health"
		},
	})(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"), "skipped requests get no quota headers")
	}
}

func TestQuotaRequiresPolicy(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		middleware.Quota(middleware.QuotaConfig{})
	})
}
