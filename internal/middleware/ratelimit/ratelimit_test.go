package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, rpm, burst int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: rpm, Burst: burst})
	t.Cleanup(rl.Stop)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiterAllowsBurstThenRefills(t *testing.T) {
	rl, now := newTestLimiter(t, 60, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.1.1.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("fourth request should be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("other clients have their own bucket")
	}

	*now = now.Add(time.Second) // 60/min refills one token per second
	if !rl.Allow("1.1.1.1") {
		t.Fatal("token should have been refilled")
	}

	if m := rl.GetMetrics(); m.TotalHits != 1 || m.ClientCount != 2 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestLimiterCleanup(t *testing.T) {
	rl, now := newTestLimiter(t, 60, 1)
	rl.Allow("1.1.1.1")
	*now = now.Add(11 * time.Minute)
	rl.Allow("2.2.2.2")

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("cleanupStaleEntries() = %d, want 1", removed)
	}
	if m := rl.GetMetrics(); m.ClientCount != 1 {
		t.Fatalf("ClientCount = %d, want 1", m.ClientCount)
	}
}

func TestMiddlewareOnlyLimitsMutations(t *testing.T) {
	rl, _ := newTestLimiter(t, 60, 1)
	h := rl.Middleware(func(*http.Request) string { return "9.9.9.9" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	do := func(method string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/transactions", nil))
		return rec
	}

	if rec := do(http.MethodPost); rec.Code != http.StatusNoContent {
		t.Fatalf("first POST = %d", rec.Code)
	}
	rec := do(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}
	for i := 0; i < 5; i++ {
		if rec := do(http.MethodGet); rec.Code != http.StatusNoContent {
			t.Fatalf("GET should never be limited, got %d", rec.Code)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}
