package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := newLimiter(Config{RequestsPerMinute: 2}, func() time.Time { return now })

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request within the minute should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients are counted separately")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("window should reset after a minute")
	}

	if m := rl.GetMetrics(); m.TotalHits != 1 || m.ClientCount != 2 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := newLimiter(Config{}, func() time.Time { return now })
	rl.Allow("a")
	now = now.Add(11 * time.Minute)
	rl.Allow("b")

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("expected 1 stale entry removed, got %d", removed)
	}
}

func TestMiddlewareOnlyLimitsConfiguredMethods(t *testing.T) {
	cfg := Config{RequestsPerMinute: 1, Methods: []string{http.MethodPost}}
	rl := newLimiter(cfg, time.Now)
	h := rl.Middleware(cfg, func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	codes := make([]int, 0, 4)
	for _, method := range []string{http.MethodPost, http.MethodPost, http.MethodGet, http.MethodGet} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/expenses", nil))
		codes = append(codes, rr.Code)
	}

	want := []int{http.StatusNoContent, http.StatusTooManyRequests, http.StatusNoContent, http.StatusNoContent}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d: got %d, want %d", i, codes[i], want[i])
		}
	}
}
