package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware()
	var seen string
	h := m.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = FromRequest(r)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("expected generated id, got %q", seen)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "client-42")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen != "client-42" {
		t.Fatalf("expected incoming id to be kept, got %q", seen)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "bad id\nwith newline")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen == "bad id\nwith newline" {
		t.Fatal("malformed incoming id must be replaced")
	}

	if m.TotalRequests() != 3 {
		t.Fatalf("TotalRequests() = %d, want 3", m.TotalRequests())
	}
}
