package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finapp/internal/log"
)

func TestMiddlewareRequestIDAndRoute(t *testing.T) {
	type observation struct {
		method, route string
		status        int
	}
	var seen []observation

	mux := http.NewServeMux()
	var ctxID string
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetRequestID(r.Context())
		if log.FromContext(r.Context()) == nil {
			t.Error("expected a context logger")
		}
		w.WriteHeader(http.StatusTeapot)
	})

	m := NewMiddleware(log.Discard(), func(*http.Request) string { return "127.0.0.1" },
		func(method, route string, status int, _ time.Duration) {
			seen = append(seen, observation{method, route, status})
		})
	h := m.Middleware(mux)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	id := rr.Header().Get(HeaderRequestID)
	if !strings.HasPrefix(id, "req_") {
		t.Fatalf("request id = %q", id)
	}
	if ctxID != id {
		t.Errorf("context id %q != header id %q", ctxID, id)
	}

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set(HeaderRequestID, "upstream-1")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get(HeaderRequestID); got != "upstream-1" {
		t.Errorf("incoming request id not kept: %q", got)
	}

	want := []observation{
		{http.MethodGet, "GET /items/{id}", http.StatusTeapot},
		{http.MethodGet, unmatchedRoute, http.StatusNotFound},
	}
	if len(seen) != len(want) {
		t.Fatalf("observations = %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("observation %d = %+v, want %+v", i, seen[i], want[i])
		}
	}
	if m.TotalRequests() != 2 {
		t.Errorf("TotalRequests() = %d", m.TotalRequests())
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b {
		t.Fatalf("ids should differ: %s", a)
	}
}
