package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vinamind/tamsu-api/pkg/logging"
)

func TestRequestLoggerPassesThrough(t *testing.T) {
	mw := RequestLogger(logging.Default())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected handler to be called")
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
}

func TestStatusRecorderKeepsFlusher(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	if _, ok := interface{}(sr).(http.Flusher); !ok {
		t.Fatal("wrapped writer must still support flushing for SSE")
	}
	sr.Flush()
	if !rec.Flushed {
		t.Fatal("flush did not reach the underlying writer")
	}
}
