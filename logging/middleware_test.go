package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func newCapturingLogger(out *strings.Builder) *slog.Logger {
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestLoggingMiddlewareSkipsProbes(t *testing.T) {
	var logOutput strings.Builder
	handler := LoggingMiddleware(newCapturingLogger(&logOutput))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			logOutput.Reset()
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			if rr.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rr.Code)
			}
			if logs := logOutput.String(); logs != "" {
				t.Errorf("expected no logs for %s, got: %s", path, logs)
			}
		})
	}
}

func TestLoggingMiddlewareLogsRequests(t *testing.T) {
	var logOutput strings.Builder
	handler := LoggingMiddleware(newCapturingLogger(&logOutput))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"severity":"MILD"}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/diagnosis", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-789"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	logs := logOutput.String()
	for _, expected := range []string{"HTTP request", "level=INFO", "path=/v1/diagnosis", "request_id=test-789", "bytes_written=19"} {
		if !strings.Contains(logs, expected) {
			t.Errorf("log should contain %q, got: %s", expected, logs)
		}
	}
	if strings.Contains(logs, "query=") {
		t.Errorf("log should not contain 'query=' when empty, got: %s", logs)
	}
}

func TestLoggingMiddlewareRequestIDFallback(t *testing.T) {
	var logOutput strings.Builder
	handler := LoggingMiddleware(newCapturingLogger(&logOutput))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/v1/supplements?formulation=DROPS", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, 12345))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	logs := logOutput.String()
	if !strings.Contains(logs, "request_id=unknown") {
		t.Errorf("log should contain request_id=unknown for non-string ID, got: %s", logs)
	}
	if !strings.Contains(logs, `query="formulation=DROPS"`) {
		t.Errorf("log should contain the query, got: %s", logs)
	}
}

func TestLoggingMiddlewareLevelFollowsStatus(t *testing.T) {
	testCases := []struct {
		status   int
		expected string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusUnprocessableEntity, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tc := range testCases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			var logOutput strings.Builder
			handler := LoggingMiddleware(newCapturingLogger(&logOutput))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/puno", nil))

			logs := logOutput.String()
			if !strings.Contains(logs, tc.expected) {
				t.Errorf("expected %s, got: %s", tc.expected, logs)
			}
		})
	}
}
