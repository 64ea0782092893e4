package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/v1/supplements/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/v1/supplements/{id}", "404"))

	for _, id := range []string{"SF-60", "MMN", "UNKNOWN"} {
		req := httptest.NewRequest("GET", "/v1/supplements/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/v1/supplements/{id}", "404"))
	if after-before != 3 {
		t.Errorf("Expected 3 requests on one series, got %v", after-before)
	}

	if inFlight := testutil.ToFloat64(HTTPRequestInFlight); inFlight != 0 {
		t.Errorf("Expected no in-flight requests, got %v", inFlight)
	}
}

func TestMetricsWithoutRouter(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "unmatched", "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/anything", nil))
	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "unmatched", "200"))

	if after-before != 1 {
		t.Errorf("Expected unmatched request to be counted, got %v", after-before)
	}
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(ClassificationsTotal.WithLabelValues("MILD"))
	ClassificationsTotal.WithLabelValues("MILD").Inc()
	if got := testutil.ToFloat64(ClassificationsTotal.WithLabelValues("MILD")) - before; got != 1 {
		t.Errorf("Expected classification counter to increase by 1, got %v", got)
	}

	if n := testutil.CollectAndCount(CatalogReloadsTotal); n < 0 {
		t.Errorf("Unexpected series count %d", n)
	}
}
