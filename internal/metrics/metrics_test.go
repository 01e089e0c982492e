package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if httpRequestsTotal == nil || httpRequestDurationSeconds == nil ||
		fetchTotal == nil || fetchDurationSeconds == nil || fetchCommentsReturned == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveFetch(t *testing.T) {
	ObserveFetch("test-source", OutcomeOK, 10*time.Millisecond, 7)
	ObserveFetch("test-source", OutcomeUpstreamError, 20*time.Millisecond, 0)
	ObserveFetch("test-source", OutcomeUpstreamError, 20*time.Millisecond, 0)

	if val := testutil.ToFloat64(fetchTotal.WithLabelValues("test-source", OutcomeOK)); val != 1 {
		t.Errorf("expected 1 ok fetch, got %f", val)
	}
	if val := testutil.ToFloat64(fetchTotal.WithLabelValues("test-source", OutcomeUpstreamError)); val != 2 {
		t.Errorf("expected 2 upstream errors, got %f", val)
	}
	if val := testutil.CollectAndCount(fetchCommentsReturned); val <= 0 {
		t.Errorf("expected comments histogram to be observed, got %d", val)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveFetch("handler-source", OutcomeFetchError, time.Millisecond, 0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `reddit_fetch_total{outcome="fetch_error",source="handler-source"} 1`) {
		t.Fatalf("expected fetch counter in exposition, got:\n%s", rec.Body.String())
	}
}
