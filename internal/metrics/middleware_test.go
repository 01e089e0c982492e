package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const fetchRoute = "/fetch_reddit_content"

func newFetchRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get(fetchRoute, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// durationSamples reads the request histogram's sample count for one route label.
func durationSamples(t *testing.T, method, route string) uint64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "http_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["method"] == method && labels["route"] == route {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestMiddlewareLabelsFetchRoute(t *testing.T) {
	Init()
	router := newFetchRouter()

	okBefore := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "200"))
	badBefore := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "400"))
	routeBefore := durationSamples(t, http.MethodGet, fetchRoute)

	// Query strings never leak into the route label.
	for _, target := range []string{
		fetchRoute + "?url=https%3A%2F%2Fwww.reddit.com%2Fcomments%2Fabc",
		fetchRoute + "?url=https%3A%2F%2Fredd.it%2Fxyz",
		fetchRoute,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	}

	require.InDelta(t, okBefore+2, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "200")), 0)
	require.InDelta(t, badBefore+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "400")), 0)
	require.Equal(t, routeBefore+3, durationSamples(t, http.MethodGet, fetchRoute))
}

func TestMiddlewareLabelsUnmatchedPathsUnknown(t *testing.T) {
	Init()
	router := newFetchRouter()

	unknownBefore := durationSamples(t, http.MethodGet, "unknown")
	notFoundBefore := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "404"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/r/golang/comments/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, unknownBefore+1, durationSamples(t, http.MethodGet, "unknown"))
	require.InDelta(t, notFoundBefore+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "404")), 0)
	require.Zero(t, durationSamples(t, http.MethodGet, "/r/golang/comments/abc"))
}
