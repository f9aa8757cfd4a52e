package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveSubmission("create", "success")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), "hoa_dues_submissions_total"))
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/dues/{id}")

	req := httptest.NewRequest(http.MethodGet, "/dues/abc", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusTeapot, rr.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("/dues/{id}", "418")))
}

func TestSubmissionAndPaymentCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveSubmission("update", "DuplicateDue")
	metrics.ObserveSubmission("update", "DuplicateDue")
	metrics.ObservePayment("PARTIAL")

	require.Equal(t, float64(2), testutil.ToFloat64(metrics.submissions.WithLabelValues("update", "DuplicateDue")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.payments.WithLabelValues("PARTIAL")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveSubmission("create", "success")
	metrics.ObservePayment("PAID")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
