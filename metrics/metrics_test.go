package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/cafe-server/metrics"
	"github.com/stevemurr/cafe-server/store"
)

var _ store.Observer = (*metrics.Metrics)(nil)

func TestObserveRequest(t *testing.T) {
	m := metrics.New()
	m.ObserveRequest("productos", http.MethodGet, 200, 5*time.Millisecond)
	m.ObserveRequest("productos", http.MethodGet, 200, 5*time.Millisecond)
	m.ObserveRequest("productos", http.MethodPost, 201, time.Millisecond)

	expected := `
# HELP cafe_http_requests_total HTTP requests by route, method and status code.
# TYPE cafe_http_requests_total counter
cafe_http_requests_total{code="200",method="GET",route="productos"} 2
cafe_http_requests_total{code="201",method="POST",route="productos"} 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "cafe_http_requests_total")
	require.NoError(t, err)
}

func TestObserveStore(t *testing.T) {
	m := metrics.New()
	m.ObserveStore("json", "read", nil, time.Millisecond)
	m.ObserveStore("json", "update", errors.New("disk full"), time.Millisecond)

	expected := `
# HELP cafe_store_operations_total Collection store operations by backend, operation and result.
# TYPE cafe_store_operations_total counter
cafe_store_operations_total{backend="json",op="read",result="ok"} 1
cafe_store_operations_total{backend="json",op="update",result="error"} 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "cafe_store_operations_total")
	require.NoError(t, err)
}

func TestObserveStoreDuration(t *testing.T) {
	m := metrics.New()
	m.ObserveStore("json", "read", nil, 2*time.Millisecond)
	m.ObserveStore("json", "read", nil, 200*time.Millisecond)
	m.ObserveStore("sqlite", "update", nil, time.Second)

	n, err := testutil.GatherAndCount(m.Registry(), "cafe_store_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `cafe_store_operation_duration_seconds_count{backend="json",op="read"} 2`)
	assert.Contains(t, body, `cafe_store_operation_duration_seconds_bucket{backend="json",op="read",le="0.005"} 1`)
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.ObserveRequest("health", http.MethodGet, 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cafe_http_requests_total{code="200",method="GET",route="health"} 1`)
}
