package telemetry

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akiliki/arruti-app-sub000/internal/application/orderstore"
)

func newTestMetrics() *Metrics {
	cfg := DefaultConfig()
	cfg.RuntimeCollectors = false
	return NewMetrics(cfg)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "bakery", cfg.Namespace)
	assert.NotEmpty(t, cfg.Buckets)
	assert.True(t, cfg.RuntimeCollectors)
}

func TestMetrics_StoreObservations(t *testing.T) {
	m := newTestMetrics()

	m.ObserveMutation(orderstore.KindUpdateStatus, orderstore.OutcomeConfirmed, 120*time.Millisecond)
	m.ObserveMutation(orderstore.KindUpdateStatus, orderstore.OutcomeConfirmed, 80*time.Millisecond)
	m.ObserveMutation(orderstore.KindAdd, orderstore.OutcomeRolledBack, time.Second)
	m.ObserveRefresh(nil, time.Second)
	m.ObserveRefresh(errors.New("timeout"), 20*time.Second)
	m.SetOrderCount(42)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.mutationsTotal.WithLabelValues("update_status", "confirmed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.mutationsTotal.WithLabelValues("add", "rolled_back")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.refreshTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.refreshTotal.WithLabelValues("error")))
	assert.Equal(t, float64(42), testutil.ToFloat64(m.orders))
	assert.Equal(t, 2, testutil.CollectAndCount(m.mutationDuration))
}

func TestMetrics_GatewayAndStream(t *testing.T) {
	m := newTestMetrics()

	m.ObserveGatewayRequest("updateStatus", "ok", 300*time.Millisecond)
	m.ObserveGatewayRequest("updateStatus", "remote", 200*time.Millisecond)
	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.gatewayRequests.WithLabelValues("updateStatus", "remote")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.streamClients))
}

func TestMetrics_GinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestMetrics()

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/api/v1/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders/o1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/orders/:id", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bakery_http_requests_total{method="GET",route="/api/v1/orders/:id",status="404"} 1`)
}
