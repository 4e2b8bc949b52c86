package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestTracing(t *testing.T) {
	sr := setupTestTracer(t)

	engine := gin.New()
	engine.Use(RequestID(), Tracing("test-service"), TraceRequestID())
	engine.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/orders/stream", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/orders/o-1", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	engine.ServeHTTP(httptest.NewRecorder(), req)

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/stream", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1, "the stream route is filtered out")
	assert.Contains(t, spans[0].Name(), "/orders/:id")

	var requestID string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == attribute.Key("request_id") {
			requestID = kv.Value.AsString()
		}
	}
	assert.Equal(t, "req-42", requestID)
}

func TestTraceRequestID_WithoutSpan(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), TraceRequestID())
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
