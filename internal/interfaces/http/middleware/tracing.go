package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps the request ID copied onto spans
const MaxRequestIDLength = 128

// Tracing starts a server span per request through otelgin.
// Span names follow "METHOD route", e.g. "PATCH /api/v1/orders/:id/status".
// The SSE stream is not traced: its span would stay open for the life of the connection.
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return !strings.HasSuffix(r.URL.Path, "/stream")
		}),
	)
}

// TraceRequestID tags the active span with the request ID. Register it after Tracing and RequestID.
func TraceRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				if len(id) > MaxRequestIDLength {
					id = id[:MaxRequestIDLength]
				}
				span.SetAttributes(attribute.String("request_id", id))
			}
		}
		c.Next()
	}
}
