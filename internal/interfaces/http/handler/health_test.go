package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func() error

func (f pingFunc) Ping() error { return f() }

func TestHealthHandler(t *testing.T) {
	store, _ := newTestStore(t, sampleOrders())
	h := NewHealthHandler("bakery-orders", store)
	var dbErr error
	h.AddCheck("journal", pingFunc(func() error { return dbErr }))

	engine := newEngine()
	engine.GET("/health", h.Live)
	engine.GET("/ready", h.Ready)

	w := performRequest(engine, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var live HealthResponse
	decodeData(t, w, &live)
	assert.Equal(t, "healthy", live.Status)
	assert.Equal(t, "bakery-orders", live.Name)
	assert.False(t, live.Loaded)

	w = performRequest(engine, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeServiceUnavailable, decodeResponse(t, w).Error.Code)

	loadStore(t, store)
	w = performRequest(engine, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ready HealthResponse
	decodeData(t, w, &ready)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, map[string]string{"journal": "ok"}, ready.Checks)

	dbErr = errors.New("connection refused")
	w = performRequest(engine, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "error: connection refused")
}
