package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/application/orderstore"
	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/gateway"
	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/dto"
	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var testNow = time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC)

func sampleOrders() []production.Order {
	created := testNow.Add(-24 * time.Hour)
	return []production.Order{
		{
			ID: "o-1", GroupID: "g-1", Product: "Tarta de queso", Family: "Tartas", Size: "6 raciones",
			Quantity: 1, DeliveryAt: testNow.Add(2 * time.Hour), Status: production.StatusPending,
			CustomerName: "Miren", CreatedAt: created,
		},
		{
			ID: "o-2", GroupID: "g-1", Product: "Croissant", Family: "Bollería", Size: "Normal", Filling: "Chocolate",
			Quantity: 12, DeliveryAt: testNow.Add(2 * time.Hour), Status: production.StatusInProgress,
			CustomerName: "Miren", CreatedAt: created,
		},
		{
			ID: "o-3", Product: "Pastel vasco", Family: "Tartas", Size: "Grande", Filling: "Crema",
			Quantity: 2, DeliveryAt: testNow.Add(7 * time.Hour), Status: production.StatusDone,
			CustomerName: "Josu", CreatedAt: created,
		},
	}
}

// newTestStore builds a store over a demo gateway holding orders
func newTestStore(t *testing.T, orders []production.Order) (*orderstore.Store, *gateway.DemoGateway) {
	t.Helper()
	gw := gateway.NewDemoGateway()
	gw.SetOrders(orders)
	store := orderstore.New(gw, orderstore.WithClock(func() time.Time { return testNow }))
	return store, gw
}

func loadStore(t *testing.T, store *orderstore.Store) {
	t.Helper()
	require.NoError(t, store.Load(context.Background()))
}

func newEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	return engine
}

func performRequest(engine http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// decodeData re-decodes the data field of the envelope into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}
