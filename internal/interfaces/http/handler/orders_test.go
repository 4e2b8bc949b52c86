package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderEngine(h *OrderHandler) *gin.Engine {
	engine := newEngine()
	orders := engine.Group("/orders")
	orders.GET("", h.List)
	orders.POST("", h.Create)
	orders.PUT("", h.UpdateBatch)
	orders.POST("/batch", h.CreateBatch)
	orders.POST("/refresh", h.Refresh)
	orders.GET("/:id", h.Get)
	orders.PUT("/:id", h.Update)
	orders.PATCH("/:id/status", h.UpdateStatus)
	return engine
}

func TestOrderHandler_List(t *testing.T) {
	t.Run("loads lazily and lists flat", func(t *testing.T) {
		store, gw := newTestStore(t, sampleOrders())
		engine := newOrderEngine(NewOrderHandler(store))

		w := performRequest(engine, http.MethodGet, "/orders", "")

		require.Equal(t, http.StatusOK, w.Code)
		var data OrderListResponse
		decodeData(t, w, &data)
		assert.Equal(t, 3, data.Count)
		assert.Equal(t, "o-1", data.Orders[0].ID)
		assert.Equal(t, 1, gw.Calls("fetch"))

		performRequest(engine, http.MethodGet, "/orders", "")
		assert.Equal(t, 1, gw.Calls("fetch"), "second listing reuses the loaded collection")
	})

	t.Run("groups by customer order", func(t *testing.T) {
		store, _ := newTestStore(t, sampleOrders())
		engine := newOrderEngine(NewOrderHandler(store))

		w := performRequest(engine, http.MethodGet, "/orders?group=true", "")

		require.Equal(t, http.StatusOK, w.Code)
		var data GroupedOrderListResponse
		decodeData(t, w, &data)
		require.Equal(t, 2, data.Count)
		assert.Equal(t, "g-1", data.Groups[0].GroupKey)
		assert.Len(t, data.Groups[0].Items, 2)
		assert.Equal(t, production.StatusInProgress, data.Groups[0].Status)
		assert.Equal(t, "o-3", data.Groups[1].GroupKey)
	})

	t.Run("fetch failure is a bad gateway", func(t *testing.T) {
		store, gw := newTestStore(t, sampleOrders())
		gw.FailNext("Hoja no disponible")
		engine := newOrderEngine(NewOrderHandler(store))

		w := performRequest(engine, http.MethodGet, "/orders", "")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.CodeSyncFailed, resp.Error.Code)
		assert.Equal(t, "Hoja no disponible", resp.Error.Message)
		assert.NotEmpty(t, resp.Error.RequestID)
	})
}

func TestOrderHandler_Get(t *testing.T) {
	store, _ := newTestStore(t, sampleOrders())
	engine := newOrderEngine(NewOrderHandler(store))

	w := performRequest(engine, http.MethodGet, "/orders/o-2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var order production.Order
	decodeData(t, w, &order)
	assert.Equal(t, "Croissant", order.Product)

	w = performRequest(engine, http.MethodGet, "/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.CodeOrderNotFound, decodeResponse(t, w).Error.Code)
}

func TestOrderHandler_Create(t *testing.T) {
	t.Run("creates pending order with generated id", func(t *testing.T) {
		store, gw := newTestStore(t, sampleOrders())
		engine := newOrderEngine(NewOrderHandler(store))

		w := performRequest(engine, http.MethodPost, "/orders",
			`{"product":" Txapela ","quantity":3,"deliveryAt":"2026-03-14T12:00:00Z","customerName":"Ane"}`)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created production.Order
		decodeData(t, w, &created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Txapela", created.Product)
		assert.Equal(t, production.StatusPending, created.Status)
		assert.Equal(t, testNow, created.CreatedAt)

		assert.Equal(t, created.ID, store.Snapshot()[0].ID, "new orders go to the head")
		assert.Len(t, gw.Orders(), 4)
	})

	t.Run("validation errors", func(t *testing.T) {
		store, _ := newTestStore(t, nil)
		engine := newOrderEngine(NewOrderHandler(store))

		tests := []struct {
			name  string
			body  string
			field string
		}{
			{"missing product", `{"quantity":1,"deliveryAt":"2026-03-14T12:00:00Z"}`, "product"},
			{"zero quantity", `{"product":"Txapela","quantity":0,"deliveryAt":"2026-03-14T12:00:00Z"}`, "quantity"},
			{"missing delivery", `{"product":"Txapela","quantity":1}`, "deliveryAt"},
			{"unknown status", `{"product":"Txapela","quantity":1,"deliveryAt":"2026-03-14T12:00:00Z","status":"Quemado"}`, "status"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := performRequest(engine, http.MethodPost, "/orders", tt.body)

				require.Equal(t, http.StatusBadRequest, w.Code)
				resp := decodeResponse(t, w)
				assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
				require.NotEmpty(t, resp.Error.Details)
				assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			})
		}
	})

	t.Run("rejected remotely rolls back", func(t *testing.T) {
		store, gw := newTestStore(t, sampleOrders())
		loadStore(t, store)
		gw.FailNext("Hoja protegida")
		engine := newOrderEngine(NewOrderHandler(store))

		w := performRequest(engine, http.MethodPost, "/orders",
			`{"id":"o-9","product":"Txapela","quantity":1,"deliveryAt":"2026-03-14T12:00:00Z"}`)

		require.Equal(t, http.StatusBadGateway, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.CodeSyncFailed, resp.Error.Code)
		assert.Equal(t, "Hoja protegida", resp.Error.Message)
		_, found := store.Find("o-9")
		assert.False(t, found)
	})

	t.Run("duplicate id is a conflict", func(t *testing.T) {
		store, _ := newTestStore(t, sampleOrders())
		engine := newOrderEngine(NewOrderHandler(store))

		w := performRequest(engine, http.MethodPost, "/orders",
			`{"id":"o-1","product":"Txapela","quantity":1,"deliveryAt":"2026-03-14T12:00:00Z"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.CodeDuplicateOrder, decodeResponse(t, w).Error.Code)
	})
}

func TestOrderHandler_CreateBatch(t *testing.T) {
	store, gw := newTestStore(t, nil)
	engine := newOrderEngine(NewOrderHandler(store))

	w := performRequest(engine, http.MethodPost, "/orders/batch", `{"orders":[
		{"product":"Tarta de queso","quantity":1,"deliveryAt":"2026-03-14T17:00:00Z","customerName":"Ane"},
		{"product":"Croissant","quantity":6,"deliveryAt":"2026-03-14T17:00:00Z","customerName":"Ane"}
	]}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created []production.Order
	decodeData(t, w, &created)
	require.Len(t, created, 2)
	assert.NotEmpty(t, created[0].GroupID)
	assert.Equal(t, created[0].GroupID, created[1].GroupID)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	assert.Equal(t, 1, gw.Calls("addPedidos"))

	w = performRequest(engine, http.MethodPost, "/orders/batch", `{"orders":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Update(t *testing.T) {
	t.Run("keeps stored status and creation time when omitted", func(t *testing.T) {
		store, gw := newTestStore(t, sampleOrders())
		engine := newOrderEngine(NewOrderHandler(store))

		w := performRequest(engine, http.MethodPut, "/orders/o-2",
			`{"product":"Croissant","quantity":24,"deliveryAt":"2026-03-14T10:30:00Z","kitchenNotes":"Bien tostados"}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var updated production.Order
		decodeData(t, w, &updated)
		assert.Equal(t, 24, updated.Quantity)
		assert.Equal(t, production.StatusInProgress, updated.Status)
		assert.Equal(t, sampleOrders()[1].CreatedAt, updated.CreatedAt)
		require.NotNil(t, updated.UpdatedAt)
		assert.Equal(t, 1, gw.Calls("updateOrder"))
	})

	t.Run("backwards status is unprocessable", func(t *testing.T) {
		store, _ := newTestStore(t, sampleOrders())
		engine := newOrderEngine(NewOrderHandler(store))

		w := performRequest(engine, http.MethodPut, "/orders/o-3",
			`{"product":"Pastel vasco","quantity":2,"deliveryAt":"2026-03-14T15:30:00Z","status":"Pending"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.CodeStatusTransition, decodeResponse(t, w).Error.Code)
	})

	t.Run("batch requires ids", func(t *testing.T) {
		store, _ := newTestStore(t, sampleOrders())
		engine := newOrderEngine(NewOrderHandler(store))

		w := performRequest(engine, http.MethodPut, "/orders",
			`{"orders":[{"product":"Txapela","quantity":1,"deliveryAt":"2026-03-14T12:00:00Z"}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.CodeInvalidOrderID, decodeResponse(t, w).Error.Code)
	})

	t.Run("batch update", func(t *testing.T) {
		store, gw := newTestStore(t, sampleOrders())
		engine := newOrderEngine(NewOrderHandler(store))

		w := performRequest(engine, http.MethodPut, "/orders", `{"orders":[
			{"id":"o-1","product":"Tarta de queso","quantity":2,"deliveryAt":"2026-03-14T10:30:00Z"},
			{"id":"o-2","product":"Croissant","quantity":6,"deliveryAt":"2026-03-14T10:30:00Z"}
		]}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 1, gw.Calls("updateMultipleOrders"))
		o1, _ := store.Find("o-1")
		assert.Equal(t, 2, o1.Quantity)
	})
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		body     string
		wantCode int
		wantErr  string
	}{
		{"forward", "o-1", `{"status":"InProgress"}`, http.StatusOK, ""},
		{"cancel pending", "o-1", `{"status":"Cancelled"}`, http.StatusOK, ""},
		{"backwards", "o-3", `{"status":"Pending"}`, http.StatusUnprocessableEntity, dto.CodeStatusTransition},
		{"unknown order", "nope", `{"status":"Done"}`, http.StatusNotFound, dto.CodeOrderNotFound},
		{"alias rejected", "o-1", `{"status":"listo"}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"broken json", "o-1", `{"status":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t, sampleOrders())
			engine := newOrderEngine(NewOrderHandler(store))

			w := performRequest(engine, http.MethodPatch, "/orders/"+tt.id+"/status", tt.body)

			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeResponse(t, w).Error.Code)
				return
			}
			var updated production.Order
			decodeData(t, w, &updated)
			assert.Equal(t, tt.id, updated.ID)
		})
	}
}

func TestOrderHandler_Refresh(t *testing.T) {
	store, gw := newTestStore(t, sampleOrders())
	loadStore(t, store)
	engine := newOrderEngine(NewOrderHandler(store))

	gw.SetOrders(sampleOrders()[:1])
	w := performRequest(engine, http.MethodPost, "/orders/refresh", "")

	require.Equal(t, http.StatusOK, w.Code)
	var data RefreshResponse
	decodeData(t, w, &data)
	assert.Equal(t, 1, data.Count)
	assert.Equal(t, 2, gw.Calls("fetch"))
}

type failingStore struct {
	OrderStore
}

func (failingStore) Load(context.Context) error { return nil }
func (failingStore) Refresh(context.Context) error {
	return errors.New("disk on fire")
}

func TestOrderHandler_UnknownErrorIsInternal(t *testing.T) {
	engine := newOrderEngine(NewOrderHandler(failingStore{}))

	w := performRequest(engine, http.MethodPost, "/orders/refresh", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "disk")
}
