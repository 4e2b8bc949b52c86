package handler

import (
	"testing"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRequest_toOrder(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	delivery := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)
	req := OrderRequest{Product: " Croissant ", Quantity: 2, DeliveryAt: &delivery}

	t.Run("reads delivery in the shop zone", func(t *testing.T) {
		o := req.toOrder(madrid)

		assert.Equal(t, "Croissant", o.Product)
		assert.True(t, delivery.Equal(o.DeliveryAt))
		assert.Equal(t, 11, o.DeliveryAt.Hour())
		assert.Equal(t, production.SlotMidday, production.ClassifyTimeSlot(o.DeliveryAt))
	})

	t.Run("keeps the sent zone without a location", func(t *testing.T) {
		o := req.toOrder(nil)

		assert.Equal(t, time.UTC, o.DeliveryAt.Location())
		assert.Equal(t, 10, o.DeliveryAt.Hour())
	})
}
