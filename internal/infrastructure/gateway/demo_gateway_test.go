package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
)

var demoNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestDemoGateway_Seed(t *testing.T) {
	d := NewDemoGateway()
	d.Seed(42, 30, demoNow)

	res, err := d.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Orders, 30)
	assert.Equal(t, 30, res.Stats["total"])

	for _, o := range res.Orders {
		assert.NoError(t, o.Validate(), "seeded order %s must be valid", o.ID)
		assert.False(t, o.DeliveryAt.Before(demoNow.Truncate(24*time.Hour)))
	}

	again := NewDemoGateway()
	again.Seed(42, 30, demoNow)
	assert.Equal(t, res.Orders, again.Orders(), "same seed yields the same orders, ids included")

	other := NewDemoGateway()
	other.Seed(7, 30, demoNow)
	assert.NotEqual(t, res.Orders[0].ID, other.Orders()[0].ID)
}

func TestDemoGateway_Mutations(t *testing.T) {
	ctx := context.Background()
	d := NewDemoGateway()
	order := production.Order{ID: "o1", Product: "Croissant", Quantity: 3, Status: production.StatusPending}

	require.NoError(t, d.Create(ctx, order))
	assert.ErrorIs(t, d.Create(ctx, order), ErrGatewayRemote)

	order.Quantity = 5
	require.NoError(t, d.Update(ctx, order))
	require.NoError(t, d.UpdateStatus(ctx, "o1", production.StatusDone))

	stored := d.Orders()
	require.Len(t, stored, 1)
	assert.Equal(t, 5, stored[0].Quantity)
	assert.Equal(t, production.StatusDone, stored[0].Status)

	assert.ErrorIs(t, d.UpdateStatus(ctx, "ghost", production.StatusDone), ErrGatewayRemote)
	assert.ErrorIs(t, d.UpdateMany(ctx, []production.Order{order, {ID: "ghost"}}), ErrGatewayRemote)

	assert.Equal(t, 2, d.Calls(ActionAdd))
	assert.Equal(t, 2, d.Calls(ActionUpdateStatus))
}

func TestDemoGateway_FailNext(t *testing.T) {
	ctx := context.Background()
	d := NewDemoGateway()
	d.FailNext("Hoja bloqueada")

	err := d.Create(ctx, production.Order{ID: "o1", Product: "Txapela", Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, "Hoja bloqueada", production.GatewayMessage(err))
	assert.Empty(t, d.Orders())

	require.NoError(t, d.Create(ctx, production.Order{ID: "o1", Product: "Txapela", Quantity: 1}))
}

func TestDemoGateway_LatencyHonoursContext(t *testing.T) {
	d := NewDemoGateway()
	d.SetLatency(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.FetchAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
