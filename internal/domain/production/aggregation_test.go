package production

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func lineAt(id, product, size string, qty int, st Status, h, m int) Order {
	return Order{
		ID:         id,
		Product:    product,
		Size:       size,
		Quantity:   qty,
		Status:     st,
		DeliveryAt: testDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute),
	}
}

func TestGroup_CroissantScenario(t *testing.T) {
	orders := []Order{
		lineAt("1", "Croissant", "S", 2, StatusPending, 10, 30),
		lineAt("2", "Croissant", "S", 3, StatusInProgress, 10, 45),
	}

	groups := Group(orders, true, testDay.Add(6*time.Hour))

	require.Len(t, groups, 1)
	assert.Equal(t, SlotMorning, groups[0].Slot)
	require.Len(t, groups[0].Products, 1)

	pg := groups[0].Products[0]
	assert.Equal(t, "Croissant", pg.Product)
	assert.Equal(t, 5, pg.TotalQuantity)
	assert.Equal(t, StatusInProgress, pg.Status)
	require.Len(t, pg.Sizes, 1)
	assert.Equal(t, "S", pg.Sizes[0].Size)
	assert.Equal(t, 5, pg.Sizes[0].TotalQuantity)
	assert.Equal(t, StatusInProgress, pg.Sizes[0].Status)
}

func TestGroup_SameGroupDifferentSizes(t *testing.T) {
	a := lineAt("1", "Tarta", "6 raciones", 1, StatusPending, 12, 0)
	b := lineAt("2", "Tarta", "10 raciones", 1, StatusPending, 12, 0)
	a.GroupID, b.GroupID = "g", "g"

	groups := Group([]Order{a, b}, true, testDay)

	require.Len(t, groups, 1)
	require.Len(t, groups[0].Products, 1)
	sizes := groups[0].Products[0].Sizes
	require.Len(t, sizes, 2)
	assert.Equal(t, "6 raciones", sizes[0].Size)
	assert.Equal(t, "10 raciones", sizes[1].Size)
}

func TestGroup_BucketsInOrderAndEmptyOmitted(t *testing.T) {
	orders := []Order{
		lineAt("1", "Pan", "", 1, StatusPending, 17, 0),
		lineAt("2", "Pan", "", 1, StatusPending, 9, 0),
		lineAt("3", "Bizcocho", "", 2, StatusDone, 18, 30),
	}

	groups := Group(orders, true, testDay)

	require.Len(t, groups, 2)
	assert.Equal(t, SlotMorning, groups[0].Slot)
	assert.Equal(t, SlotEvening, groups[1].Slot)
	require.Len(t, groups[1].Products, 2)
	assert.Equal(t, "Pan", groups[1].Products[0].Product)
	assert.Equal(t, "Bizcocho", groups[1].Products[1].Product)
	assert.Equal(t, StatusDone, groups[1].Products[1].Status)
}

func TestGroup_WithoutTimeSlots(t *testing.T) {
	orders := []Order{
		lineAt("1", "Pan", "", 1, StatusPending, 17, 0),
		lineAt("2", "Pan", "", 4, StatusPending, 9, 0),
	}

	groups := Group(orders, false, testDay)

	require.Len(t, groups, 1)
	assert.Equal(t, SlotAll, groups[0].Slot)
	assert.Equal(t, 5, groups[0].Products[0].TotalQuantity)
}

func TestGroup_EveryLeafExactlyOnce(t *testing.T) {
	orders := []Order{
		lineAt("1", "Pan", "", 1, StatusPending, 8, 0),
		lineAt("2", "Croissant", "S", 2, StatusDone, 12, 0),
		lineAt("3", "Croissant", "L", 3, StatusDelivered, 12, 15),
		lineAt("4", "Pan", "", 1, StatusInProgress, 15, 0),
		lineAt("5", "Croissant", "S", 1, StatusPending, 20, 0),
	}

	leaves := Leaves(Group(orders, true, testDay))

	require.Len(t, leaves, len(orders))
	seen := make(map[string]int)
	for _, o := range leaves {
		seen[o.ID]++
	}
	for _, o := range orders {
		assert.Equal(t, 1, seen[o.ID], "order %s", o.ID)
	}
}

func TestGroup_FillingsAndNotes(t *testing.T) {
	a := lineAt("1", "Bollo", "M", 2, StatusPending, 9, 0)
	a.Filling = "Crema"
	b := lineAt("2", "Bollo", "M", 3, StatusPending, 9, 0)
	b.Filling = "Nata"
	b.KitchenNotes = "sin azúcar"
	c := lineAt("3", "Bollo", "M", 1, StatusPending, 9, 0)
	c.Filling = "Crema"
	d := lineAt("4", "Bollo", "M", 1, StatusPending, 9, 0)

	groups := Group([]Order{a, b, c, d}, true, testDay)

	sg := groups[0].Products[0].Sizes[0]
	assert.True(t, sg.HasNotes)
	assert.Equal(t, []FillingSummary{
		{Filling: "Crema", Quantity: 3},
		{Filling: "Nata", Quantity: 3, HasNotes: true},
		{Filling: "", Quantity: 1},
	}, sg.Fillings)
}

func TestGroup_ProductRollupUsesSizeStatuses(t *testing.T) {
	orders := []Order{
		lineAt("1", "Pan", "S", 1, StatusDone, 9, 0),
		lineAt("2", "Pan", "S", 1, StatusDelivered, 9, 0),
		lineAt("3", "Pan", "L", 1, StatusPending, 9, 0),
	}

	pg := Group(orders, true, testDay)[0].Products[0]

	assert.Equal(t, StatusDone, pg.Sizes[0].Status)
	assert.Equal(t, StatusPending, pg.Sizes[1].Status)
	assert.Equal(t, StatusPending, pg.Status)
}

func TestGroup_ProductUrgency(t *testing.T) {
	now := testDay.Add(9 * time.Hour)
	orders := []Order{
		lineAt("1", "Pan", "", 1, StatusPending, 11, 30),
		lineAt("2", "Bizcocho", "", 1, StatusPending, 13, 0),
	}

	groups := Group(orders, false, now)

	assert.True(t, groups[0].Products[0].IsUrgent)
	assert.False(t, groups[0].Products[1].IsUrgent)
}

func TestGroup_DoesNotMutateInput(t *testing.T) {
	orders := []Order{
		lineAt("1", "Pan", "", 1, StatusPending, 8, 0),
		lineAt("2", "Pan", "", 2, StatusPending, 8, 0),
	}
	before := append([]Order(nil), orders...)

	_ = Group(orders, true, testDay)

	assert.Equal(t, before, orders)
}

func TestRollupStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all done", []Status{StatusDone, StatusDone}, StatusDone},
		{"done and delivered", []Status{StatusDone, StatusDelivered}, StatusDone},
		{"any in progress", []Status{StatusPending, StatusInProgress, StatusDone}, StatusInProgress},
		{"pending and done", []Status{StatusPending, StatusDone}, StatusPending},
		{"all pending", []Status{StatusPending}, StatusPending},
		{"empty", nil, StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RollupStatus(tt.statuses))
		})
	}
}
