package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
)

// Remote actions understood by the order sheet script
const (
	ActionAdd          = "add"
	ActionAddMany      = "addPedidos"
	ActionUpdate       = "updateOrder"
	ActionUpdateMany   = "updateMultipleOrders"
	ActionUpdateStatus = "updateStatus"
	actionFetch        = "fetch"
)

const (
	envelopeSuccess = "success"
	envelopeError   = "error"
)

// wireOrder is an order as the sheet stores it. Dates travel as strings and
// quantities or flags may arrive as text.
type wireOrder struct {
	ID            string   `json:"id"`
	GroupID       string   `json:"groupId,omitempty"`
	Product       string   `json:"product"`
	Family        string   `json:"family,omitempty"`
	Size          string   `json:"size,omitempty"`
	Filling       string   `json:"filling,omitempty"`
	Quantity      flexInt  `json:"quantity"`
	DeliveryAt    string   `json:"deliveryAt"`
	Status        string   `json:"status"`
	CustomerName  string   `json:"customerName,omitempty"`
	KitchenNotes  string   `json:"kitchenNotes,omitempty"`
	ShopNotes     string   `json:"shopNotes,omitempty"`
	AttendedBy    string   `json:"attendedBy,omitempty"`
	AlreadyInShop flexBool `json:"alreadyInShop"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
}

// orderRequest is a single-order POST: the order fields plus the action
type orderRequest struct {
	wireOrder
	Action string `json:"action"`
}

type addManyRequest struct {
	Action string      `json:"action"`
	Orders []wireOrder `json:"pedidos"`
}

type updateManyRequest struct {
	Action string      `json:"action"`
	Orders []wireOrder `json:"orders"`
}

type statusRequest struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

type fetchEnvelope struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    *[]wireOrder           `json:"data"`
	Stats   production.RemoteStats `json:"stats,omitempty"`
}

type mutationEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func toWire(o production.Order) wireOrder {
	w := wireOrder{
		ID:            o.ID,
		GroupID:       o.GroupID,
		Product:       o.Product,
		Family:        o.Family,
		Size:          o.Size,
		Filling:       o.Filling,
		Quantity:      flexInt(o.Quantity),
		DeliveryAt:    FormatDate(o.DeliveryAt),
		Status:        string(o.Status),
		CustomerName:  o.CustomerName,
		KitchenNotes:  o.KitchenNotes,
		ShopNotes:     o.ShopNotes,
		AttendedBy:    o.AttendedBy,
		AlreadyInShop: flexBool(o.AlreadyInShop),
		CreatedAt:     FormatDate(o.CreatedAt),
	}
	if o.UpdatedAt != nil {
		w.UpdatedAt = FormatDate(*o.UpdatedAt)
	}
	return w
}

func toWireMany(orders []production.Order) []wireOrder {
	out := make([]wireOrder, len(orders))
	for i, o := range orders {
		out[i] = toWire(o)
	}
	return out
}

// fromWire converts a sheet row. Unreadable optional dates are dropped; an unreadable
// delivery date is returned as an error so the caller can decide what to do with the row.
func fromWire(w wireOrder, loc *time.Location) (production.Order, error) {
	o := production.Order{
		ID:            strings.TrimSpace(w.ID),
		GroupID:       strings.TrimSpace(w.GroupID),
		Product:       strings.TrimSpace(w.Product),
		Family:        strings.TrimSpace(w.Family),
		Size:          strings.TrimSpace(w.Size),
		Filling:       strings.TrimSpace(w.Filling),
		Quantity:      int(w.Quantity),
		Status:        production.NormalizeStatus(w.Status),
		CustomerName:  w.CustomerName,
		KitchenNotes:  w.KitchenNotes,
		ShopNotes:     w.ShopNotes,
		AttendedBy:    w.AttendedBy,
		AlreadyInShop: bool(w.AlreadyInShop),
	}
	if created, err := ParseDate(w.CreatedAt, loc); err == nil {
		o.CreatedAt = created
	}
	if updated, err := ParseDate(w.UpdatedAt, loc); err == nil && !updated.IsZero() {
		o.UpdatedAt = &updated
	}
	delivery, err := ParseDate(w.DeliveryAt, loc)
	if err != nil {
		return o, err
	}
	o.DeliveryAt = delivery
	return o, nil
}

// flexInt accepts a JSON number or a numeric string
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("quantity %s: %w", data, err)
	}
	*n = flexInt(f)
	return nil
}

// flexBool accepts a JSON bool or the text values a sheet checkbox column produces
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*b = false
		return nil
	}
	switch production.FoldText(s) {
	case "true", "si", "yes", "x", "1":
		*b = true
	default:
		*b = false
	}
	return nil
}
