package handler

import (
	"strings"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
)

// OrderRequest is the body of create and update calls.
// Status is optional on create and defaults to Pending.
type OrderRequest struct {
	ID            string            `json:"id" binding:"omitempty,max=64"`
	GroupID       string            `json:"groupId" binding:"omitempty,max=64"`
	Product       string            `json:"product" binding:"required,max=200"`
	Family        string            `json:"family" binding:"max=100"`
	Size          string            `json:"size" binding:"max=100"`
	Filling       string            `json:"filling" binding:"max=100"`
	Quantity      int               `json:"quantity" binding:"required,min=1,max=10000"`
	DeliveryAt    *time.Time        `json:"deliveryAt" binding:"required"`
	Status        production.Status `json:"status" binding:"omitempty,order_status"`
	CustomerName  string            `json:"customerName" binding:"max=200"`
	KitchenNotes  string            `json:"kitchenNotes" binding:"max=2000"`
	ShopNotes     string            `json:"shopNotes" binding:"max=2000"`
	AttendedBy    string            `json:"attendedBy" binding:"max=100"`
	AlreadyInShop bool              `json:"alreadyInShop"`
}

// toOrder builds the domain line; a non-nil loc re-expresses the delivery time in the shop zone
func (r OrderRequest) toOrder(loc *time.Location) production.Order {
	o := production.Order{
		ID:            strings.TrimSpace(r.ID),
		GroupID:       strings.TrimSpace(r.GroupID),
		Product:       strings.TrimSpace(r.Product),
		Family:        strings.TrimSpace(r.Family),
		Size:          strings.TrimSpace(r.Size),
		Filling:       strings.TrimSpace(r.Filling),
		Quantity:      r.Quantity,
		Status:        r.Status,
		CustomerName:  strings.TrimSpace(r.CustomerName),
		KitchenNotes:  r.KitchenNotes,
		ShopNotes:     r.ShopNotes,
		AttendedBy:    strings.TrimSpace(r.AttendedBy),
		AlreadyInShop: r.AlreadyInShop,
	}
	if r.DeliveryAt != nil {
		o.DeliveryAt = *r.DeliveryAt
		if loc != nil {
			o.DeliveryAt = o.DeliveryAt.In(loc)
		}
	}
	return o
}

// BatchCreateRequest creates the lines of one customer order
type BatchCreateRequest struct {
	Orders []OrderRequest `json:"orders" binding:"required,min=1,max=200,dive"`
}

// BatchUpdateRequest replaces several existing lines in one remote call
type BatchUpdateRequest struct {
	Orders []OrderRequest `json:"orders" binding:"required,min=1,max=200,dive"`
}

// StatusRequest is the body of a single status change
type StatusRequest struct {
	Status production.Status `json:"status" binding:"required,order_status"`
}

// OrderListQuery selects the shape of GET /orders
type OrderListQuery struct {
	Group bool `form:"group"`
}

// OrderListResponse is the flat order listing
type OrderListResponse struct {
	Orders []production.Order     `json:"orders"`
	Count  int                    `json:"count"`
	Stats  production.RemoteStats `json:"stats,omitempty"`
}

// GroupedOrderListResponse is the listing grouped by customer order
type GroupedOrderListResponse struct {
	Groups []production.CustomerOrder `json:"groups"`
	Count  int                        `json:"count"`
}

// RefreshResponse reports the collection size after a refresh
type RefreshResponse struct {
	Count       int       `json:"count"`
	RefreshedAt time.Time `json:"refreshedAt"`
}
