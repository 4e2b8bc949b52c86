package production

import (
	"strings"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/shared"
)

// Order is one produced line: a product with a given size and filling.
// It is the unit of status tracking; a customer order is a group of these.
type Order struct {
	ID            string     `json:"id"`
	GroupID       string     `json:"groupId,omitempty"`
	Product       string     `json:"product"`
	Family        string     `json:"family,omitempty"`
	Size          string     `json:"size,omitempty"`
	Filling       string     `json:"filling,omitempty"`
	Quantity      int        `json:"quantity"`
	DeliveryAt    time.Time  `json:"deliveryAt"`
	Status        Status     `json:"status"`
	CustomerName  string     `json:"customerName,omitempty"`
	KitchenNotes  string     `json:"kitchenNotes,omitempty"`
	ShopNotes     string     `json:"shopNotes,omitempty"`
	AttendedBy    string     `json:"attendedBy,omitempty"`
	AlreadyInShop bool       `json:"alreadyInShop"`
	CreatedAt     time.Time  `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// Production domain errors
var (
	ErrOrderNotFound    = shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	ErrInvalidQuantity  = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	ErrInvalidProduct   = shared.NewDomainError("INVALID_PRODUCT", "Product cannot be empty")
	ErrInvalidStatus    = shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	ErrInvalidOrderID   = shared.NewDomainError("INVALID_ORDER_ID", "Order ID cannot be empty")
	ErrStatusTransition = shared.NewDomainError("INVALID_STATUS_TRANSITION", "Status transition not allowed")
	ErrDuplicateOrder   = shared.NewDomainError("DUPLICATE_ORDER", "An order with this ID already exists")
	ErrSyncFailed       = shared.NewDomainError("SYNC_FAILED", "Could not synchronize with the order service")
)

// GroupKey returns the customer-order group this line belongs to.
// Lines created on their own form a singleton group keyed by their own ID.
func (o Order) GroupKey() string {
	if o.GroupID != "" {
		return o.GroupID
	}
	return o.ID
}

// HasKitchenNotes reports whether the kitchen has something to read for this line
func (o Order) HasKitchenNotes() bool {
	return strings.TrimSpace(o.KitchenNotes) != ""
}

// Validate checks the invariants every stored order must hold
func (o Order) Validate() error {
	if o.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(o.Product) == "" {
		return ErrInvalidProduct
	}
	if !o.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// SameContent compares two orders field by field, ignoring the store-managed UpdatedAt
func (o Order) SameContent(other Order) bool {
	a, b := o, other
	a.UpdatedAt, b.UpdatedAt = nil, nil
	return a.ID == b.ID &&
		a.GroupID == b.GroupID &&
		a.Product == b.Product &&
		a.Family == b.Family &&
		a.Size == b.Size &&
		a.Filling == b.Filling &&
		a.Quantity == b.Quantity &&
		a.DeliveryAt.Equal(b.DeliveryAt) &&
		a.Status == b.Status &&
		a.CustomerName == b.CustomerName &&
		a.KitchenNotes == b.KitchenNotes &&
		a.ShopNotes == b.ShopNotes &&
		a.AttendedBy == b.AttendedBy &&
		a.AlreadyInShop == b.AlreadyInShop &&
		a.CreatedAt.Equal(b.CreatedAt)
}

// CustomerOrder is the set of lines sharing a group key
type CustomerOrder struct {
	GroupKey     string    `json:"groupKey"`
	CustomerName string    `json:"customerName,omitempty"`
	AttendedBy   string    `json:"attendedBy,omitempty"`
	ShopNotes    string    `json:"shopNotes,omitempty"`
	DeliveryAt   time.Time `json:"deliveryAt"`
	Status       Status    `json:"status"`
	Items        []Order   `json:"items"`
}

// InLocation returns copies of orders with delivery times expressed in loc,
// so slots and calendar days are read as shop-local wall time. A nil loc returns orders unchanged.
func InLocation(orders []Order, loc *time.Location) []Order {
	if loc == nil {
		return orders
	}
	out := make([]Order, len(orders))
	for i, o := range orders {
		if !o.DeliveryAt.IsZero() {
			o.DeliveryAt = o.DeliveryAt.In(loc)
		}
		out[i] = o
	}
	return out
}

// GroupOrders partitions orders into customer orders by group key, in order of first appearance.
// Shared fields are taken from the first line of each group.
func GroupOrders(orders []Order) []CustomerOrder {
	index := make(map[string]int)
	groups := make([]CustomerOrder, 0)

	for _, o := range orders {
		key := o.GroupKey()
		i, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, CustomerOrder{
				GroupKey:     key,
				CustomerName: o.CustomerName,
				AttendedBy:   o.AttendedBy,
				ShopNotes:    o.ShopNotes,
				DeliveryAt:   o.DeliveryAt,
			})
			i = len(groups) - 1
		}
		groups[i].Items = append(groups[i].Items, o)
	}

	for i := range groups {
		statuses := make([]Status, 0, len(groups[i].Items))
		for _, item := range groups[i].Items {
			if item.Status == StatusCancelled {
				continue
			}
			statuses = append(statuses, item.Status)
		}
		if len(statuses) == 0 {
			groups[i].Status = StatusCancelled
			continue
		}
		groups[i].Status = RollupStatus(statuses)
	}

	return groups
}
