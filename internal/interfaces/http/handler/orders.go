package handler

import (
	"context"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the part of the order store the order endpoints use
type OrderStore interface {
	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
	Snapshot() []production.Order
	Find(id string) (production.Order, bool)
	RemoteStats() production.RemoteStats
	Add(ctx context.Context, order production.Order) (production.Order, error)
	AddMany(ctx context.Context, orders []production.Order) ([]production.Order, error)
	Update(ctx context.Context, order production.Order) error
	UpdateMany(ctx context.Context, orders []production.Order) error
	UpdateStatus(ctx context.Context, id string, status production.Status) error
}

// OrderHandler handles the shop's order endpoints
type OrderHandler struct {
	BaseHandler
	store    OrderStore
	now      func() time.Time
	location *time.Location
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(store OrderStore) *OrderHandler {
	return &OrderHandler{store: store, now: time.Now}
}

// SetLocation makes incoming delivery times read in the shop time zone
func (h *OrderHandler) SetLocation(loc *time.Location) {
	h.location = loc
}

// List godoc
//
//	@Summary	List production orders
//	@Tags		orders
//	@Produce	json
//	@Param		group	query		bool	false	"Group lines by customer order"
//	@Success	200		{object}	dto.Response{data=OrderListResponse}
//	@Failure	502		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router		/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var q OrderListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.ensureLoaded(c) {
		return
	}

	orders := h.store.Snapshot()
	if q.Group {
		groups := production.GroupOrders(orders)
		h.Success(c, GroupedOrderListResponse{Groups: groups, Count: len(groups)})
		return
	}
	h.Success(c, OrderListResponse{Orders: orders, Count: len(orders), Stats: h.store.RemoteStats()})
}

// Get returns one order by id
func (h *OrderHandler) Get(c *gin.Context) {
	if !h.ensureLoaded(c) {
		return
	}
	order, ok := h.store.Find(c.Param("id"))
	if !ok {
		h.HandleError(c, production.ErrOrderNotFound)
		return
	}
	h.Success(c, order)
}

// Create godoc
//
//	@Summary	Create one order line
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Param		request	body		OrderRequest	true	"Order line"
//	@Success	201		{object}	dto.Response{data=production.Order}
//	@Failure	400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure	502		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router		/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.ensureLoaded(c) {
		return
	}

	order, err := h.store.Add(c.Request.Context(), req.toOrder(h.location))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// CreateBatch creates the lines of one customer order in a single remote call.
// Lines without a group id share a fresh one.
func (h *OrderHandler) CreateBatch(c *gin.Context) {
	var req BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.ensureLoaded(c) {
		return
	}

	groupID := ""
	orders := make([]production.Order, len(req.Orders))
	for i, r := range req.Orders {
		orders[i] = r.toOrder(h.location)
		if orders[i].GroupID == "" {
			if groupID == "" {
				groupID = uuid.NewString()
			}
			orders[i].GroupID = groupID
		}
	}

	created, err := h.store.AddMany(c.Request.Context(), orders)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.GetGinLogger(c).Info("Customer order created",
		zap.String("group_id", created[0].GroupKey()),
		zap.Int("lines", len(created)),
	)
	h.Created(c, created)
}

// Update replaces one order line
func (h *OrderHandler) Update(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.ensureLoaded(c) {
		return
	}

	order := req.toOrder(h.location)
	order.ID = c.Param("id")
	order = h.withStoredDefaults(order)
	if err := h.store.Update(c.Request.Context(), order); err != nil {
		h.HandleError(c, err)
		return
	}

	updated, _ := h.store.Find(order.ID)
	h.Success(c, updated)
}

// UpdateBatch replaces several order lines in one remote call
func (h *OrderHandler) UpdateBatch(c *gin.Context) {
	var req BatchUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.ensureLoaded(c) {
		return
	}

	orders := make([]production.Order, len(req.Orders))
	for i, r := range req.Orders {
		orders[i] = r.toOrder(h.location)
		if orders[i].ID == "" {
			h.HandleError(c, production.ErrInvalidOrderID)
			return
		}
		orders[i] = h.withStoredDefaults(orders[i])
	}

	if err := h.store.UpdateMany(c.Request.Context(), orders); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"updated": len(orders)})
}

// UpdateStatus godoc
//
//	@Summary	Change the status of one order line
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Order ID"
//	@Param		request	body		StatusRequest	true	"New status"
//	@Success	200		{object}	dto.Response{data=production.Order}
//	@Failure	404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure	422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure	502		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router		/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.ensureLoaded(c) {
		return
	}

	id := c.Param("id")
	if err := h.store.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		h.HandleError(c, err)
		return
	}

	updated, _ := h.store.Find(id)
	h.Success(c, updated)
}

// Refresh refetches the whole collection from the order service
func (h *OrderHandler) Refresh(c *gin.Context) {
	if err := h.store.Refresh(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RefreshResponse{Count: len(h.store.Snapshot()), RefreshedAt: h.now()})
}

// withStoredDefaults keeps the stored status and creation time when the request leaves them out
func (h *OrderHandler) withStoredDefaults(o production.Order) production.Order {
	current, ok := h.store.Find(o.ID)
	if !ok {
		return o
	}
	if o.Status == "" {
		o.Status = current.Status
	}
	o.CreatedAt = current.CreatedAt
	return o
}

// ensureLoaded fetches the collection on first use and answers the request when that fails
func (h *OrderHandler) ensureLoaded(c *gin.Context) bool {
	if err := h.store.Load(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return false
	}
	return true
}
