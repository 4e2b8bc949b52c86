package handler

import (
	"context"
	"strings"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/application/kitchen"
	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// KitchenService is the kitchen application service
type KitchenService interface {
	View(req kitchen.ViewRequest) kitchen.ViewResponse
	ApplyGroupAction(ctx context.Context, req kitchen.GroupActionRequest) (*kitchen.GroupActionResult, error)
	Stats(ctx context.Context, day time.Time) (production.DailyStats, error)
}

// BoardSource is the part of the order store the kitchen endpoints read directly
type BoardSource interface {
	Load(ctx context.Context) error
	RemoteStats() production.RemoteStats
}

// ProductionQuery holds the kitchen board filters.
// Status and timeSlots accept repeated parameters or comma separated lists.
type ProductionQuery struct {
	Date      string   `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Family    string   `form:"family" binding:"max=100"`
	Q         string   `form:"q" binding:"max=100"`
	Status    []string `form:"status"`
	Slots     bool     `form:"slots"`
	TimeSlots []string `form:"timeSlots"`
}

// StatsQuery selects the statistics day
type StatsQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// StatsResponse holds the computed day statistics and the remote service's own figures
type StatsResponse struct {
	Day    production.DailyStats  `json:"day"`
	Remote production.RemoteStats `json:"remote,omitempty"`
}

// KitchenHandler serves the kitchen production board
type KitchenHandler struct {
	BaseHandler
	service  KitchenService
	orders   BoardSource
	location *time.Location
	now      func() time.Time
}

// NewKitchenHandler creates a new KitchenHandler. Query dates are read in loc.
func NewKitchenHandler(service KitchenService, orders BoardSource, loc *time.Location) *KitchenHandler {
	if loc == nil {
		loc = time.Local
	}
	return &KitchenHandler{service: service, orders: orders, location: loc, now: time.Now}
}

// Production godoc
//
//	@Summary	Kitchen production board
//	@Tags		kitchen
//	@Produce	json
//	@Param		date		query		string		false	"Delivery day (YYYY-MM-DD)"
//	@Param		family		query		string		false	"Product family"
//	@Param		q			query		string		false	"Product search"
//	@Param		status		query		[]string	false	"Statuses"
//	@Param		slots		query		bool		false	"Group by delivery window"
//	@Param		timeSlots	query		[]string	false	"Delivery windows"
//	@Success	200			{object}	dto.Response{data=kitchen.ViewResponse}
//	@Router		/kitchen/production [get]
func (h *KitchenHandler) Production(c *gin.Context) {
	var q ProductionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	if err := h.orders.Load(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}

	filter, details := h.parseFilter(q)
	if len(details) > 0 {
		h.ValidationError(c, details)
		return
	}
	h.Success(c, h.service.View(kitchen.ViewRequest{Filter: filter, UseTimeSlots: q.Slots}))
}

func (h *KitchenHandler) parseFilter(q ProductionQuery) (production.KitchenFilter, []dto.ValidationDetail) {
	var details []dto.ValidationDetail
	filter := production.KitchenFilter{Family: q.Family, Search: q.Q}

	if q.Date != "" {
		day, err := time.ParseInLocation(time.DateOnly, q.Date, h.location)
		if err != nil {
			details = append(details, dto.ValidationDetail{Field: "date", Message: "Must be a date in YYYY-MM-DD format"})
		}
		filter.Date = day
	}
	for _, raw := range splitList(q.Status) {
		st := production.Status(raw)
		if !st.IsValid() {
			details = append(details, dto.ValidationDetail{Field: "status", Message: "Unknown status " + raw})
			continue
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	for _, raw := range splitList(q.TimeSlots) {
		slot, err := production.ParseTimeSlot(raw)
		if err != nil {
			details = append(details, dto.ValidationDetail{Field: "timeSlots", Message: "Unknown time slot " + raw})
			continue
		}
		filter.TimeSlots = append(filter.TimeSlots, slot)
	}
	return filter, details
}

// GroupAction godoc
//
//	@Summary	Apply a status to the members of a size group
//	@Tags		kitchen
//	@Accept		json
//	@Produce	json
//	@Param		request	body		kitchen.GroupActionRequest	true	"Group members and requested status"
//	@Success	200		{object}	dto.Response{data=kitchen.GroupActionResult}
//	@Failure	404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure	502		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router		/kitchen/group-action [post]
func (h *KitchenHandler) GroupAction(c *gin.Context) {
	var req kitchen.GroupActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.ApplyGroupAction(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Stats returns the statistics of one delivery day, today by default
func (h *KitchenHandler) Stats(c *gin.Context) {
	var q StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	if err := h.orders.Load(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}

	day := h.now().In(h.location)
	if q.Date != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, q.Date, h.location)
		if err != nil {
			h.BadRequest(c, "date must be in YYYY-MM-DD format")
			return
		}
		day = parsed
	}

	stats, err := h.service.Stats(c.Request.Context(), day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, StatsResponse{Day: stats, Remote: h.orders.RemoteStats()})
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
