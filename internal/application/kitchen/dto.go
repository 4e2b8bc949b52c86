package kitchen

import (
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
)

// ViewRequest selects and shapes the kitchen board
type ViewRequest struct {
	Filter       production.KitchenFilter
	UseTimeSlots bool
}

// ViewResponse is the grouped kitchen board
type ViewResponse struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	UseSlots    bool                   `json:"useTimeSlots"`
	OrderCount  int                    `json:"orderCount"`
	Groups      []production.SlotGroup `json:"groups"`
}

// GroupActionRequest asks for a bulk status change over the members of one size group
type GroupActionRequest struct {
	OrderIDs []string          `json:"orderIds" binding:"required,min=1,dive,required"`
	Status   production.Status `json:"status" binding:"required,order_status"`
}

// GroupActionResult reports which members were targeted
type GroupActionResult struct {
	Requested production.Status `json:"requested"`
	Targets   []string          `json:"targets"`
	NoOp      bool              `json:"noOp"`
}
