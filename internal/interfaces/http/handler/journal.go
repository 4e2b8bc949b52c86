package handler

import (
	"context"

	"github.com/akiliki/arruti-app-sub000/internal/application/orderstore"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
)

// JournalReader lists recorded mutations
type JournalReader interface {
	List(ctx context.Context, filter persistence.JournalFilter) ([]orderstore.MutationRecord, int64, error)
}

// JournalQuery holds the journal listing filters
type JournalQuery struct {
	OrderID   string `form:"orderId" binding:"max=64"`
	Kind      string `form:"kind" binding:"omitempty,oneof=add add_many update update_many update_status"`
	Outcome   string `form:"outcome" binding:"omitempty,oneof=confirmed rolled_back"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc ASC DESC"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// JournalHandler exposes the mutation journal
type JournalHandler struct {
	BaseHandler
	journal JournalReader
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journal JournalReader) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// List godoc
//
//	@Summary	List recorded order mutations
//	@Tags		journal
//	@Produce	json
//	@Param		orderId		query		string	false	"Only mutations touching this order"
//	@Param		kind		query		string	false	"Mutation kind"
//	@Param		outcome		query		string	false	"confirmed or rolled_back"
//	@Param		limit		query		int		false	"Page size (default 50)"
//	@Param		offset		query		int		false	"Offset"
//	@Success	200			{object}	dto.Response{data=[]orderstore.MutationRecord}
//	@Router		/journal [get]
func (h *JournalHandler) List(c *gin.Context) {
	var q JournalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	filter := persistence.JournalFilter{
		OrderID:   q.OrderID,
		Kind:      q.Kind,
		Outcome:   q.Outcome,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	records, total, err := h.journal.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = persistence.DefaultJournalLimit
	}
	h.SuccessWithMeta(c, records, total, limit, q.Offset)
}
