package router

import (
	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// OrderRoutes mounts the order collection endpoints under /orders.
// The stream route is skipped when stream is nil.
func OrderRoutes(orders *handler.OrderHandler, stream *handler.OrderStreamHandler, writeLimit gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("orders", "/orders").UseOnWrites(writeLimit)
	g.GET("", orders.List)
	g.POST("", orders.Create)
	g.PUT("", orders.UpdateBatch)
	g.POST("/batch", orders.CreateBatch)
	g.POST("/refresh", orders.Refresh)
	if stream != nil {
		g.GET("/stream", stream.Stream)
	}
	g.GET("/:id", orders.Get)
	g.PUT("/:id", orders.Update)
	g.PATCH("/:id/status", orders.UpdateStatus)
	return g
}

// KitchenRoutes mounts the production board endpoints under /kitchen
func KitchenRoutes(kitchen *handler.KitchenHandler, writeLimit gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("kitchen", "/kitchen").UseOnWrites(writeLimit)
	g.GET("/production", kitchen.Production)
	g.POST("/group-action", kitchen.GroupAction)
	g.GET("/stats", kitchen.Stats)
	return g
}

// JournalRoutes mounts the mutation journal under /journal, or returns nil without a handler
func JournalRoutes(journal *handler.JournalHandler) RouteRegistrar {
	if journal == nil {
		return nil
	}
	return NewDomainGroup("journal", "/journal").GET("", journal.List)
}
