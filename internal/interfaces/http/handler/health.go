package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// StoreStatus reports whether the order collection has been fetched
type StoreStatus interface {
	Loaded() bool
}

// Pinger checks a backing service
type Pinger interface {
	Ping() error
}

// HealthResponse is the body of the health endpoints
type HealthResponse struct {
	Status    string            `json:"status"`
	Name      string            `json:"name"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	Loaded    bool              `json:"loaded"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler serves liveness and readiness
type HealthHandler struct {
	BaseHandler
	name      string
	store     StoreStatus
	pingers   map[string]Pinger
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(name string, store StoreStatus) *HealthHandler {
	return &HealthHandler{
		name:      name,
		store:     store,
		pingers:   make(map[string]Pinger),
		startTime: time.Now(),
	}
}

// AddCheck registers a dependency checked by Ready
func (h *HealthHandler) AddCheck(name string, p Pinger) {
	h.pingers[name] = p
}

func (h *HealthHandler) base(status string) HealthResponse {
	return HealthResponse{
		Status:    status,
		Name:      h.name,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Loaded:    h.store.Loaded(),
	}
}

// Live always answers 200 while the process serves requests
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.base("healthy")))
}

// Ready answers 503 until the order collection is loaded and every registered check passes
func (h *HealthHandler) Ready(c *gin.Context) {
	resp := h.base("ready")
	ok := resp.Loaded
	if len(h.pingers) > 0 {
		resp.Checks = make(map[string]string, len(h.pingers))
		for name, p := range h.pingers {
			if err := p.Ping(); err != nil {
				resp.Checks[name] = "error: " + err.Error()
				ok = false
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	if !ok {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp, Error: &dto.ErrorInfo{
			Code:      dto.ErrCodeServiceUnavailable,
			Message:   "Service is not ready",
			RequestID: getRequestID(c),
		}})
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
