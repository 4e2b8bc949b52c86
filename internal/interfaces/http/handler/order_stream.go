package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SnapshotSource publishes the order collection
type SnapshotSource interface {
	Subscribe() (<-chan []production.Order, func())
}

// StreamObserver is told when clients connect and disconnect
type StreamObserver interface {
	StreamOpened()
	StreamClosed()
}

// SSEMessage is one server-sent event
type SSEMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id,omitempty"`
}

// OrdersEvent is the payload of the "orders" event
type OrdersEvent struct {
	Orders      []production.Order `json:"orders"`
	Count       int                `json:"count"`
	PublishedAt time.Time          `json:"publishedAt"`
}

// OrderStreamHandler pushes every new order snapshot to connected screens over SSE
type OrderStreamHandler struct {
	BaseHandler
	source     SnapshotSource
	observer   StreamObserver
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  time.Duration
	maxClients int
	clients    atomic.Int64
	now        func() time.Time
}

// OrderStreamOption configures an OrderStreamHandler
type OrderStreamOption func(*OrderStreamHandler)

// WithStreamLogger sets the logger for the handler
func WithStreamLogger(logger *zap.Logger) OrderStreamOption {
	return func(h *OrderStreamHandler) {
		h.logger = logger
	}
}

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) OrderStreamOption {
	return func(h *OrderStreamHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithStreamMaxClients caps concurrent streams; 0 means unlimited
func WithStreamMaxClients(max int) OrderStreamOption {
	return func(h *OrderStreamHandler) {
		h.maxClients = max
	}
}

// WithStreamObserver reports connects and disconnects, e.g. to metrics
func WithStreamObserver(o StreamObserver) OrderStreamOption {
	return func(h *OrderStreamHandler) {
		h.observer = o
	}
}

// NewOrderStreamHandler creates a new SSE handler for order snapshots
func NewOrderStreamHandler(source SnapshotSource, opts ...OrderStreamOption) *OrderStreamHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &OrderStreamHandler{
		source:     source,
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  30 * time.Second,
		maxClients: 1000,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stop ends every open stream. Call it before shutting the server down,
// since open streams would otherwise hold the shutdown until its deadline.
func (h *OrderStreamHandler) Stop() {
	h.cancel()
	h.logger.Info("Order stream handler stopped", zap.Int64("clients", h.clients.Load()))
}

// GetClientCount returns the number of connected clients
func (h *OrderStreamHandler) GetClientCount() int {
	return int(h.clients.Load())
}

// Stream godoc
//
//	@Summary		Subscribe to order snapshots via SSE
//	@Description	Sends the current collection, then every new snapshot as an "orders" event
//	@Tags			orders
//	@Produce		text/event-stream
//	@Success		200	{string}	string	"SSE stream"
//	@Failure		503	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/orders/stream [get]
func (h *OrderStreamHandler) Stream(c *gin.Context) {
	if h.ctx.Err() != nil {
		h.ServiceUnavailable(c, dto.ErrCodeServiceUnavailable, "Server is shutting down")
		return
	}
	n := h.clients.Add(1)
	defer h.clients.Add(-1)
	if h.maxClients > 0 && n > int64(h.maxClients) {
		h.ServiceUnavailable(c, dto.ErrCodeMaxConnections, "Maximum number of SSE connections reached")
		return
	}

	if h.observer != nil {
		h.observer.StreamOpened()
		defer h.observer.StreamClosed()
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	snapshots, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	clientID := uuid.NewString()
	log := h.logger.With(zap.String("client_id", clientID))
	log.Debug("SSE client connected")

	if err := h.send(c, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"clientId":%q,"timestamp":%d}`, clientID, h.now().Unix()),
	}); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	var seq uint64
	reqCtx := c.Request.Context()
	for {
		var msg SSEMessage
		select {
		case <-reqCtx.Done():
			log.Debug("SSE client disconnected")
			return
		case <-h.ctx.Done():
			return
		case orders, ok := <-snapshots:
			if !ok {
				return
			}
			data, err := json.Marshal(OrdersEvent{Orders: orders, Count: len(orders), PublishedAt: h.now()})
			if err != nil {
				log.Error("Failed to marshal order snapshot", zap.Error(err))
				continue
			}
			seq++
			msg = SSEMessage{Event: "orders", Data: string(data), ID: strconv.FormatUint(seq, 10)}
		case <-ticker.C:
			msg = SSEMessage{Event: "heartbeat", Data: fmt.Sprintf(`{"timestamp":%d}`, h.now().Unix())}
		}

		if err := h.send(c, msg); err != nil {
			log.Debug("SSE write failed", zap.Error(err))
			return
		}
	}
}

func (h *OrderStreamHandler) send(c *gin.Context, msg SSEMessage) error {
	if err := writeEvent(c.Writer, msg); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// writeEvent writes one SSE frame
func writeEvent(w io.Writer, msg SSEMessage) error {
	frame := ""
	if msg.Event != "" {
		frame += "event: " + msg.Event + "\n"
	}
	if msg.ID != "" {
		frame += "id: " + msg.ID + "\n"
	}
	frame += "data: " + msg.Data + "\n\n"
	_, err := io.WriteString(w, frame)
	return err
}
