package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/telemetry"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024

// Config holds the remote order API settings
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64 // 0 disables limiting
	RateLimitBurst int
	Location       *time.Location // zone for dates without an offset
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrConfigInvalidBaseURL
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return ErrConfigInvalidRate
	}
	return nil
}

// RequestObserver receives one observation per remote call
type RequestObserver interface {
	ObserveGatewayRequest(action, outcome string, d time.Duration)
}

// Option configures an HTTPGateway
type Option func(*HTTPGateway)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(g *HTTPGateway) { g.logger = logger }
}

// WithHTTPClient replaces the HTTP client; its timeout is left as given
func WithHTTPClient(client *http.Client) Option {
	return func(g *HTTPGateway) { g.httpClient = client }
}

// WithObserver reports every request to o
func WithObserver(o RequestObserver) Option {
	return func(g *HTTPGateway) { g.observer = o }
}

// HTTPGateway implements production.OrderGateway against the spreadsheet web app
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	loc        *time.Location
	logger     *zap.Logger
	observer   RequestObserver
}

var _ production.OrderGateway = (*HTTPGateway)(nil)

// NewHTTPGateway creates a gateway for cfg
func NewHTTPGateway(cfg Config, opts ...Option) (*HTTPGateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	burst := cfg.RateLimitBurst
	if burst == 0 {
		burst = 1
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	g := &HTTPGateway{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		limiter:    rate.NewLimiter(limit, burst),
		loc:        loc,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// FetchAll reads the whole order sheet. Rows whose delivery date cannot be read are
// kept with a zero date so they stay visible in the order list.
func (g *HTTPGateway) FetchAll(ctx context.Context) (production.FetchResult, error) {
	var result production.FetchResult
	err := g.call(ctx, actionFetch, http.MethodGet, nil, func(body []byte) error {
		var env fetchEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return malformedError(actionFetch, err)
		}
		switch {
		case env.Status == envelopeError:
			return remoteError(actionFetch, env.Message)
		case env.Data == nil:
			return malformedError(actionFetch, fmt.Errorf("envelope without data (status %q)", env.Status))
		}

		orders := make([]production.Order, 0, len(*env.Data))
		for _, w := range *env.Data {
			o, err := fromWire(w, g.loc)
			if err != nil {
				g.logger.Warn("Unreadable delivery date",
					zap.String("order_id", w.ID),
					zap.String("value", w.DeliveryAt),
					zap.Error(err),
				)
			}
			orders = append(orders, o)
		}
		result = production.FetchResult{Orders: orders, Stats: env.Stats}
		return nil
	})
	if err != nil {
		return production.FetchResult{}, err
	}
	g.logger.Debug("Fetched orders", zap.Int("count", len(result.Orders)))
	return result, nil
}

// Create sends a single new order
func (g *HTTPGateway) Create(ctx context.Context, order production.Order) error {
	return g.post(ctx, ActionAdd, orderRequest{wireOrder: toWire(order), Action: ActionAdd})
}

// CreateMany sends the lines of one customer order in a single request
func (g *HTTPGateway) CreateMany(ctx context.Context, orders []production.Order) error {
	return g.post(ctx, ActionAddMany, addManyRequest{Action: ActionAddMany, Orders: toWireMany(orders)})
}

// Update replaces a single order
func (g *HTTPGateway) Update(ctx context.Context, order production.Order) error {
	return g.post(ctx, ActionUpdate, orderRequest{wireOrder: toWire(order), Action: ActionUpdate})
}

// UpdateMany replaces several orders in a single request
func (g *HTTPGateway) UpdateMany(ctx context.Context, orders []production.Order) error {
	return g.post(ctx, ActionUpdateMany, updateManyRequest{Action: ActionUpdateMany, Orders: toWireMany(orders)})
}

// UpdateStatus changes only the status column of one order
func (g *HTTPGateway) UpdateStatus(ctx context.Context, id string, status production.Status) error {
	return g.post(ctx, ActionUpdateStatus, statusRequest{Action: ActionUpdateStatus, ID: id, Status: string(status)})
}

func (g *HTTPGateway) post(ctx context.Context, action string, payload any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway: failed to marshal %s request: %w", action, err)
	}

	return g.call(ctx, action, http.MethodPost, reqBody, func(body []byte) error {
		var env mutationEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return malformedError(action, err)
		}
		switch env.Status {
		case envelopeSuccess:
			return nil
		case envelopeError:
			return remoteError(action, env.Message)
		default:
			return malformedError(action, fmt.Errorf("unknown envelope status %q", env.Status))
		}
	})
}

// call performs one request, decodes the envelope and reports the outcome once
func (g *HTTPGateway) call(ctx context.Context, action, method string, reqBody []byte, decode func([]byte) error) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "gateway", action,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrAction, action),
	)
	defer span.End()

	start := time.Now()
	body, err := g.do(ctx, action, method, reqBody)
	if err == nil {
		err = decode(body)
	}

	d := time.Since(start)
	if g.observer != nil {
		g.observer.ObserveGatewayRequest(action, outcomeOf(err), d)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		g.logger.Warn("Order service request failed",
			zap.String("action", action),
			zap.Duration("duration", d),
			zap.Error(err),
		)
		return err
	}
	g.logger.Debug("Order service request", zap.String("action", action), zap.Duration("duration", d))
	return nil
}

// do performs one rate-limited request and returns the raw body of a 2xx response
func (g *HTTPGateway) do(ctx context.Context, action, method string, reqBody []byte) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, transportError(action, err)
	}

	var reader io.Reader
	if reqBody != nil {
		reader = bytes.NewReader(reqBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL, reader)
	if err != nil {
		return nil, transportError(action, err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transportError(action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transportError(action, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, httpStatusError(action, resp.StatusCode)
	}
	return body, nil
}
