// Package orderstore holds the single authoritative, observable collection of production orders.
// Every mutation is applied locally and published before the remote call, then kept or rolled back.
package orderstore

import (
	"context"
	"sync"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("github.com/akiliki/arruti-app-sub000/internal/application/orderstore")

// Store is the optimistic order store. Create one per process and inject it.
type Store struct {
	gw          production.OrderGateway
	logger      *zap.Logger
	recorder    MutationRecorder
	metrics     Metrics
	invalidator StatsInvalidator
	now         func() time.Time
	newID       func() string

	mu      sync.RWMutex
	orders  []production.Order
	stats   production.RemoteStats
	loaded  bool
	seq     uint64
	writers map[string][]*mutation

	subMu   sync.Mutex
	subs    map[uint64]chan []production.Order
	nextSub uint64

	loadGroup singleflight.Group
}

// New creates a Store backed by the given gateway
func New(gw production.OrderGateway, opts ...Option) *Store {
	s := &Store{
		gw:      gw,
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   defaultIDGenerator,
		orders:  []production.Order{},
		writers: make(map[string][]*mutation),
		subs:    make(map[uint64]chan []production.Order),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the collection once. Later calls reuse the loaded collection,
// and concurrent first calls share a single fetch.
func (s *Store) Load(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}
	_, err, _ := s.loadGroup.Do("load", func() (any, error) {
		if s.Loaded() {
			return nil, nil
		}
		return nil, s.Refresh(ctx)
	})
	return err
}

// Refresh unconditionally refetches and replaces the collection
func (s *Store) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "orderstore.refresh")
	defer span.End()

	start := s.now()
	res, err := s.gw.FetchAll(ctx)
	if s.metrics != nil {
		s.metrics.ObserveRefresh(err, s.now().Sub(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("Failed to fetch orders", zap.Error(err))
		return syncError(err)
	}

	orders := make([]production.Order, len(res.Orders))
	copy(orders, res.Orders)

	s.mu.Lock()
	s.loaded = true
	s.stats = res.Stats
	s.setLocked(orders)
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("order.count", len(orders)))
	s.logger.Debug("Orders refreshed", zap.Int("count", len(orders)))
	s.invalidateStats(ctx)
	return nil
}

// Snapshot returns a copy of the current collection
func (s *Store) Snapshot() []production.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]production.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Find returns the current value of one order
func (s *Store) Find(id string) (production.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return production.Order{}, false
}

// Loaded reports whether the collection has been fetched at least once
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// RemoteStats returns the stats object of the last successful fetch
func (s *Store) RemoteStats() production.RemoteStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Subscribe returns a channel that receives the current snapshot and then every new one.
// A slow reader only ever misses intermediate snapshots, never the latest.
// Published slices are shared and must not be modified. Call the returned func to unsubscribe.
func (s *Store) Subscribe() (<-chan []production.Order, func()) {
	ch := make(chan []production.Order, 1)

	// Holding mu keeps the initial snapshot ordered before any later publish.
	s.mu.RLock()
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.orders
	s.subMu.Unlock()
	s.mu.RUnlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			close(ch)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

// setLocked replaces the collection and publishes it. Caller must hold mu.
func (s *Store) setLocked(orders []production.Order) {
	s.orders = orders
	if s.metrics != nil {
		s.metrics.SetOrderCount(len(orders))
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- orders:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- orders
		}
	}
}

func (s *Store) invalidateStats(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateAll(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("Failed to invalidate cached statistics", zap.Error(err))
	}
}

func syncError(err error) error {
	return shared.WrapDomainError(production.ErrSyncFailed.Code, production.GatewayMessage(err), err)
}
