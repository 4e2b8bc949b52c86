package orderstore

import (
	"context"
	"strings"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// mutation is one in-flight optimistic change.
// before holds, per affected id, the value to restore on failure; nil means the id was inserted.
type mutation struct {
	seq    uint64
	kind   MutationKind
	ids    []string
	before map[string]*production.Order
	record MutationRecord
}

// change is a single-order step of a mutation: either an insert or a patch of an existing order
type change struct {
	id     string
	insert *production.Order
	patch  func(current production.Order) (production.Order, error)
}

// Add inserts one order at the head of the collection. A missing id is generated.
func (s *Store) Add(ctx context.Context, order production.Order) (production.Order, error) {
	prepared := s.prepareNew(order)
	err := s.run(ctx, KindAdd, []change{{id: prepared.ID, insert: &prepared}}, func(ctx context.Context) error {
		return s.gw.Create(ctx, prepared)
	})
	if err != nil {
		return production.Order{}, err
	}
	return prepared, nil
}

// AddMany inserts a batch of orders at the head of the collection, keeping their relative order
func (s *Store) AddMany(ctx context.Context, orders []production.Order) ([]production.Order, error) {
	if len(orders) == 0 {
		return nil, shared.ErrInvalidInput
	}
	prepared := make([]production.Order, len(orders))
	changes := make([]change, len(orders))
	for i, o := range orders {
		prepared[i] = s.prepareNew(o)
		changes[i] = change{id: prepared[i].ID, insert: &prepared[i]}
	}
	err := s.run(ctx, KindAddMany, changes, func(ctx context.Context) error {
		return s.gw.CreateMany(ctx, prepared)
	})
	if err != nil {
		return nil, err
	}
	return prepared, nil
}

// Update replaces an order by id
func (s *Store) Update(ctx context.Context, order production.Order) error {
	return s.UpdateMany(ctx, []production.Order{order})
}

// UpdateMany replaces a batch of orders by id
func (s *Store) UpdateMany(ctx context.Context, orders []production.Order) error {
	if len(orders) == 0 {
		return nil
	}
	kind := KindUpdateMany
	if len(orders) == 1 {
		kind = KindUpdate
	}
	changes := make([]change, len(orders))
	for i, o := range orders {
		replacement := o
		changes[i] = change{id: o.ID, patch: func(current production.Order) (production.Order, error) {
			if !current.Status.CanTransitionTo(replacement.Status) {
				return current, production.ErrStatusTransition
			}
			return replacement, nil
		}}
	}
	return s.run(ctx, kind, changes, func(ctx context.Context) error {
		if kind == KindUpdate {
			return s.gw.Update(ctx, orders[0])
		}
		return s.gw.UpdateMany(ctx, orders)
	})
}

// UpdateStatus changes only the status of one order.
// Setting the current status again is accepted and still sent to the remote service.
func (s *Store) UpdateStatus(ctx context.Context, id string, status production.Status) error {
	return s.updateStatus(ctx, id, status, false)
}

// UpdateStatuses applies one status to many orders as independent mutations.
// It waits for all of them and returns the first failure. Reverting to Pending is allowed here.
func (s *Store) UpdateStatuses(ctx context.Context, ids []string, status production.Status) error {
	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			return s.updateStatus(ctx, id, status, true)
		})
	}
	return g.Wait()
}

func (s *Store) updateStatus(ctx context.Context, id string, status production.Status, allowRevert bool) error {
	if !status.IsValid() {
		return production.ErrInvalidStatus
	}
	ch := change{id: id, patch: func(current production.Order) (production.Order, error) {
		if !current.Status.CanTransitionTo(status) && !(allowRevert && current.Status.CanRevertTo(status)) {
			return current, production.ErrStatusTransition
		}
		current.Status = status
		return current, nil
	}}
	return s.run(ctx, KindUpdateStatus, []change{ch}, func(ctx context.Context) error {
		return s.gw.UpdateStatus(ctx, id, status)
	})
}

func (s *Store) prepareNew(o production.Order) production.Order {
	if strings.TrimSpace(o.ID) == "" {
		o.ID = s.newID()
	}
	if o.Status == "" {
		o.Status = production.StatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	o.UpdatedAt = nil
	return o
}

// run applies changes optimistically, performs the remote call and then confirms or rolls back
func (s *Store) run(ctx context.Context, kind MutationKind, changes []change, call func(context.Context) error) error {
	m, err := s.begin(kind, changes)
	if err != nil {
		return err
	}
	s.logger.Debug("Applied optimistic mutation",
		zap.Uint64("seq", m.seq),
		zap.String("kind", string(kind)),
		zap.Strings("order_ids", m.ids),
	)

	ctx, span := tracer.Start(ctx, "orderstore."+string(kind), trace.WithAttributes(
		attribute.Int64("mutation.seq", int64(m.seq)),
		attribute.StringSlice("order.ids", m.ids),
	))
	callErr := call(ctx)
	s.finish(m, callErr)
	if callErr != nil {
		span.RecordError(callErr)
		span.SetStatus(codes.Error, callErr.Error())
	}
	span.End()

	if s.metrics != nil {
		s.metrics.ObserveMutation(kind, m.record.Outcome, m.record.Duration())
	}
	if s.recorder != nil {
		if err := s.recorder.RecordMutation(context.WithoutCancel(ctx), m.record); err != nil {
			s.logger.Warn("Failed to record mutation", zap.Uint64("seq", m.seq), zap.Error(err))
		}
	}

	if callErr != nil {
		s.logger.Warn("Rolled back mutation",
			zap.Uint64("seq", m.seq),
			zap.String("kind", string(kind)),
			zap.Strings("order_ids", m.ids),
			zap.Error(callErr),
		)
		return syncError(callErr)
	}

	s.logger.Info("Confirmed mutation",
		zap.Uint64("seq", m.seq),
		zap.String("kind", string(kind)),
		zap.Int("orders", len(m.ids)),
	)
	s.invalidateStats(ctx)
	return nil
}

// begin validates changes against the current collection, publishes the optimistic snapshot
// and registers the mutation as the latest writer of every affected id.
// Nothing is published when any change is rejected.
func (s *Store) begin(kind MutationKind, changes []change) (*mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[string]int, len(s.orders))
	for i, o := range s.orders {
		index[o.ID] = i
	}

	m := &mutation{
		seq:    s.seq + 1,
		kind:   kind,
		before: make(map[string]*production.Order, len(changes)),
	}
	var inserted []production.Order
	replaced := make(map[string]production.Order)

	for _, c := range changes {
		if c.insert != nil {
			if _, exists := index[c.id]; exists {
				return nil, production.ErrDuplicateOrder
			}
			if _, seen := m.before[c.id]; seen {
				return nil, production.ErrDuplicateOrder
			}
			if err := c.insert.Validate(); err != nil {
				return nil, err
			}
			m.before[c.id] = nil
			m.ids = append(m.ids, c.id)
			inserted = append(inserted, *c.insert)
			continue
		}

		i, ok := index[c.id]
		if !ok {
			return nil, production.ErrOrderNotFound
		}
		current, seen := replaced[c.id]
		if !seen {
			current = s.orders[i]
			prev := s.orders[i]
			m.before[c.id] = &prev
			m.ids = append(m.ids, c.id)
		}
		next, err := c.patch(current)
		if err != nil {
			return nil, err
		}
		next.ID = c.id
		next.UpdatedAt = current.UpdatedAt
		if err := next.Validate(); err != nil {
			return nil, err
		}
		replaced[c.id] = next
	}

	next := make([]production.Order, 0, len(inserted)+len(s.orders))
	next = append(next, inserted...)
	for _, o := range s.orders {
		if r, ok := replaced[o.ID]; ok {
			next = append(next, r)
			continue
		}
		next = append(next, o)
	}

	s.seq = m.seq
	for _, id := range m.ids {
		s.writers[id] = append(s.writers[id], m)
	}
	m.record = MutationRecord{
		Seq:       m.seq,
		Kind:      kind,
		OrderIDs:  m.ids,
		StartedAt: s.now(),
	}
	s.setLocked(next)
	return m, nil
}

// finish settles a mutation. Per id, only the latest writer touches the collection:
// on success it stamps UpdatedAt, on failure it restores its before value.
// A failing earlier writer hands its before value to its successor instead, so the
// successor's own rollback skips the failed change. A confirmed writer also releases
// every earlier writer of the id, whose later rollback would otherwise undo it.
func (s *Store) finish(m *mutation, callErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	current := s.orders
	changed := false

	for _, id := range m.ids {
		chain := s.writers[id]
		pos := -1
		for i, w := range chain {
			if w == m {
				pos = i
				break
			}
		}
		if pos < 0 {
			continue
		}
		last := pos == len(chain)-1

		var rest []*mutation
		if callErr == nil {
			rest = append(rest, chain[pos+1:]...)
		} else {
			rest = append(append(rest, chain[:pos]...), chain[pos+1:]...)
		}
		if len(rest) == 0 {
			delete(s.writers, id)
		} else {
			s.writers[id] = rest
		}

		if callErr == nil {
			if last {
				if next, ok := stampUpdated(current, id, now); ok {
					current, changed = next, true
				}
			}
			continue
		}

		if !last {
			chain[pos+1].before[id] = m.before[id]
			continue
		}
		if next, ok := restore(current, id, m.before[id]); ok {
			current, changed = next, true
		}
	}

	m.record.FinishedAt = now
	if callErr != nil {
		m.record.Outcome = OutcomeRolledBack
		m.record.Error = callErr.Error()
	} else {
		m.record.Outcome = OutcomeConfirmed
	}

	if changed {
		s.setLocked(current)
	}
}

func stampUpdated(orders []production.Order, id string, now time.Time) ([]production.Order, bool) {
	for i, o := range orders {
		if o.ID != id {
			continue
		}
		next := make([]production.Order, len(orders))
		copy(next, orders)
		t := now
		next[i].UpdatedAt = &t
		return next, true
	}
	return orders, false
}

// restore puts prev back in place of id, or removes id when prev is nil.
// Ids no longer in the collection are left alone.
func restore(orders []production.Order, id string, prev *production.Order) ([]production.Order, bool) {
	for i, o := range orders {
		if o.ID != id {
			continue
		}
		if prev == nil {
			next := make([]production.Order, 0, len(orders)-1)
			next = append(next, orders[:i]...)
			return append(next, orders[i+1:]...), true
		}
		next := make([]production.Order, len(orders))
		copy(next, orders)
		next[i] = *prev
		return next, true
	}
	return orders, false
}
