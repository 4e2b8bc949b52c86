package orderstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MutationKind names the store operation behind a mutation
type MutationKind string

const (
	KindAdd          MutationKind = "add"
	KindAddMany      MutationKind = "add_many"
	KindUpdate       MutationKind = "update"
	KindUpdateMany   MutationKind = "update_many"
	KindUpdateStatus MutationKind = "update_status"
)

// Outcome is how an optimistic mutation ended
type Outcome string

const (
	OutcomeConfirmed  Outcome = "confirmed"
	OutcomeRolledBack Outcome = "rolled_back"
)

// MutationRecord describes one finished mutation
type MutationRecord struct {
	Seq        uint64       `json:"seq"`
	Kind       MutationKind `json:"kind"`
	OrderIDs   []string     `json:"orderIds"`
	Outcome    Outcome      `json:"outcome"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
}

// Duration returns how long the mutation was in flight
func (r MutationRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// MutationRecorder receives every finished mutation, for auditing
type MutationRecorder interface {
	RecordMutation(ctx context.Context, rec MutationRecord) error
}

// Metrics observes store activity
type Metrics interface {
	ObserveMutation(kind MutationKind, outcome Outcome, d time.Duration)
	ObserveRefresh(err error, d time.Duration)
	SetOrderCount(n int)
}

// StatsInvalidator drops cached statistics after the collection changes
type StatsInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the mutation recorder
func WithRecorder(r MutationRecorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// WithMetrics sets the metrics observer
func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithStatsInvalidator sets the statistics cache invalidated on every confirmed change
func WithStatsInvalidator(inv StatsInvalidator) Option {
	return func(s *Store) {
		s.invalidator = inv
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how ids are assigned to new orders
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func defaultIDGenerator() string {
	return uuid.NewString()
}
