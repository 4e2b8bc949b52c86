// Package kitchen builds the kitchen production board on top of the order store.
package kitchen

import (
	"context"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrGroupActionFailed is returned when any member of a group action could not be updated
var ErrGroupActionFailed = shared.NewDomainError("GROUP_ACTION_FAILED", "Some orders of the group could not be updated")

// OrderSource is the part of the order store the kitchen needs
type OrderSource interface {
	Snapshot() []production.Order
	UpdateStatuses(ctx context.Context, ids []string, status production.Status) error
	Refresh(ctx context.Context) error
}

// Service handles kitchen board operations
type Service struct {
	orders        OrderSource
	statsCache    production.StatsCache
	statsTTL      time.Duration
	urgencyWindow time.Duration
	logger        *zap.Logger
	now           func() time.Time
	location      *time.Location
}

// NewService creates a new kitchen Service
func NewService(orders OrderSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:        orders,
		urgencyWindow: production.DefaultUrgencyWindow,
		logger:        logger,
		now:           time.Now,
	}
}

// SetStatsCache enables caching of daily statistics
func (s *Service) SetStatsCache(cache production.StatsCache, ttl time.Duration) {
	s.statsCache = cache
	s.statsTTL = ttl
}

// SetUrgencyWindow overrides how far ahead a delivery counts as urgent
func (s *Service) SetUrgencyWindow(window time.Duration) {
	if window > 0 {
		s.urgencyWindow = window
	}
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetLocation sets the shop time zone. Delivery times and the clock are read in loc
// before slots, calendar days and urgency are evaluated.
func (s *Service) SetLocation(loc *time.Location) {
	s.location = loc
}

func (s *Service) clock() time.Time {
	if s.location == nil {
		return s.now()
	}
	return s.now().In(s.location)
}

func (s *Service) snapshot() []production.Order {
	return production.InLocation(s.orders.Snapshot(), s.location)
}

// View filters the current snapshot and groups it into the kitchen board
func (s *Service) View(req ViewRequest) ViewResponse {
	now := s.clock()
	filtered := req.Filter.Apply(s.snapshot())
	return ViewResponse{
		GeneratedAt: now,
		UseSlots:    req.UseTimeSlots,
		OrderCount:  len(filtered),
		Groups: production.Aggregate(filtered, production.AggregateOptions{
			UseTimeSlots:  req.UseTimeSlots,
			Now:           now,
			UrgencyWindow: s.urgencyWindow,
		}),
	}
}

// ApplyGroupAction moves the matching members of a group to the requested status.
// Every targeted update is awaited before the collection is refreshed.
// Any failure is reported as a single ErrGroupActionFailed.
func (s *Service) ApplyGroupAction(ctx context.Context, req GroupActionRequest) (*GroupActionResult, error) {
	if !req.Status.IsValid() {
		return nil, production.ErrInvalidStatus
	}

	wanted := make(map[string]struct{}, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		wanted[id] = struct{}{}
	}
	var members []production.Order
	for _, o := range s.orders.Snapshot() {
		if _, ok := wanted[o.ID]; ok {
			members = append(members, o)
		}
	}
	if len(members) == 0 {
		return nil, production.ErrOrderNotFound
	}

	result := &GroupActionResult{
		Requested: req.Status,
		Targets:   production.GroupActionTargets(members, req.Status),
	}
	if len(result.Targets) == 0 {
		result.NoOp = true
		return result, nil
	}

	updateErr := s.orders.UpdateStatuses(ctx, result.Targets, req.Status)
	if err := s.orders.Refresh(ctx); err != nil {
		s.logger.Warn("Failed to refresh after group action", zap.Error(err))
	}
	if updateErr != nil {
		s.logger.Warn("Group action failed",
			zap.String("status", req.Status.String()),
			zap.Int("targets", len(result.Targets)),
			zap.Error(updateErr),
		)
		return nil, shared.WrapDomainError(ErrGroupActionFailed.Code, ErrGroupActionFailed.Message, updateErr)
	}

	s.logger.Info("Group action applied",
		zap.String("status", req.Status.String()),
		zap.Int("targets", len(result.Targets)),
	)
	return result, nil
}

// Stats returns the statistics for day, served from cache when possible
func (s *Service) Stats(ctx context.Context, day time.Time) (production.DailyStats, error) {
	if s.location != nil {
		day = day.In(s.location)
	}
	key := production.DayKey(day)
	if s.statsCache != nil {
		cached, err := s.statsCache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("Stats cache read failed", zap.String("day", key), zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	stats := production.ComputeStats(s.snapshot(), day, s.clock())

	if s.statsCache != nil {
		if err := s.statsCache.Set(ctx, stats, s.statsTTL); err != nil {
			s.logger.Warn("Stats cache write failed", zap.String("day", key), zap.Error(err))
		}
	}
	return stats, nil
}
