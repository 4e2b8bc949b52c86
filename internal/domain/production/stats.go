package production

import (
	"context"
	"time"
)

// RemoteStats is the opaque statistics object returned alongside a fetch.
// It is passed through untouched.
type RemoteStats map[string]any

// DailyStats summarizes one calendar day of production
type DailyStats struct {
	Date           string         `json:"date"`
	Total          int            `json:"total"`
	ByStatus       map[Status]int `json:"byStatus"`
	Units          int            `json:"units"`
	DeliveredToday int            `json:"deliveredToday"`
	PendingUnits   int            `json:"pendingUnits"`
	Urgent         int            `json:"urgent"`
}

// DayKey formats a day the way stats are keyed
func DayKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// ComputeStats rolls up every non-cancelled line delivered on day.
// Lines already in the shop count too. Urgency is evaluated against now.
func ComputeStats(orders []Order, day, now time.Time) DailyStats {
	stats := DailyStats{
		Date:     DayKey(day),
		ByStatus: make(map[Status]int, len(AllStatuses())),
	}
	for _, o := range orders {
		if !SameDay(o.DeliveryAt, day) {
			continue
		}
		stats.ByStatus[o.Status]++
		if o.Status == StatusCancelled {
			continue
		}
		stats.Total++
		stats.Units += o.Quantity
		switch o.Status {
		case StatusDelivered:
			stats.DeliveredToday++
		case StatusPending, StatusInProgress:
			stats.PendingUnits += o.Quantity
		}
		if IsUrgent(o, now) {
			stats.Urgent++
		}
	}
	return stats
}

// StatsCache stores computed daily statistics keyed by day
type StatsCache interface {
	// Get returns the cached stats for day, or nil when absent or expired
	Get(ctx context.Context, day string) (*DailyStats, error)

	// Set stores stats under stats.Date for ttl
	Set(ctx context.Context, stats DailyStats, ttl time.Duration) error

	// InvalidateAll drops every cached day
	InvalidateAll(ctx context.Context) error

	// Close releases resources
	Close() error
}
