package production

import "time"

// DefaultUrgencyWindow is how far ahead a same-day delivery counts as urgent
const DefaultUrgencyWindow = 3 * time.Hour

// IsUrgent reports whether the order is due today and less than three hours from now
func IsUrgent(o Order, now time.Time) bool {
	return IsUrgentWithin(o, now, DefaultUrgencyWindow)
}

// IsUrgentWithin is IsUrgent with an explicit window.
// Past-due and other-day deliveries are never urgent.
func IsUrgentWithin(o Order, now time.Time, window time.Duration) bool {
	if !SameDay(o.DeliveryAt, now) {
		return false
	}
	remaining := o.DeliveryAt.Sub(now)
	return remaining > 0 && remaining < window
}

// SameDay reports whether t falls on the same calendar date as ref, in ref's location
func SameDay(t, ref time.Time) bool {
	ty, tm, td := t.In(ref.Location()).Date()
	ry, rm, rd := ref.Date()
	return ty == ry && tm == rm && td == rd
}
