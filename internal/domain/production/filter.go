package production

import (
	"strings"
	"time"
)

// KitchenFilter selects the lines shown on the kitchen board.
// Zero-valued fields do not filter.
type KitchenFilter struct {
	Family    string
	Search    string
	Date      time.Time
	Statuses  []Status
	TimeSlots []TimeSlot
}

// Apply returns the lines the kitchen should see, in input order.
// Cancelled lines are always dropped, and lines already in the shop are dropped unless delivered.
func (f KitchenFilter) Apply(orders []Order) []Order {
	family := FoldText(f.Family)
	search := FoldText(f.Search)

	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == StatusCancelled {
			continue
		}
		if o.AlreadyInShop && o.Status != StatusDelivered {
			continue
		}
		if family != "" && !matchesFamily(o, family) {
			continue
		}
		if search != "" && !strings.Contains(FoldText(o.Product), search) {
			continue
		}
		if !f.Date.IsZero() && !SameDay(o.DeliveryAt, f.Date) {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status) {
			continue
		}
		if len(f.TimeSlots) > 0 && !containsSlot(f.TimeSlots, ClassifyTimeSlot(o.DeliveryAt)) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesFamily(o Order, folded string) bool {
	source := o.Family
	if strings.TrimSpace(source) == "" {
		source = o.Product
	}
	return strings.Contains(FoldText(source), folded)
}

func containsStatus(set []Status, s Status) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsSlot(set []TimeSlot, s TimeSlot) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}
