package production

import "time"

// SlotGroup is one delivery window of the kitchen board
type SlotGroup struct {
	Slot     TimeSlot       `json:"slot"`
	Label    string         `json:"label"`
	Products []ProductGroup `json:"products"`
}

// ProductGroup gathers every line of one product inside a window
type ProductGroup struct {
	Product       string      `json:"product"`
	TotalQuantity int         `json:"totalQuantity"`
	IsUrgent      bool        `json:"isUrgent"`
	Status        Status      `json:"status"`
	Sizes         []SizeGroup `json:"sizes"`
}

// SizeGroup gathers the lines of one product and size.
// It is the unit the kitchen acts on with group actions.
type SizeGroup struct {
	Size          string           `json:"size"`
	TotalQuantity int              `json:"totalQuantity"`
	HasNotes      bool             `json:"hasNotes"`
	Status        Status           `json:"status"`
	Fillings      []FillingSummary `json:"fillings"`
	Orders        []Order          `json:"orders"`
}

// FillingSummary is the per-filling breakdown of a size group
type FillingSummary struct {
	Filling  string `json:"filling"`
	Quantity int    `json:"quantity"`
	HasNotes bool   `json:"hasNotes"`
}

// AggregateOptions controls how Aggregate builds the board
type AggregateOptions struct {
	UseTimeSlots  bool
	Now           time.Time
	UrgencyWindow time.Duration
}

// Group reorganizes a filtered list of lines into window → product → size groups.
// It never mutates its input.
func Group(orders []Order, useTimeSlots bool, now time.Time) []SlotGroup {
	return Aggregate(orders, AggregateOptions{
		UseTimeSlots:  useTimeSlots,
		Now:           now,
		UrgencyWindow: DefaultUrgencyWindow,
	})
}

// Aggregate is Group with explicit options
func Aggregate(orders []Order, opts AggregateOptions) []SlotGroup {
	if opts.UrgencyWindow <= 0 {
		opts.UrgencyWindow = DefaultUrgencyWindow
	}

	buckets := make(map[TimeSlot][]Order)
	for _, o := range orders {
		slot := SlotAll
		if opts.UseTimeSlots {
			slot = ClassifyTimeSlot(o.DeliveryAt)
		}
		buckets[slot] = append(buckets[slot], o)
	}

	slots := []TimeSlot{SlotAll}
	if opts.UseTimeSlots {
		slots = AllTimeSlots()
	}

	result := make([]SlotGroup, 0, len(slots))
	for _, slot := range slots {
		members := buckets[slot]
		if len(members) == 0 {
			continue
		}
		result = append(result, SlotGroup{
			Slot:     slot,
			Label:    slot.Label(),
			Products: groupByProduct(members, opts),
		})
	}
	return result
}

func groupByProduct(orders []Order, opts AggregateOptions) []ProductGroup {
	index := make(map[string]int)
	members := make([][]Order, 0)
	products := make([]ProductGroup, 0)

	for _, o := range orders {
		i, ok := index[o.Product]
		if !ok {
			i = len(products)
			index[o.Product] = i
			products = append(products, ProductGroup{Product: o.Product})
			members = append(members, nil)
		}
		products[i].TotalQuantity += o.Quantity
		if IsUrgentWithin(o, opts.Now, opts.UrgencyWindow) {
			products[i].IsUrgent = true
		}
		members[i] = append(members[i], o)
	}

	for i := range products {
		products[i].Sizes = groupBySize(members[i])
		statuses := make([]Status, len(products[i].Sizes))
		for j, sg := range products[i].Sizes {
			statuses[j] = sg.Status
		}
		products[i].Status = RollupStatus(statuses)
	}
	return products
}

func groupBySize(orders []Order) []SizeGroup {
	index := make(map[string]int)
	sizes := make([]SizeGroup, 0)

	for _, o := range orders {
		i, ok := index[o.Size]
		if !ok {
			i = len(sizes)
			index[o.Size] = i
			sizes = append(sizes, SizeGroup{Size: o.Size})
		}
		sg := &sizes[i]
		sg.TotalQuantity += o.Quantity
		if o.HasKitchenNotes() {
			sg.HasNotes = true
		}
		sg.Orders = append(sg.Orders, o)
		sg.Fillings = addFilling(sg.Fillings, o)
	}

	for i := range sizes {
		statuses := make([]Status, len(sizes[i].Orders))
		for j, o := range sizes[i].Orders {
			statuses[j] = o.Status
		}
		sizes[i].Status = RollupStatus(statuses)
	}
	return sizes
}

func addFilling(fillings []FillingSummary, o Order) []FillingSummary {
	for i := range fillings {
		if fillings[i].Filling == o.Filling {
			fillings[i].Quantity += o.Quantity
			fillings[i].HasNotes = fillings[i].HasNotes || o.HasKitchenNotes()
			return fillings
		}
	}
	return append(fillings, FillingSummary{
		Filling:  o.Filling,
		Quantity: o.Quantity,
		HasNotes: o.HasKitchenNotes(),
	})
}

// RollupStatus derives a parent status from its children:
// Done when every child is Done or Delivered, otherwise InProgress when any child is
// InProgress, otherwise Pending.
func RollupStatus(statuses []Status) Status {
	if len(statuses) == 0 {
		return StatusPending
	}
	allFinished := true
	anyInProgress := false
	for _, s := range statuses {
		if !s.IsFinished() {
			allFinished = false
		}
		if s == StatusInProgress {
			anyInProgress = true
		}
	}
	switch {
	case allFinished:
		return StatusDone
	case anyInProgress:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// Leaves returns every order of the board, in board order
func Leaves(groups []SlotGroup) []Order {
	var out []Order
	for _, sg := range groups {
		for _, pg := range sg.Products {
			for _, size := range pg.Sizes {
				out = append(out, size.Orders...)
			}
		}
	}
	return out
}
