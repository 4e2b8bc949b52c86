package production

import (
	"fmt"
	"strings"
	"time"
)

// TimeSlot is a fixed delivery window used to partition the day's production
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"   // [00:00, 11:00)
	SlotMidday    TimeSlot = "midday"    // [11:00, 14:00)
	SlotAfternoon TimeSlot = "afternoon" // [14:00, 16:00)
	SlotEvening   TimeSlot = "evening"   // [16:00, 24:00)

	// SlotAll is the single bucket used when grouping ignores delivery windows
	SlotAll TimeSlot = "all"
)

const (
	middayStart    = 11 * 60
	afternoonStart = 14 * 60
	eveningStart   = 16 * 60
)

// AllTimeSlots returns the four delivery windows in bucket order
func AllTimeSlots() []TimeSlot {
	return []TimeSlot{SlotMorning, SlotMidday, SlotAfternoon, SlotEvening}
}

// ClassifyTimeSlot maps a delivery time to its window by minute of day, in t's location
func ClassifyTimeSlot(t time.Time) TimeSlot {
	minute := t.Hour()*60 + t.Minute()
	switch {
	case minute < middayStart:
		return SlotMorning
	case minute < afternoonStart:
		return SlotMidday
	case minute < eveningStart:
		return SlotAfternoon
	default:
		return SlotEvening
	}
}

// IsValid checks that the slot is one of the four windows
func (s TimeSlot) IsValid() bool {
	switch s {
	case SlotMorning, SlotMidday, SlotAfternoon, SlotEvening:
		return true
	}
	return false
}

// Label returns the display label used on the kitchen board
func (s TimeSlot) Label() string {
	switch s {
	case SlotMorning:
		return "Antes de las 11:00"
	case SlotMidday:
		return "11:00 - 14:00"
	case SlotAfternoon:
		return "14:00 - 16:00"
	case SlotEvening:
		return "Desde las 16:00"
	case SlotAll:
		return "Todo el día"
	}
	return string(s)
}

// ParseTimeSlot parses a slot name as used in query strings
func ParseTimeSlot(raw string) (TimeSlot, error) {
	slot := TimeSlot(strings.ToLower(strings.TrimSpace(raw)))
	if !slot.IsValid() {
		return "", fmt.Errorf("unknown time slot %q", raw)
	}
	return slot, nil
}
