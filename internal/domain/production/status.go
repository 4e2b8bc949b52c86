package production

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Status represents the production lifecycle state of a single order line
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusDone       Status = "Done"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// AllStatuses returns every status in lifecycle order
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusInProgress,
		StatusDone,
		StatusDelivered,
		StatusCancelled,
	}
}

// IsValid checks if the status is one of the five canonical statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Rank returns the position of the status in the forward lifecycle.
// Cancelled sits outside the lifecycle and ranks -1.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusInProgress:
		return 1
	case StatusDone:
		return 2
	case StatusDelivered:
		return 3
	}
	return -1
}

// IsFinished reports whether the line needs no more kitchen work
func (s Status) IsFinished() bool {
	return s == StatusDone || s == StatusDelivered
}

// CanTransitionTo checks if an individual order may move to target.
// Staying on the same status is accepted as a no-op.
func (s Status) CanTransitionTo(target Status) bool {
	if !s.IsValid() || !target.IsValid() {
		return false
	}
	if s == target {
		return true
	}
	switch s {
	case StatusCancelled:
		return false
	case StatusPending, StatusInProgress:
		if target == StatusCancelled {
			return true
		}
	}
	if target == StatusCancelled {
		return false
	}
	return target.Rank() > s.Rank()
}

// CanRevertTo reports whether the administrative group "undo" may move s back to target.
// Only the revert to Pending exists, and never out of Cancelled.
func (s Status) CanRevertTo(target Status) bool {
	return target == StatusPending && s.IsValid() && s != StatusCancelled
}

// statusAliases maps normalized free-form remote values onto canonical statuses
var statusAliases = map[string]Status{
	"pending":     StatusPending,
	"pendiente":   StatusPending,
	"nuevo":       StatusPending,
	"inprogress":  StatusInProgress,
	"in progress": StatusInProgress,
	"in_progress": StatusInProgress,
	"horno":       StatusInProgress,
	"en horno":    StatusInProgress,
	"en curso":    StatusInProgress,
	"en proceso":  StatusInProgress,
	"done":        StatusDone,
	"producido":   StatusDone,
	"listo":       StatusDone,
	"finalizado":  StatusDone,
	"hecho":       StatusDone,
	"terminado":   StatusDone,
	"delivered":   StatusDelivered,
	"entregado":   StatusDelivered,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
	"cancelado":   StatusCancelled,
	"anulado":     StatusCancelled,
}

// NormalizeStatus maps a free-form status string from the remote sheet onto a canonical
// Status. Matching ignores case, surrounding whitespace and accents. Unknown values are Pending.
func NormalizeStatus(raw string) Status {
	key := FoldText(raw)
	if st, ok := statusAliases[key]; ok {
		return st
	}
	return StatusPending
}

// FoldText lower-cases s, strips diacritics and collapses inner whitespace
func FoldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
