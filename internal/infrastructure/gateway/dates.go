package gateway

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isoLayouts are tried in order; layouts without a zone are read in the gateway's location
var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

// DD/MM/YYYY with an optional H[:mm[:ss]] part; single-digit components are accepted
var legacyDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:[ T]+(\d{1,2})(?::(\d{1,2}))?(?::(\d{1,2}))?)?$`)

// ParseDate reads a sheet date in ISO-8601 or legacy DD/MM/YYYY[ HH:mm[:ss]] form.
// Missing time components are zero. An empty value is the zero time.
// The result is always expressed in loc, so zoned instants read as shop-local wall time.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}

	for _, l := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
			t = t.In(loc)
		} else {
			t, err = time.ParseInLocation(l.layout, s, loc)
		}
		if err == nil {
			return t, nil
		}
	}

	m := legacyDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
	}
	parts := make([]int, 6)
	for i := 1; i <= 6; i++ {
		if m[i] == "" {
			continue
		}
		parts[i-1], _ = strconv.Atoi(m[i])
	}
	day, month, year, hour, minute, second := parts[0], parts[1], parts[2], parts[3], parts[4], parts[5]
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("date out of range %q", raw)
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("date out of range %q", raw)
	}
	return t, nil
}

// FormatDate renders t for the remote API; the zero time is empty
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
