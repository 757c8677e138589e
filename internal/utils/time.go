package utils

import (
	"strings"
	"time"
)

const (
	layoutTime12 = "03:04 PM"
	layoutDay    = "Mon, Jan 2"
)

// FormatClock renders a time the way bus cards show it ("02:30 PM"), or
// "--:--" for the zero time.
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Format(layoutTime12)
}

// FormatDay renders "Thu, Nov 27", or "" for the zero time.
func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layoutDay)
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDateTime accepts RFC 3339 and the datetime-local shapes forms send.
// Values without an offset are read in loc.
func ParseDateTime(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
