package shared

import (
	"net/url"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateRange reads optional "from" and "to" query dates. Malformed values are ignored.
func DateRange(q url.Values) (from, to *time.Time) {
	if d, err := ParseDate(q.Get("from")); err == nil {
		from = &d
	}
	if d, err := ParseDate(q.Get("to")); err == nil {
		to = &d
	}
	return from, to
}
