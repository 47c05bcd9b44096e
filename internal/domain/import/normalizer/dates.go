package normalizer

import (
	"strings"
	"time"
)

// dayFirstLayouts are tried in order. Go's "2" and "1" accept one or two
// digits, so "2/1/2006" covers both 05/01/2024 and 5/1/2024.
var dayFirstLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2-1-2006",
	"2-1-2006 15:04",
	"2-1-2006 15:04:05",
	"2.1.2006",
	"2.1.2006 15:04",
	"2/1/06",
	"2/1/06 15:04",
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
}

// ParseDayFirst parses a date written day before month. Year-first ISO dates
// are accepted as well. Times are kept; the result is in UTC.
func ParseDayFirst(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
