package ruuvistation

import (
	"strings"
	"time"

	event "ruuvari-collector/internal/event/domain"
)

// Layouts seen in Ruuvi Station updateAt fields, tried in order:
//
//	Apr 14, 2018 12:22:27 AM
//	Apr 17, 2018 09:32:00
var timestampLayouts = []string{
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006 15:04:05",
}

// ParseTimestamp resolves a Ruuvi Station time string. The first matching
// layout wins; the wall clock is read in loc and returned in UTC.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	normalized := upperDesignator(value)
	for _, layout := range timestampLayouts {
		ts, err := time.ParseInLocation(layout, normalized, loc)
		if err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, &event.ParseError{Value: value}
}

// upperDesignator upper-cases a trailing am/pm, which the layout only
// matches in upper case.
func upperDesignator(value string) string {
	n := len(value)
	if n < 3 || value[n-3] != ' ' {
		return value
	}
	switch suffix := strings.ToUpper(value[n-2:]); suffix {
	case "AM", "PM":
		return value[:n-2] + suffix
	}
	return value
}
