// Package format holds the pure display helpers used by the dashboard views.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Placeholder is shown for missing or zero values.
const Placeholder = "—"

// DisplayLayout mirrors the en-US locale string: 1/2/2006, 3:04:05 PM.
const DisplayLayout = "1/2/2006, 3:04:05 PM"

// Duration formats a nullable count of seconds. nil and 0 yield Placeholder.
func Duration(seconds *int64) string {
	if seconds == nil {
		return Placeholder
	}
	return Seconds(*seconds)
}

// Seconds formats n as "{m}m {s}s", or "{s}s" under a minute.
func Seconds(n int64) string {
	if n == 0 {
		return Placeholder
	}
	mins := n / 60
	secs := n % 60
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// Percent prints v with the shortest exact representation followed by %.
func Percent(v float64) string {
	return Number(v) + "%"
}

// Number prints v without trailing zeros: 42, 42.5, 33.333333333333336.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// zoned layouts carry their own offset; naive ones are read in the display location.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC1123Z,
		time.RFC1123,
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02",
	}
)

// ParseTimestamp reads the ISO-8601 variants the backend emits. Values
// without an offset are taken to be in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Timestamp localizes raw into loc. Empty input yields Placeholder and
// unparseable input is returned unchanged.
func Timestamp(raw string, loc *time.Location) string {
	if strings.TrimSpace(raw) == "" {
		return Placeholder
	}
	if loc == nil {
		loc = time.Local
	}
	t, ok := ParseTimestamp(raw, loc)
	if !ok {
		return raw
	}
	return t.In(loc).Format(DisplayLayout)
}

// OptionalTimestamp is Timestamp for nullable fields.
func OptionalTimestamp(raw *string, loc *time.Location) string {
	if raw == nil {
		return Placeholder
	}
	return Timestamp(*raw, loc)
}
