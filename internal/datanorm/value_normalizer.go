package datanorm

import (
	"strconv"
	"strings"
	"time"
)

// NormalizePhone reduces a phone representation to its join key: the last
// ten digits of its digit-only form, or every digit when there are fewer.
// Empty input (or input with no digits) yields "".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) > 10 {
		return d[len(d)-10:]
	}
	return d
}

// parseBool accepts the spellings seen in validation exports. ok is false
// for empty or unrecognised values.
func parseBool(val string) (v bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "t", "1", "yes", "y", "live", "reachable":
		return true, true
	case "false", "f", "0", "no", "n", "not live", "unreachable":
		return false, true
	}
	return false, false
}

// parseCount parses a non-negative integer count, tolerating a decimal
// form such as "3.0". ok is false when the value is unusable.
func parseCount(val string) (int, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(val); err == nil {
		return n, n >= 0
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// DateLayouts are the calendar date spellings accepted in export date
// columns, tried in order.
var DateLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04PM",
}

// ParseDate parses a date-only value in loc. A value carrying a trailing
// time (as "10/15/2025 14:30") is parsed on its date part.
func ParseDate(val string, loc *time.Location) (time.Time, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.In(loc), true
	}
	if i := strings.IndexAny(val, " T"); i > 0 {
		val = val[:i]
	}
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, val, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseCallTimestamp combines a Kixie date and time column, falling back to
// the date alone. nil means neither form parsed.
func parseCallTimestamp(date, clock string, loc *time.Location) *time.Time {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return nil
	}
	if clock != "" {
		combined := date + " " + clock
		for _, dl := range DateLayouts {
			for _, tl := range timeLayouts {
				if t, err := time.ParseInLocation(dl+" "+tl, combined, loc); err == nil {
					return &t
				}
			}
		}
	}
	if t, ok := ParseDate(date, loc); ok {
		return &t
	}
	return nil
}

func agentName(first, last string) string {
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		return "Unknown"
	}
	return name
}
