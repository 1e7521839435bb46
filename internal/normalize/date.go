package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeDate = regexp.MustCompile(`^(\d+|an?|one)\s+(seconds?|secs?|minutes?|mins?|hours?|hrs?|days?|weeks?|months?|years?)\s+ago$`)

var absoluteLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ResolveDate turns a source date into an absolute UTC time. Relative
// forms ("3 hours ago", "yesterday") are resolved against fetchedAt,
// bare digits are read as a unix timestamp and everything else must
// match one of the known layouts.
func ResolveDate(text string, fetchedAt time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	switch s {
	case "just now", "now":
		return fetchedAt.UTC(), nil
	case "today":
		return truncateDay(fetchedAt), nil
	case "yesterday":
		return truncateDay(fetchedAt).AddDate(0, 0, -1), nil
	}

	if m := relativeDate.FindStringSubmatch(s); m != nil {
		n := 1
		if m[1] != "a" && m[1] != "an" && m[1] != "one" {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid relative date %q: %w", text, err)
			}
			n = v
		}
		return subtractUnit(fetchedAt, n, m[2]).UTC(), nil
	}

	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), nil
	}

	raw := strings.TrimSpace(text)
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", text)
}

func subtractUnit(from time.Time, n int, unit string) time.Time {
	switch strings.TrimSuffix(unit, "s") {
	case "second", "sec":
		return from.Add(-time.Duration(n) * time.Second)
	case "minute", "min":
		return from.Add(-time.Duration(n) * time.Minute)
	case "hour", "hr":
		return from.Add(-time.Duration(n) * time.Hour)
	case "day":
		return from.AddDate(0, 0, -n)
	case "week":
		return from.AddDate(0, 0, -7*n)
	case "month":
		return from.AddDate(0, -n, 0)
	default:
		return from.AddDate(-n, 0, 0)
	}
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
