package domain

import (
	"time"
)

// Window is the recency filter for nearby queries.
type Window string

const (
	Window24h Window = "24h"
	Window3d  Window = "3d"
	Window7d  Window = "7d"

	// DefaultWindow applies when a query omits or misspells the window.
	DefaultWindow = Window24h
)

// ParseWindow maps a request string onto a known window, falling back to the
// default for anything unrecognized.
func ParseWindow(s string) Window {
	switch Window(s) {
	case Window24h, Window3d, Window7d:
		return Window(s)
	}
	return DefaultWindow
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	switch w {
	case Window3d:
		return 3 * 24 * time.Hour
	case Window7d:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// timestampLayouts are tried in order when coercing string timestamps.
// Records written by older backend revisions stored creation times as
// formatted strings rather than native dates.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CoerceTimestamp interprets a loosely typed creation timestamp. Stored
// events carry native times, epoch milliseconds, or parseable date strings
// depending on which backend revision wrote them. Returns false when the
// value is missing or unintelligible.
func CoerceTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case int64:
		return epochMillis(t)
	case int:
		return epochMillis(int64(t))
	case float64:
		return epochMillis(int64(t))
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func epochMillis(ms int64) (time.Time, bool) {
	if ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
