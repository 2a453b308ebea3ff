package search

import (
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006-01-02T15:04",
	time.RFC3339,
}

// ParseTimestamp reads the loosely formatted timestamps found in the dataset.
// Zone-less values are interpreted in loc. ok is false, and the zero time is
// returned, when s is empty or cannot be parsed.
func ParseTimestamp(s string, loc *time.Location) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	return parseLoose(s, loc)
}

func parseLoose(s string, loc *time.Location) (t time.Time, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("panic in timestamp parsing, treating as unknown", slog.String("timestamp", s), slog.Any("panic", r))
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
