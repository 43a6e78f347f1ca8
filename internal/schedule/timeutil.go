package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/benmeehan/hydro-controller/internal/utils"
)

// Everyday is the day value of a schedule that applies to the whole week.
const Everyday = "Everyday"

// Days lists the accepted day values in display order.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday", Everyday}

var daySet = utils.SliceToSet(Days)

var clockLayouts = []string{"15:04", "15:04:05"}

// NormalizeDay returns the canonical spelling of day, e.g. "monday" -> "Monday".
func NormalizeDay(day string) (string, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDay)
	}
	canonical := strings.ToUpper(day[:1]) + strings.ToLower(day[1:])
	if _, ok := daySet[canonical]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	return canonical, nil
}

// ParseClock parses a wall-clock time on the common reference date (year 0, Jan 1).
// Seconds are accepted and dropped, since entries are kept to the minute.
func ParseClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location()), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// WindowMinutes is the length of the window from start to end in whole minutes.
// An end before the start is taken to fall on the following day.
func WindowMinutes(start, end time.Time) (minutes int, overnight bool) {
	d := end.Sub(start)
	if d < 0 {
		d += 24 * time.Hour
		overnight = true
	}
	return int(d / time.Minute), overnight
}

// FormatClock renders a parsed clock as HH:MM.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}
