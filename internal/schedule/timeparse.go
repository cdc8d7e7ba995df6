package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnparsableTime is returned when class time text matches neither accepted format.
var ErrUnparsableTime = errors.New("unrecognized class time")

// Both layouts require two-digit minutes, so "4:5 PM" is rejected.
const (
	layout12h = "3:04 PM"
	layout24h = "15:04"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NormalizeTimeText trims and upper-cases class time text.
func NormalizeTimeText(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// ParseClassTime accepts "4:00 PM" style 12-hour text or "16:00" style 24-hour text.
func ParseClassTime(text string) (TimeOfDay, error) {
	s := NormalizeTimeText(text)
	if t, err := time.Parse(layout12h, s); err == nil && !zeroHour(s) {
		return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
	}
	if t, err := time.Parse(layout24h, s); err == nil {
		return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrUnparsableTime, text)
}

// zeroHour reports a "0:xx PM" hour field, which time.Parse accepts but a
// 12-hour clock does not have.
func zeroHour(s string) bool {
	hour, _, ok := strings.Cut(s, ":")
	return ok && strings.Trim(hour, "0") == ""
}

// On places the time of day on the calendar date of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
