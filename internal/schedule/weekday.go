package schedule

import (
	"fmt"
	"time"
)

// Weekday is the three-letter English abbreviation used as the schedule day key.
type Weekday string

const (
	Mon Weekday = "Mon"
	Tue Weekday = "Tue"
	Wed Weekday = "Wed"
	Thu Weekday = "Thu"
	Fri Weekday = "Fri"
	Sat Weekday = "Sat"
	Sun Weekday = "Sun"
)

// AllWeekdays lists the weekdays in display order.
var AllWeekdays = []Weekday{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

// WeekdayOf returns the abbreviation of t's weekday.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday().String()[:3])
}

// ParseWeekday validates a day key.
func ParseWeekday(s string) (Weekday, error) {
	for _, d := range AllWeekdays {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

// Index is the position of d in AllWeekdays, or -1.
func (d Weekday) Index() int {
	for i, w := range AllWeekdays {
		if w == d {
			return i
		}
	}
	return -1
}
