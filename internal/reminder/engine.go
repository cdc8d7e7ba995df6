// Package reminder decides which classes need a reminder in the current
// minute and sends them.
package reminder

import (
	"fmt"
	"time"

	"tuition/internal/schedule"
)

const (
	// Lead is how long before class start the reminder fires.
	Lead = 30 * time.Minute
	// Window is the width of the due window; the scan runs once per window.
	Window = time.Minute
)

// Occurrence is a weekly class of one student.
type Occurrence struct {
	StudentID   string
	StudentName string
	Subject     string
	Day         schedule.Weekday
	TimeText    string
}

// Reminder is an occurrence that is due now.
type Reminder struct {
	StudentID   string
	StudentName string
	Subject     string
	// TimeText is the normalized class time text.
	TimeText string
	ClassAt  time.Time
}

// Title of the notification.
func (r Reminder) Title() string { return "Class in 30 Mins!" }

// Message of the notification.
func (r Reminder) Message() string {
	return fmt.Sprintf("%s: %s at %s", r.StudentName, r.Subject, r.TimeText)
}

// Due returns the occurrences whose reminder instant falls in [remindAt, remindAt+Window).
// Occurrences on other weekdays or with unparsable times are skipped.
func Due(now time.Time, occs []Occurrence) []Reminder {
	today := schedule.WeekdayOf(now)
	var out []Reminder
	for _, o := range occs {
		if o.Day != today {
			continue
		}
		tod, err := schedule.ParseClassTime(o.TimeText)
		if err != nil {
			continue
		}
		classAt := tod.On(now)
		remindAt := classAt.Add(-Lead)
		if now.Before(remindAt) || !now.Before(remindAt.Add(Window)) {
			continue
		}
		out = append(out, Reminder{
			StudentID:   o.StudentID,
			StudentName: o.StudentName,
			Subject:     o.Subject,
			TimeText:    schedule.NormalizeTimeText(o.TimeText),
			ClassAt:     classAt,
		})
	}
	return out
}
