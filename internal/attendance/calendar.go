// Package attendance derives a student's month view from the weekly schedule
// and the sparse attendance log.
package attendance

import (
	"fmt"
	"time"

	"tuition/internal/schedule"
)

// Status of a calendar day.
type Status string

const (
	Done   Status = "done"
	Missed Status = "missed"
	// AutoMissed is a past active day with no log entry. It is derived on every
	// build and never written back.
	AutoMissed Status = "auto_missed"
	Upcoming   Status = "upcoming"
)

// ParseStatus accepts the statuses an operator may log.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case Done, Missed:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid attendance status %q", s)
}

// IsMissed reports logged or derived absence.
func (s Status) IsMissed() bool { return s == Missed || s == AutoMissed }

const dateLayout = "2006-01-02"

// DateKey formats the date part of t as the attendance log key.
func DateKey(t time.Time) string { return t.Format(dateLayout) }

// ParseDateKey validates a "YYYY-MM-DD" key.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Day is one visible cell of the calendar.
type Day struct {
	Date    string           `json:"date"`
	Day     int              `json:"day"`
	Weekday schedule.Weekday `json:"weekday"`
	Status  Status           `json:"status"`
	// Stale marks a missed entry on a weekday that is no longer scheduled.
	Stale bool `json:"stale,omitempty"`
}

// Stats counts scheduled days only; stale cells are excluded.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
}

func (s Stats) String() string {
	return fmt.Sprintf("Total: %d  |  Done: %d  |  Left: %d", s.Total, s.Completed, s.Remaining)
}

// Calendar is the derived month view.
type Calendar struct {
	StudentID string     `json:"student_id"`
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Days      []Day      `json:"days"`
	Stats     Stats      `json:"stats"`
	// Due holds two-digit days of month that are missed, ascending.
	Due []string `json:"due"`
}

// Build derives the calendar for year/month. today is compared by date only.
func Build(studentID string, year int, month time.Month, active map[schedule.Weekday]bool, log map[string]Status, today time.Time) Calendar {
	cal := Calendar{StudentID: studentID, Year: year, Month: month, Days: []Day{}, Due: []string{}}
	ty, tm, td := today.Date()
	todayDate := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)

	for d := 1; d <= daysIn(year, month); d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
		key := DateKey(date)
		weekday := schedule.WeekdayOf(date)
		logged, hasLog := log[key]
		scheduled := active[weekday]

		if !scheduled && !(hasLog && logged == Missed) {
			continue
		}

		cell := Day{Date: key, Day: d, Weekday: weekday}
		switch {
		case hasLog && logged == Done:
			cell.Status = Done
		case hasLog && logged == Missed:
			cell.Status = Missed
		case scheduled && date.Before(todayDate):
			cell.Status = AutoMissed
		case scheduled:
			cell.Status = Upcoming
		default:
			cell.Status = Missed
		}
		cell.Stale = !scheduled

		if scheduled {
			cal.Stats.Total++
			if cell.Status == Done {
				cal.Stats.Completed++
			}
		}
		if cell.Status.IsMissed() {
			cal.Due = append(cal.Due, fmt.Sprintf("%02d", d))
		}
		cal.Days = append(cal.Days, cell)
	}
	cal.Stats.Remaining = cal.Stats.Total - cal.Stats.Completed
	return cal
}

// daysIn returns the number of days in month, relying on time.Date normalizing day 0.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
