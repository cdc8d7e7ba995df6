// Package schedule holds weekly class schedules: class time parsing, weekday
// keys and the groupings the edit and detail views are built from.
package schedule

import (
	"fmt"
	"strings"
)

// DefaultTimeText is stored when a day is checked without a time.
const DefaultTimeText = "TBD"

// Entry is one (subject, weekday, time) row of a student's schedule.
// Position orders entries in the sequence the edit form submitted them.
type Entry struct {
	StudentID string  `json:"student_id"`
	Subject   string  `json:"subject"`
	Day       Weekday `json:"day"`
	TimeText  string  `json:"time"`
	Position  int     `json:"position"`
}

// Slot is a weekday and time within a Subject.
type Slot struct {
	Day      Weekday `json:"day"`
	TimeText string  `json:"time"`
}

// Subject is one subject block of the edit form.
type Subject struct {
	Name  string `json:"name"`
	Slots []Slot `json:"slots"`
}

// GroupBySubject folds entries into subject blocks, ordered by first appearance.
// Slots within a block follow Mon..Sun.
func GroupBySubject(entries []Entry) []Subject {
	index := make(map[string]int)
	var out []Subject
	for _, e := range entries {
		i, ok := index[e.Subject]
		if !ok {
			i = len(out)
			index[e.Subject] = i
			out = append(out, Subject{Name: e.Subject})
		}
		out[i].Slots = append(out[i].Slots, Slot{Day: e.Day, TimeText: e.TimeText})
	}
	for _, s := range out {
		sortSlots(s.Slots)
	}
	return out
}

func sortSlots(slots []Slot) {
	for i := 1; i < len(slots); i++ {
		for j := i; j > 0 && slots[j].Day.Index() < slots[j-1].Day.Index(); j-- {
			slots[j], slots[j-1] = slots[j-1], slots[j]
		}
	}
}

// ActiveWeekdays returns the days that carry at least one entry.
func ActiveWeekdays(entries []Entry) map[Weekday]bool {
	active := make(map[Weekday]bool)
	for _, e := range entries {
		active[e.Day] = true
	}
	return active
}

// Class is a subject taught at a time on some day.
type Class struct {
	Subject  string `json:"subject"`
	TimeText string `json:"time"`
}

// DayLine is one row of the detail schedule list.
type DayLine struct {
	Day     Weekday `json:"day"`
	Classes []Class `json:"classes"`
}

// Text renders the line the way the schedule list shows it.
func (l DayLine) Text() string {
	if len(l.Classes) == 1 {
		c := l.Classes[0]
		return fmt.Sprintf("%s | %s @ %s", c.Subject, l.Day, c.TimeText)
	}
	parts := make([]string, len(l.Classes))
	for i, c := range l.Classes {
		parts[i] = fmt.Sprintf("%s @ %s", c.Subject, c.TimeText)
	}
	return fmt.Sprintf("%s : %s", l.Day, strings.Join(parts, " | "))
}

// WeekView lists active days Mon..Sun with their classes in entry order.
func WeekView(entries []Entry) []DayLine {
	byDay := make(map[Weekday][]Class)
	for _, e := range entries {
		byDay[e.Day] = append(byDay[e.Day], Class{Subject: e.Subject, TimeText: e.TimeText})
	}
	var lines []DayLine
	for _, d := range AllWeekdays {
		if classes := byDay[d]; len(classes) > 0 {
			lines = append(lines, DayLine{Day: d, Classes: classes})
		}
	}
	return lines
}
