package student

import (
	"strings"

	"tuition/internal/schedule"
)

// MaxSubjects is the number of subject blocks a student may have.
const MaxSubjects = 4

// Form is the add/edit screen state. Subjects and their slots are kept in
// the order the operator entered them.
type Form struct {
	Name      string        `json:"name"`
	FeeAmount string        `json:"fee_amount"`
	PhotoPath string        `json:"photo_path"`
	Subjects  []SubjectForm `json:"subjects"`
}

// SubjectForm is one subject block of the form.
type SubjectForm struct {
	Name  string `json:"name"`
	Slots []Slot `json:"slots"`
}

// Slot is a checked weekday with its class time text.
type Slot struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// entries validates the form and flattens it into schedule rows. Nothing is
// written until this succeeds.
func (f Form) entries() ([]schedule.Entry, error) {
	if strings.TrimSpace(f.Name) == "" {
		return nil, invalid("name", "name required")
	}
	var out []schedule.Entry
	seen := make(map[string]bool)
	blocks := 0
	for _, sub := range f.Subjects {
		name := strings.TrimSpace(sub.Name)
		if name == "" {
			continue
		}
		blocks++
		if blocks > MaxSubjects {
			return nil, invalid("subjects", "max %d subjects allowed", MaxSubjects)
		}
		for _, slot := range sub.Slots {
			day, err := schedule.ParseWeekday(slot.Day)
			if err != nil {
				return nil, invalid("day", "%s: %v", name, err)
			}
			key := name + "|" + string(day)
			if seen[key] {
				return nil, invalid("day", "%s is scheduled twice on %s", name, day)
			}
			seen[key] = true
			text := strings.TrimSpace(slot.Time)
			if text == "" {
				text = schedule.DefaultTimeText
			}
			out = append(out, schedule.Entry{Subject: name, Day: day, TimeText: text, Position: len(out)})
		}
	}
	return out, nil
}

// FormFrom rebuilds the edit form from stored rows.
func FormFrom(st Student, entries []schedule.Entry) Form {
	f := Form{Name: st.Name, FeeAmount: st.FeeAmount, PhotoPath: st.PhotoPath, Subjects: []SubjectForm{}}
	for _, sub := range schedule.GroupBySubject(entries) {
		sf := SubjectForm{Name: sub.Name}
		for _, s := range sub.Slots {
			sf.Slots = append(sf.Slots, Slot{Day: string(s.Day), Time: s.TimeText})
		}
		f.Subjects = append(f.Subjects, sf)
	}
	return f
}
