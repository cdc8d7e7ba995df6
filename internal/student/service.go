// Package student coordinates the storage collaborator with the derived-state
// components and serves the list, detail and edit views.
package student

import (
	"context"
	"strings"
	"sync"
	"time"

	"tuition/internal/attendance"
	"tuition/internal/fees"
	"tuition/internal/model"
	"tuition/internal/reminder"
	"tuition/internal/schedule"
)

// Student is the stored profile.
type Student = model.Student

// Store is the storage collaborator.
type Store interface {
	CreateStudent(ctx context.Context, st *Student, entries []schedule.Entry) error
	UpdateStudent(ctx context.Context, st Student, entries []schedule.Entry) error
	SetPhoto(ctx context.Context, id, path string) error
	GetStudent(ctx context.Context, id string) (Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
	SchedulesForWeekday(ctx context.Context, day schedule.Weekday) ([]reminder.Occurrence, error)
	SchedulesForStudent(ctx context.Context, id string) ([]schedule.Entry, error)
	AttendanceLog(ctx context.Context, id string) (map[string]attendance.Status, error)
	UpsertAttendance(ctx context.Context, id, date string, status attendance.Status) error
	FeeLog(ctx context.Context, id string) (map[string]bool, error)
	UpsertFee(ctx context.Context, id, month string, paid bool) error
	DeleteStudentCascade(ctx context.Context, id string) error
}

// Detail is the detail screen view-model.
type Detail struct {
	Student  Student             `json:"student"`
	Fee      fees.Status         `json:"fee"`
	Schedule []DayLine           `json:"schedule"`
	Calendar attendance.Calendar `json:"calendar"`
}

// DayLine is a schedule row with its rendered text.
type DayLine struct {
	schedule.DayLine
	Text string `json:"text"`
}

// Service serializes writes against read-then-derive sequences, so a view or
// reminder scan never sees half of an edit.
type Service struct {
	store Store
	mu    sync.RWMutex
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates form and stores a new student.
func (s *Service) Create(ctx context.Context, form Form) (Student, error) {
	entries, err := form.entries()
	if err != nil {
		return Student{}, err
	}
	st := Student{Name: strings.TrimSpace(form.Name), FeeAmount: strings.TrimSpace(form.FeeAmount), PhotoPath: form.PhotoPath}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.CreateStudent(ctx, &st, entries); err != nil {
		return Student{}, storageErr("create student", err)
	}
	return st, nil
}

// Update overwrites the profile and replaces the schedule with the form's.
// An empty photo path keeps the stored photo. Attendance and fee history are kept.
func (s *Service) Update(ctx context.Context, id string, form Form) (Student, error) {
	entries, err := form.entries()
	if err != nil {
		return Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return Student{}, storageErr("load student", err)
	}
	st.Name = strings.TrimSpace(form.Name)
	st.FeeAmount = strings.TrimSpace(form.FeeAmount)
	if form.PhotoPath != "" {
		st.PhotoPath = form.PhotoPath
	}
	if err := s.store.UpdateStudent(ctx, st, entries); err != nil {
		return Student{}, storageErr("update student", err)
	}
	return st, nil
}

// SetPhoto stores a new photo reference.
func (s *Service) SetPhoto(ctx context.Context, id, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetPhoto(ctx, id, path); err != nil {
		return storageErr("set photo", err)
	}
	return nil
}

// Delete removes the student with its schedule, attendance and fee rows.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteStudentCascade(ctx, id); err != nil {
		return storageErr("delete student", err)
	}
	return nil
}

// List returns every student.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, storageErr("list students", err)
	}
	if out == nil {
		out = []Student{}
	}
	return out, nil
}

// Get returns one student.
func (s *Service) Get(ctx context.Context, id string) (Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return Student{}, storageErr("load student", err)
	}
	return st, nil
}

// EditForm returns the stored state as a form, subjects in first-appearance order.
func (s *Service) EditForm(ctx context.Context, id string) (Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return Form{}, storageErr("load student", err)
	}
	entries, err := s.store.SchedulesForStudent(ctx, id)
	if err != nil {
		return Form{}, storageErr("load schedule", err)
	}
	return FormFrom(st, entries), nil
}

// Detail builds the detail view for now's month.
func (s *Service) Detail(ctx context.Context, id string, now time.Time) (Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return Detail{}, storageErr("load student", err)
	}
	entries, err := s.store.SchedulesForStudent(ctx, id)
	if err != nil {
		return Detail{}, storageErr("load schedule", err)
	}
	log, err := s.store.AttendanceLog(ctx, id)
	if err != nil {
		return Detail{}, storageErr("load attendance", err)
	}
	feeLog, err := s.store.FeeLog(ctx, id)
	if err != nil {
		return Detail{}, storageErr("load fees", err)
	}

	d := Detail{
		Student:  st,
		Fee:      fees.Resolve(fees.MonthKey(now), st.FeeAmount, feeLog),
		Schedule: []DayLine{},
		Calendar: attendance.Build(id, now.Year(), now.Month(), schedule.ActiveWeekdays(entries), log, now),
	}
	for _, line := range schedule.WeekView(entries) {
		d.Schedule = append(d.Schedule, DayLine{DayLine: line, Text: line.Text()})
	}
	return d, nil
}

// MarkAttendance logs done or missed for a date.
func (s *Service) MarkAttendance(ctx context.Context, id, date string, status string) error {
	if _, err := attendance.ParseDateKey(date); err != nil {
		return invalid("date", "%v", err)
	}
	st, err := attendance.ParseStatus(status)
	if err != nil {
		return invalid("status", "%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.GetStudent(ctx, id); err != nil {
		return storageErr("load student", err)
	}
	if err := s.store.UpsertAttendance(ctx, id, date, st); err != nil {
		return storageErr("mark attendance", err)
	}
	return nil
}

// SetFeePaid sets the paid flag for month and returns the resolved state.
func (s *Service) SetFeePaid(ctx context.Context, id, month string, paid bool) (fees.Status, error) {
	if _, err := fees.ParseMonthKey(month); err != nil {
		return fees.Status{}, invalid("month", "%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return fees.Status{}, storageErr("load student", err)
	}
	if err := s.store.UpsertFee(ctx, id, month, paid); err != nil {
		return fees.Status{}, storageErr("set fee", err)
	}
	return fees.Resolve(month, st.FeeAmount, map[string]bool{month: paid}), nil
}

// PaymentHistory lists every logged month, newest first.
func (s *Service) PaymentHistory(ctx context.Context, id string) ([]fees.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.store.GetStudent(ctx, id); err != nil {
		return nil, storageErr("load student", err)
	}
	log, err := s.store.FeeLog(ctx, id)
	if err != nil {
		return nil, storageErr("load fees", err)
	}
	return fees.Ledger(log), nil
}

// Occurrences implements reminder.OccurrenceSource.
func (s *Service) Occurrences(ctx context.Context, day schedule.Weekday) ([]reminder.Occurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	occs, err := s.store.SchedulesForWeekday(ctx, day)
	if err != nil {
		return nil, storageErr("load schedules", err)
	}
	return occs, nil
}
