package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tuition/internal/attendance"
	"tuition/internal/model"
	"tuition/internal/reminder"
	"tuition/internal/schedule"
)

// Repository persists students and their schedule, attendance and fee rows.
type Repository struct {
	db *DB
}

// NewRepository creates a repo.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	return tx.ExecContext(ctx, r.db.rebind(query), args...)
}

func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Client.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *Repository) insertEntries(ctx context.Context, tx *sql.Tx, studentID string, entries []schedule.Entry) error {
	for i, e := range entries {
		if _, err := r.exec(ctx, tx, `
			INSERT INTO schedules (id, student_id, subject, day_name, class_time, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), studentID, e.Subject, string(e.Day), e.TimeText, i); err != nil {
			return fmt.Errorf("insert schedule %s/%s: %w", e.Subject, e.Day, err)
		}
	}
	return nil
}

// CreateStudent inserts st with its schedule and fills in ID and CreatedAt.
func (r *Repository) CreateStudent(ctx context.Context, st *model.Student, entries []schedule.Entry) error {
	st.ID = uuid.NewString()
	st.CreatedAt = time.Now().UTC()
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.exec(ctx, tx, `
			INSERT INTO students (id, name, photo_path, fee_amount, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, st.ID, st.Name, st.PhotoPath, st.FeeAmount, st.CreatedAt); err != nil {
			return err
		}
		return r.insertEntries(ctx, tx, st.ID, entries)
	})
}

// UpdateStudent rewrites the profile and replaces the whole schedule.
func (r *Repository) UpdateStudent(ctx context.Context, st model.Student, entries []schedule.Entry) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := r.exec(ctx, tx, `
			UPDATE students SET name = ?, photo_path = ?, fee_amount = ? WHERE id = ?
		`, st.Name, st.PhotoPath, st.FeeAmount, st.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return model.ErrNotFound
		}
		if _, err := r.exec(ctx, tx, `DELETE FROM schedules WHERE student_id = ?`, st.ID); err != nil {
			return err
		}
		return r.insertEntries(ctx, tx, st.ID, entries)
	})
}

// SetPhoto updates only the photo reference.
func (r *Repository) SetPhoto(ctx context.Context, id, path string) error {
	res, err := r.db.Client.ExecContext(ctx, r.db.rebind(`UPDATE students SET photo_path = ? WHERE id = ?`), path, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// GetStudent returns a single student by id.
func (r *Repository) GetStudent(ctx context.Context, id string) (model.Student, error) {
	var st model.Student
	err := r.db.Client.QueryRowContext(ctx, r.db.rebind(`
		SELECT id, name, photo_path, fee_amount, created_at FROM students WHERE id = ?
	`), id).Scan(&st.ID, &st.Name, &st.PhotoPath, &st.FeeAmount, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Student{}, model.ErrNotFound
	}
	return st, err
}

// ListStudents returns all students in creation order.
func (r *Repository) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := r.db.Client.QueryContext(ctx, `
		SELECT id, name, photo_path, fee_amount, created_at FROM students ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.PhotoPath, &st.FeeAmount, &st.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SchedulesForWeekday lists every class on day across all students.
func (r *Repository) SchedulesForWeekday(ctx context.Context, day schedule.Weekday) ([]reminder.Occurrence, error) {
	rows, err := r.db.Client.QueryContext(ctx, r.db.rebind(`
		SELECT s.id, s.name, sch.subject, sch.day_name, sch.class_time
		FROM schedules sch
		JOIN students s ON sch.student_id = s.id
		WHERE sch.day_name = ?
		ORDER BY s.created_at, sch.position
	`), string(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reminder.Occurrence
	for rows.Next() {
		var o reminder.Occurrence
		var d string
		if err := rows.Scan(&o.StudentID, &o.StudentName, &o.Subject, &d, &o.TimeText); err != nil {
			return nil, err
		}
		o.Day = schedule.Weekday(d)
		out = append(out, o)
	}
	return out, rows.Err()
}

// SchedulesForStudent returns a student's entries in form order.
func (r *Repository) SchedulesForStudent(ctx context.Context, id string) ([]schedule.Entry, error) {
	rows, err := r.db.Client.QueryContext(ctx, r.db.rebind(`
		SELECT subject, day_name, class_time, position FROM schedules
		WHERE student_id = ? ORDER BY position
	`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Entry
	for rows.Next() {
		e := schedule.Entry{StudentID: id}
		var d string
		if err := rows.Scan(&e.Subject, &d, &e.TimeText, &e.Position); err != nil {
			return nil, err
		}
		e.Day = schedule.Weekday(d)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AttendanceLog returns date key -> logged status.
func (r *Repository) AttendanceLog(ctx context.Context, id string) (map[string]attendance.Status, error) {
	rows, err := r.db.Client.QueryContext(ctx, r.db.rebind(`
		SELECT date_str, status FROM attendance WHERE student_id = ?
	`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]attendance.Status)
	for rows.Next() {
		var date, status string
		if err := rows.Scan(&date, &status); err != nil {
			return nil, err
		}
		out[date] = attendance.Status(status)
	}
	return out, rows.Err()
}

// UpsertAttendance records status for one date, replacing any earlier mark.
func (r *Repository) UpsertAttendance(ctx context.Context, id, date string, status attendance.Status) error {
	_, err := r.db.Client.ExecContext(ctx, r.db.rebind(`
		INSERT INTO attendance (student_id, date_str, status) VALUES (?, ?, ?)
		ON CONFLICT (student_id, date_str) DO UPDATE SET status = excluded.status
	`), id, date, string(status))
	return err
}

// FeeLog returns month key -> paid.
func (r *Repository) FeeLog(ctx context.Context, id string) (map[string]bool, error) {
	rows, err := r.db.Client.QueryContext(ctx, r.db.rebind(`
		SELECT month_str, is_paid FROM fee_history WHERE student_id = ?
	`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var month string
		var paid bool
		if err := rows.Scan(&month, &paid); err != nil {
			return nil, err
		}
		out[month] = paid
	}
	return out, rows.Err()
}

// UpsertFee sets the paid flag for a month. Rows are never deleted except by the cascade.
func (r *Repository) UpsertFee(ctx context.Context, id, month string, paid bool) error {
	_, err := r.db.Client.ExecContext(ctx, r.db.rebind(`
		INSERT INTO fee_history (student_id, month_str, is_paid) VALUES (?, ?, ?)
		ON CONFLICT (student_id, month_str) DO UPDATE SET is_paid = excluded.is_paid
	`), id, month, paid)
	return err
}

// DeleteStudentCascade removes the student and every row that references it.
func (r *Repository) DeleteStudentCascade(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM schedules WHERE student_id = ?`,
			`DELETE FROM attendance WHERE student_id = ?`,
			`DELETE FROM fee_history WHERE student_id = ?`,
		} {
			if _, err := r.exec(ctx, tx, q, id); err != nil {
				return err
			}
		}
		res, err := r.exec(ctx, tx, `DELETE FROM students WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return model.ErrNotFound
		}
		return nil
	})
}
