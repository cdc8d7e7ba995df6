package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// DB wraps sql.DB and remembers the placeholder dialect.
type DB struct {
	Client *sql.DB
	driver string
}

// Open connects to dsn with the given driver and applies the schema.
// For sqlite the dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	client, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == DriverSQLite {
		// one writer at a time; the file lock serializes anyway
		client.SetMaxOpenConns(1)
	} else {
		client.SetMaxOpenConns(10)
		client.SetMaxIdleConns(5)
		client.SetConnMaxLifetime(time.Hour)
	}

	db := &DB{Client: client, driver: driver}
	if err := client.PingContext(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := db.migrate(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS students (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			photo_path  TEXT NOT NULL DEFAULT '',
			fee_amount  TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id          TEXT PRIMARY KEY,
			student_id  TEXT NOT NULL,
			subject     TEXT NOT NULL,
			day_name    TEXT NOT NULL,
			class_time  TEXT NOT NULL,
			position    INTEGER NOT NULL DEFAULT 0,
			UNIQUE (student_id, subject, day_name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_day ON schedules(day_name)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			student_id  TEXT NOT NULL,
			date_str    TEXT NOT NULL,
			status      TEXT NOT NULL,
			UNIQUE (student_id, date_str)
		)`,
		`CREATE TABLE IF NOT EXISTS fee_history (
			student_id  TEXT NOT NULL,
			month_str   TEXT NOT NULL,
			is_paid     BOOLEAN NOT NULL,
			UNIQUE (student_id, month_str)
		)`,
	}
	for _, s := range stmts {
		if _, err := d.Client.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.Client.PingContext(ctx)
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
