// Package db implements the persistent record store on SQLite.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

var (
	// ErrBookingConflict is returned by the guarded appointment insert when
	// the interval was taken by a concurrent writer. Retryable.
	ErrBookingConflict = errors.New("booking conflict")

	// ErrNotFound is returned by updates targeting a missing record.
	ErrNotFound = errors.New("not found")
)

// Store wraps the database connection.
type Store struct {
	*sql.DB
	logger *zerolog.Logger
}

// NewStore opens the database at path and creates tables if they don't exist.
func NewStore(path string, logger *zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode and a busy timeout keep concurrent readers cheap and make
	// the guarded insert wait instead of failing fast.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	store := &Store{DB: db, logger: logger}
	if err := store.createTables(); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return store, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS locations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS location_hours (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			location_id INTEGER NOT NULL,
			weekday INTEGER NOT NULL,
			open_time TEXT NOT NULL,
			close_time TEXT NOT NULL,
			UNIQUE(location_id, weekday),
			FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS staff (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			location_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			booking_enabled BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (location_id) REFERENCES locations(id)
		)`,
		`CREATE TABLE IF NOT EXISTS staff_services (
			staff_id INTEGER NOT NULL,
			service_id INTEGER NOT NULL,
			UNIQUE(staff_id, service_id),
			FOREIGN KEY (staff_id) REFERENCES staff(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS staff_absences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			staff_id INTEGER NOT NULL,
			absence_date TEXT NOT NULL,
			approved BOOLEAN NOT NULL DEFAULT 0,
			reason TEXT,
			UNIQUE(staff_id, absence_date),
			FOREIGN KEY (staff_id) REFERENCES staff(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			staff_id INTEGER NOT NULL,
			work_date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			break_start TEXT,
			break_end TEXT,
			UNIQUE(staff_id, work_date),
			FOREIGN KEY (staff_id) REFERENCES staff(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS schedule_slots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			schedule_id INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			booked BOOLEAN NOT NULL DEFAULT 0,
			FOREIGN KEY (schedule_id) REFERENCES schedules(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			location_id INTEGER NOT NULL,
			staff_id INTEGER NOT NULL,
			customer_id INTEGER NOT NULL DEFAULT 0,
			service_ids TEXT NOT NULL DEFAULT '',
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'confirmed',
			comment TEXT,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (staff_id) REFERENCES staff(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_staff_time
			ON appointments(staff_id, start_time)`,
		`CREATE TABLE IF NOT EXISTS availability_overrides (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			location_id INTEGER NOT NULL,
			staff_id INTEGER NOT NULL DEFAULT 0,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT 0,
			reason TEXT,
			FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS booking_rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			scope TEXT NOT NULL DEFAULT 'global',
			location_id INTEGER NOT NULL DEFAULT 0,
			staff_id INTEGER NOT NULL DEFAULT 0,
			priority INTEGER NOT NULL DEFAULT 0,
			hours INTEGER NOT NULL DEFAULT 0,
			days INTEGER NOT NULL DEFAULT 0,
			start_at DATETIME,
			end_at DATETIME,
			clock_start TEXT,
			clock_end TEXT,
			multiplier TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			is_vip BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, q := range queries {
		if _, err := s.Exec(q); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}

// dateKey is the canonical day key used by schedules and absences.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
