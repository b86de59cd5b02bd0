package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"slotnik/internal/model"
)

const blockingStatuses = "('pending', 'confirmed', 'completed')"

// Every instant is normalized to UTC before binding. The sqlite driver
// stores time.Time as TEXT carrying the value's own offset, and TEXT
// comparison is lexical, so mixed offsets would make the same absolute
// interval compare wrong in the overlap queries below.

// ListAppointments returns blocking appointments at a location overlapping
// [from, to).
func (s *Store) ListAppointments(ctx context.Context, locationID int64, from, to time.Time) ([]model.Appointment, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, location_id, staff_id, customer_id, service_ids,
		       start_time, end_time, status, comment, version, created_at, updated_at
		FROM appointments
		WHERE location_id = ? AND start_time < ? AND end_time > ?
		AND status IN `+blockingStatuses+`
		ORDER BY start_time, id`,
		locationID, to.UTC(), from.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return scanAppointments(rows)
}

// ListStaffAppointments returns blocking appointments for one staff member
// overlapping [from, to).
func (s *Store) ListStaffAppointments(ctx context.Context, staffID int64, from, to time.Time) ([]model.Appointment, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, location_id, staff_id, customer_id, service_ids,
		       start_time, end_time, status, comment, version, created_at, updated_at
		FROM appointments
		WHERE staff_id = ? AND start_time < ? AND end_time > ?
		AND status IN `+blockingStatuses+`
		ORDER BY start_time, id`,
		staffID, to.UTC(), from.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list staff appointments: %w", err)
	}
	return scanAppointments(rows)
}

// GetAppointment returns one appointment regardless of status, or (nil, nil).
func (s *Store) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	row := s.QueryRowContext(ctx, `
		SELECT id, location_id, staff_id, customer_id, service_ids,
		       start_time, end_time, status, comment, version, created_at, updated_at
		FROM appointments WHERE id = ?`,
		id,
	)
	appt, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// CreateAppointmentGuarded inserts an appointment after re-checking, inside
// the same transaction, that no blocking appointment overlaps the interval
// for the staff member. A concurrent winner surfaces as ErrBookingConflict.
func (s *Store) CreateAppointmentGuarded(ctx context.Context, a *model.Appointment) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE staff_id = ? AND start_time < ? AND end_time > ?
		AND status IN `+blockingStatuses,
		a.StaffID, a.End.UTC(), a.Start.UTC(),
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("recheck overlap: %w", err)
	}
	if count > 0 {
		return ErrBookingConflict
	}

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Version == 0 {
		a.Version = 1
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO appointments (
			location_id, staff_id, customer_id, service_ids,
			start_time, end_time, status, comment, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.LocationID, a.StaffID, a.CustomerID, joinIDs(a.ServiceIDs),
		a.Start.UTC(), a.End.UTC(), a.Status, a.Comment, a.Version, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateAppointmentStatus moves an appointment to a new status with an
// optimistic version check.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id, version int64, status string) error {
	res, err := s.ExecContext(ctx, `
		UPDATE appointments SET status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		status, time.Now().UTC(), id, version,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAppointments(rows *sql.Rows) ([]model.Appointment, error) {
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *appt)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	var a model.Appointment
	var serviceIDs string
	var comment sql.NullString
	err := row.Scan(
		&a.ID, &a.LocationID, &a.StaffID, &a.CustomerID, &serviceIDs,
		&a.Start, &a.End, &a.Status, &comment, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if comment.Valid {
		a.Comment = comment.String
	}
	a.ServiceIDs = splitIDs(serviceIDs)
	return &a, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
