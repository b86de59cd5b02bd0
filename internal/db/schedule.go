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

// GetSchedule returns one staff member's schedule for a date, with every
// wall-clock value resolved to an absolute instant in the given timezone.
// Downstream interval math never sees wall-clock values. Returns (nil, nil)
// when no schedule exists.
func (s *Store) GetSchedule(ctx context.Context, staffID int64, date time.Time, loc *time.Location) (*model.Schedule, error) {
	day := time.Date(date.In(loc).Year(), date.In(loc).Month(), date.In(loc).Day(), 0, 0, 0, 0, loc)

	var (
		sched                model.Schedule
		startStr, endStr     string
		breakStart, breakEnd sql.NullString
	)
	err := s.QueryRowContext(ctx, `
		SELECT id, staff_id, start_time, end_time, break_start, break_end
		FROM schedules WHERE staff_id = ? AND work_date = ?`,
		staffID, dateKey(day),
	).Scan(&sched.ID, &sched.StaffID, &startStr, &endStr, &breakStart, &breakEnd)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	sched.Date = day
	if sched.Start, err = clockOnDate(day, startStr); err != nil {
		return nil, fmt.Errorf("schedule start: %w", err)
	}
	if sched.End, err = clockOnDate(day, endStr); err != nil {
		return nil, fmt.Errorf("schedule end: %w", err)
	}
	if breakStart.Valid && breakEnd.Valid {
		if sched.BreakStart, err = clockOnDate(day, breakStart.String); err != nil {
			return nil, fmt.Errorf("schedule break start: %w", err)
		}
		if sched.BreakEnd, err = clockOnDate(day, breakEnd.String); err != nil {
			return nil, fmt.Errorf("schedule break end: %w", err)
		}
	}

	sched.Slots, err = s.scheduleSlots(ctx, sched.ID, day)
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

func (s *Store) scheduleSlots(ctx context.Context, scheduleID int64, day time.Time) ([]model.ScheduleSlot, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT start_time, end_time, booked
		FROM schedule_slots WHERE schedule_id = ? ORDER BY start_time`,
		scheduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	defer rows.Close()

	var out []model.ScheduleSlot
	for rows.Next() {
		var startStr, endStr string
		var slot model.ScheduleSlot
		if err := rows.Scan(&startStr, &endStr, &slot.Booked); err != nil {
			return nil, err
		}
		if slot.Start, err = clockOnDate(day, startStr); err != nil {
			return nil, fmt.Errorf("slot start: %w", err)
		}
		if slot.End, err = clockOnDate(day, endStr); err != nil {
			return nil, fmt.Errorf("slot end: %w", err)
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

// CreateSchedule inserts a schedule with optional break and pre-carved slots.
// Wall-clock values are stored as "HH:MM" strings; resolution to instants
// happens on load.
func (s *Store) CreateSchedule(ctx context.Context, staffID int64, date time.Time, start, end, breakStart, breakEnd string, carved []struct{ Start, End string }) error {
	res, err := s.ExecContext(ctx, `
		INSERT INTO schedules (staff_id, work_date, start_time, end_time, break_start, break_end)
		VALUES (?, ?, ?, ?, ?, ?)`,
		staffID, dateKey(date), start, end, nullable(breakStart), nullable(breakEnd),
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	scheduleID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, c := range carved {
		_, err := s.ExecContext(ctx, `
			INSERT INTO schedule_slots (schedule_id, start_time, end_time, booked)
			VALUES (?, ?, ?, 0)`,
			scheduleID, c.Start, c.End,
		)
		if err != nil {
			return fmt.Errorf("insert schedule slot: %w", err)
		}
	}
	return nil
}

// ListOverrides returns overrides overlapping [from, to) at a location,
// whether scoped to the whole location or to one of its staff.
func (s *Store) ListOverrides(ctx context.Context, locationID int64, from, to time.Time) ([]model.Override, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, location_id, staff_id, start_time, end_time, is_available, reason
		FROM availability_overrides
		WHERE location_id = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time`,
		locationID, to.UTC(), from.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var out []model.Override
	for rows.Next() {
		var o model.Override
		var reason sql.NullString
		if err := rows.Scan(&o.ID, &o.LocationID, &o.StaffID, &o.Start, &o.End, &o.Available, &reason); err != nil {
			return nil, err
		}
		if reason.Valid {
			o.Reason = reason.String
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateOverride inserts an allow/deny override.
func (s *Store) CreateOverride(ctx context.Context, o *model.Override) error {
	res, err := s.ExecContext(ctx, `
		INSERT INTO availability_overrides (location_id, staff_id, start_time, end_time, is_available, reason)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.LocationID, o.StaffID, o.Start.UTC(), o.End.UTC(), o.Available, o.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert override: %w", err)
	}
	o.ID, err = res.LastInsertId()
	return err
}

func clockOnDate(date time.Time, clock string) (time.Time, error) {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %s", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid minute: %w", err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
