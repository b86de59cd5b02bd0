package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"slotnik/internal/model"
)

// GetLocation returns a location with its weekly hours, or (nil, nil) when
// it does not exist.
func (s *Store) GetLocation(ctx context.Context, id int64) (*model.Location, error) {
	var loc model.Location
	err := s.QueryRowContext(ctx, `
		SELECT id, name, timezone, is_active, created_at, updated_at
		FROM locations WHERE id = ?`,
		id,
	).Scan(&loc.ID, &loc.Name, &loc.Timezone, &loc.IsActive, &loc.CreatedAt, &loc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}

	rows, err := s.QueryContext(ctx, `
		SELECT weekday, open_time, close_time
		FROM location_hours WHERE location_id = ? ORDER BY weekday`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get location hours: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h model.WorkingHours
		var weekday int
		if err := rows.Scan(&weekday, &h.Open, &h.Close); err != nil {
			return nil, err
		}
		h.Weekday = time.Weekday(weekday)
		loc.Hours = append(loc.Hours, h)
	}
	return &loc, rows.Err()
}

// CreateLocation inserts a location and its hours. Used by seeding and tests.
func (s *Store) CreateLocation(ctx context.Context, loc *model.Location) error {
	now := time.Now().UTC()
	res, err := s.ExecContext(ctx, `
		INSERT INTO locations (name, timezone, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		loc.Name, loc.Timezone, loc.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	loc.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	for _, h := range loc.Hours {
		_, err := s.ExecContext(ctx, `
			INSERT INTO location_hours (location_id, weekday, open_time, close_time)
			VALUES (?, ?, ?, ?)`,
			loc.ID, int(h.Weekday), h.Open, h.Close,
		)
		if err != nil {
			return fmt.Errorf("insert location hours: %w", err)
		}
	}
	return nil
}

// GetStaff returns one staff member with capabilities, or (nil, nil).
func (s *Store) GetStaff(ctx context.Context, id int64) (*model.Staff, error) {
	var st model.Staff
	err := s.QueryRowContext(ctx, `
		SELECT id, location_id, name, is_active, booking_enabled, created_at, updated_at
		FROM staff WHERE id = ?`,
		id,
	).Scan(&st.ID, &st.LocationID, &st.Name, &st.IsActive, &st.BookingEnabled, &st.CreatedAt, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get staff: %w", err)
	}

	st.ServiceIDs, err = s.staffServiceIDs(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStaff returns every staff member at a location with capabilities,
// ordered by id so downstream iteration is deterministic.
func (s *Store) ListStaff(ctx context.Context, locationID int64) ([]model.Staff, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, location_id, name, is_active, booking_enabled, created_at, updated_at
		FROM staff WHERE location_id = ? ORDER BY id`,
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var staff []model.Staff
	for rows.Next() {
		var st model.Staff
		if err := rows.Scan(&st.ID, &st.LocationID, &st.Name, &st.IsActive, &st.BookingEnabled, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		staff = append(staff, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range staff {
		staff[i].ServiceIDs, err = s.staffServiceIDs(ctx, staff[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return staff, nil
}

func (s *Store) staffServiceIDs(ctx context.Context, staffID int64) ([]int64, error) {
	rows, err := s.QueryContext(ctx,
		"SELECT service_id FROM staff_services WHERE staff_id = ? ORDER BY service_id",
		staffID,
	)
	if err != nil {
		return nil, fmt.Errorf("list staff services: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateStaff inserts a staff member with capabilities. Used by seeding and tests.
func (s *Store) CreateStaff(ctx context.Context, st *model.Staff) error {
	now := time.Now().UTC()
	res, err := s.ExecContext(ctx, `
		INSERT INTO staff (location_id, name, is_active, booking_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		st.LocationID, st.Name, st.IsActive, st.BookingEnabled, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert staff: %w", err)
	}
	st.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	for _, svcID := range st.ServiceIDs {
		_, err := s.ExecContext(ctx,
			"INSERT OR IGNORE INTO staff_services (staff_id, service_id) VALUES (?, ?)",
			st.ID, svcID,
		)
		if err != nil {
			return fmt.Errorf("insert staff service: %w", err)
		}
	}
	return nil
}

// ListAbsentStaff returns staff ids with an approved absence on the date.
func (s *Store) ListAbsentStaff(ctx context.Context, locationID int64, date time.Time) (map[int64]bool, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT a.staff_id FROM staff_absences a
		JOIN staff st ON st.id = a.staff_id
		WHERE st.location_id = ? AND a.absence_date = ? AND a.approved = 1`,
		locationID, dateKey(date),
	)
	if err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	defer rows.Close()

	absent := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		absent[id] = true
	}
	return absent, rows.Err()
}

// AddAbsence records an approved absence for a staff member on a date.
func (s *Store) AddAbsence(ctx context.Context, staffID int64, date time.Time, reason string) error {
	_, err := s.ExecContext(ctx, `
		INSERT OR REPLACE INTO staff_absences (staff_id, absence_date, approved, reason)
		VALUES (?, ?, 1, ?)`,
		staffID, dateKey(date), reason,
	)
	return err
}

// GetCustomer returns a customer, or (nil, nil).
func (s *Store) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	var c model.Customer
	err := s.QueryRowContext(ctx,
		"SELECT id, name, is_vip FROM customers WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.IsVIP)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// CreateCustomer inserts a customer. Used by seeding and tests.
func (s *Store) CreateCustomer(ctx context.Context, c *model.Customer) error {
	res, err := s.ExecContext(ctx,
		"INSERT INTO customers (name, is_vip) VALUES (?, ?)",
		c.Name, c.IsVIP,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}
