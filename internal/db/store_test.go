package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotnik/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedLocation(t *testing.T, store *Store) *model.Location {
	t.Helper()
	loc := &model.Location{
		Name:     "Central",
		Timezone: "Europe/Moscow",
		IsActive: true,
		Hours: []model.WorkingHours{
			{Weekday: time.Monday, Open: "09:00", Close: "19:00"},
			{Weekday: time.Tuesday, Open: "09:00", Close: "19:00"},
		},
	}
	require.NoError(t, store.CreateLocation(context.Background(), loc))
	return loc
}

func seedStaff(t *testing.T, store *Store, locationID int64) *model.Staff {
	t.Helper()
	st := &model.Staff{
		LocationID:     locationID,
		Name:           "Anna",
		IsActive:       true,
		BookingEnabled: true,
		ServiceIDs:     []int64{100, 101},
	}
	require.NoError(t, store.CreateStaff(context.Background(), st))
	return st
}

func TestLocationRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seeded := seedLocation(t, store)

	got, err := store.GetLocation(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Central", got.Name)
	assert.Equal(t, "Europe/Moscow", got.Timezone)
	assert.True(t, got.IsActive)
	require.Len(t, got.Hours, 2)

	h, ok := got.HoursFor(time.Monday)
	require.True(t, ok)
	assert.Equal(t, "09:00", h.Open)
	assert.Equal(t, "19:00", h.Close)
}

func TestGetLocationMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetLocation(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStaffRoundTrip(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	seeded := seedStaff(t, store, loc.ID)

	got, err := store.GetStaff(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []int64{100, 101}, got.ServiceIDs)
	assert.True(t, got.CanPerform([]int64{100}))

	listed, err := store.ListStaff(context.Background(), loc.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, seeded.ID, listed[0].ID)
}

func TestAbsences(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	st := seedStaff(t, store, loc.ID)

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddAbsence(context.Background(), st.ID, date, "vacation"))

	absent, err := store.ListAbsentStaff(context.Background(), loc.ID, date)
	require.NoError(t, err)
	assert.True(t, absent[st.ID])

	otherDay, err := store.ListAbsentStaff(context.Background(), loc.ID, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, otherDay[st.ID])
}

func TestGetScheduleResolvesTimezone(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	st := seedStaff(t, store, loc.ID)

	msk, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, msk)

	require.NoError(t, store.CreateSchedule(context.Background(), st.ID, date,
		"09:00", "19:00", "13:00", "14:00", nil))

	got, err := store.GetSchedule(context.Background(), st.ID, date, msk)
	require.NoError(t, err)
	require.NotNil(t, got)

	// "09:00" resolves to an absolute instant in the location zone:
	// 09:00 MSK is 06:00 UTC.
	assert.Equal(t, time.Date(2026, 9, 7, 6, 0, 0, 0, time.UTC), got.Start.UTC())
	assert.Equal(t, time.Date(2026, 9, 7, 16, 0, 0, 0, time.UTC), got.End.UTC())
	assert.True(t, got.HasBreak())
	assert.Equal(t, time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC), got.BreakStart.UTC())
}

func TestGetScheduleMissing(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	st := seedStaff(t, store, loc.ID)

	got, err := store.GetSchedule(context.Background(), st.ID,
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetScheduleCarvedSlots(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	st := seedStaff(t, store, loc.ID)

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateSchedule(context.Background(), st.ID, date,
		"09:00", "12:00", "", "", []struct{ Start, End string }{
			{"09:00", "10:30"},
			{"10:30", "12:00"},
		}))

	got, err := store.GetSchedule(context.Background(), st.ID, date, time.UTC)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.HasBreak())
	require.Len(t, got.Slots, 2)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC), got.Slots[0].Start)
	assert.False(t, got.Slots[0].Booked)
}

func TestCreateAppointmentGuarded(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	st := seedStaff(t, store, loc.ID)
	at := func(hour int) time.Time {
		return time.Date(2026, 9, 7, hour, 0, 0, 0, time.UTC)
	}

	first := &model.Appointment{
		LocationID: loc.ID, StaffID: st.ID, CustomerID: 7,
		ServiceIDs: []int64{100}, Start: at(10), End: at(11),
		Status: model.StatusConfirmed,
	}
	require.NoError(t, store.CreateAppointmentGuarded(context.Background(), first))
	assert.NotZero(t, first.ID)
	assert.Equal(t, int64(1), first.Version)

	// An overlapping second insert loses the guard.
	second := &model.Appointment{
		LocationID: loc.ID, StaffID: st.ID, CustomerID: 8,
		ServiceIDs: []int64{100}, Start: at(10).Add(30 * time.Minute), End: at(11).Add(30 * time.Minute),
		Status: model.StatusConfirmed,
	}
	err := store.CreateAppointmentGuarded(context.Background(), second)
	assert.ErrorIs(t, err, ErrBookingConflict)

	// Back to back is fine under half-open semantics.
	third := &model.Appointment{
		LocationID: loc.ID, StaffID: st.ID, CustomerID: 9,
		ServiceIDs: []int64{100}, Start: at(11), End: at(12),
		Status: model.StatusConfirmed,
	}
	require.NoError(t, store.CreateAppointmentGuarded(context.Background(), third))
}

func TestAppointmentOverlapAcrossOffsets(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	st := seedStaff(t, store, loc.ID)

	msk, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	// Stored in the location zone: 12:00 MSK is 09:00 UTC.
	first := &model.Appointment{
		LocationID: loc.ID, StaffID: st.ID, CustomerID: 7,
		ServiceIDs: []int64{100},
		Start:      time.Date(2026, 9, 7, 12, 0, 0, 0, msk),
		End:        time.Date(2026, 9, 7, 13, 0, 0, 0, msk),
		Status:     model.StatusConfirmed,
	}
	require.NoError(t, store.CreateAppointmentGuarded(context.Background(), first))

	// UTC-bounded listing of the same absolute interval must see it.
	listed, err := store.ListStaffAppointments(context.Background(), st.ID,
		time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, first.ID, listed[0].ID)

	// And the guard must reject a UTC-encoded proposal for it.
	second := &model.Appointment{
		LocationID: loc.ID, StaffID: st.ID, CustomerID: 8,
		ServiceIDs: []int64{100},
		Start:      time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		Status:     model.StatusConfirmed,
	}
	err = store.CreateAppointmentGuarded(context.Background(), second)
	assert.ErrorIs(t, err, ErrBookingConflict)
}

func TestOverridesRangeAcrossOffsets(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	ctx := context.Background()

	msk, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	require.NoError(t, store.CreateOverride(ctx, &model.Override{
		LocationID: loc.ID, StaffID: 0,
		Start:     time.Date(2026, 9, 7, 14, 0, 0, 0, msk),
		End:       time.Date(2026, 9, 7, 16, 0, 0, 0, msk),
		Available: false, Reason: "maintenance",
	}))

	// 14:00-16:00 MSK is 11:00-13:00 UTC.
	got, err := store.ListOverrides(ctx, loc.ID,
		time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Available)
}

func TestCanceledAppointmentFreesInterval(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	st := seedStaff(t, store, loc.ID)
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	first := &model.Appointment{
		LocationID: loc.ID, StaffID: st.ID, CustomerID: 7,
		ServiceIDs: []int64{100}, Start: start, End: start.Add(time.Hour),
		Status: model.StatusConfirmed,
	}
	require.NoError(t, store.CreateAppointmentGuarded(context.Background(), first))
	require.NoError(t, store.UpdateAppointmentStatus(context.Background(), first.ID, first.Version, model.StatusCanceled))

	// The canceled booking no longer blocks the interval.
	replacement := &model.Appointment{
		LocationID: loc.ID, StaffID: st.ID, CustomerID: 8,
		ServiceIDs: []int64{100}, Start: start, End: start.Add(time.Hour),
		Status: model.StatusConfirmed,
	}
	require.NoError(t, store.CreateAppointmentGuarded(context.Background(), replacement))

	// And it is excluded from overlap listings.
	listed, err := store.ListStaffAppointments(context.Background(), st.ID, start, start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, replacement.ID, listed[0].ID)
}

func TestUpdateAppointmentStatusVersionGuard(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	st := seedStaff(t, store, loc.ID)
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	appt := &model.Appointment{
		LocationID: loc.ID, StaffID: st.ID, CustomerID: 7,
		ServiceIDs: []int64{100}, Start: start, End: start.Add(time.Hour),
		Status: model.StatusConfirmed,
	}
	require.NoError(t, store.CreateAppointmentGuarded(context.Background(), appt))

	// Stale version loses.
	err := store.UpdateAppointmentStatus(context.Background(), appt.ID, 99, model.StatusCanceled)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.UpdateAppointmentStatus(context.Background(), appt.ID, appt.Version, model.StatusCanceled))

	got, err := store.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusCanceled, got.Status)
	assert.Equal(t, appt.Version+1, got.Version)
}

func TestRulesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	ctx := context.Background()

	require.NoError(t, store.CreateRule(ctx, &model.BookingRule{
		Scope: model.ScopeGlobal, Priority: 1,
		Rule: model.MinAdvanceRule{Hours: 2},
	}))
	require.NoError(t, store.CreateRule(ctx, &model.BookingRule{
		Scope: model.ScopeLocation, LocationID: loc.ID, Priority: 2,
		Rule: model.MaxAdvanceRule{Days: 30},
	}))
	require.NoError(t, store.CreateRule(ctx, &model.BookingRule{
		Scope: model.ScopeLocation, LocationID: loc.ID, Priority: 3,
		Rule: model.PeakPricingRule{StartClock: "17:00", EndClock: "20:00", Multiplier: decimal.RequireFromString("1.25")},
	}))
	require.NoError(t, store.CreateRule(ctx, &model.BookingRule{
		Scope: model.ScopeLocation, LocationID: loc.ID + 1, Priority: 4,
		Rule: model.MinAdvanceRule{Hours: 8},
	}))

	got, err := store.ListRules(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, got, 3, "rules for other locations must not leak")

	minAdv, ok := got[0].Rule.(model.MinAdvanceRule)
	require.True(t, ok)
	assert.Equal(t, 2, minAdv.Hours)

	maxAdv, ok := got[1].Rule.(model.MaxAdvanceRule)
	require.True(t, ok)
	assert.Equal(t, 30, maxAdv.Days)

	peak, ok := got[2].Rule.(model.PeakPricingRule)
	require.True(t, ok)
	assert.Equal(t, "17:00", peak.StartClock)
	assert.True(t, peak.Multiplier.Equal(decimal.RequireFromString("1.25")))
}

func TestOverridesRange(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	ctx := context.Background()
	at := func(hour int) time.Time {
		return time.Date(2026, 9, 7, hour, 0, 0, 0, time.UTC)
	}

	require.NoError(t, store.CreateOverride(ctx, &model.Override{
		LocationID: loc.ID, StaffID: 0, Start: at(14), End: at(16), Available: false, Reason: "maintenance",
	}))

	got, err := store.ListOverrides(ctx, loc.ID, at(15), at(17))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Available)
	assert.True(t, got[0].AppliesTo(42))

	// Half-open: a range starting exactly at the override's end misses it.
	got, err = store.ListOverrides(ctx, loc.ID, at(16), at(18))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCustomerRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	vip := &model.Customer{Name: "Vera", IsVIP: true}
	require.NoError(t, store.CreateCustomer(ctx, vip))

	got, err := store.GetCustomer(ctx, vip.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsVIP)

	missing, err := store.GetCustomer(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
