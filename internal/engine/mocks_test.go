package engine

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"slotnik/internal/model"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetLocation(ctx context.Context, id int64) (*model.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Location), args.Error(1)
}

func (m *mockStore) GetStaff(ctx context.Context, id int64) (*model.Staff, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Staff), args.Error(1)
}

func (m *mockStore) ListStaff(ctx context.Context, locationID int64) ([]model.Staff, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).([]model.Staff), args.Error(1)
}

func (m *mockStore) ListAbsentStaff(ctx context.Context, locationID int64, date time.Time) (map[int64]bool, error) {
	args := m.Called(ctx, locationID, date)
	return args.Get(0).(map[int64]bool), args.Error(1)
}

func (m *mockStore) GetSchedule(ctx context.Context, staffID int64, date time.Time, loc *time.Location) (*model.Schedule, error) {
	args := m.Called(ctx, staffID, date, loc)
	if rf, ok := args.Get(0).(func(context.Context, int64, time.Time, *time.Location) *model.Schedule); ok {
		return rf(ctx, staffID, date, loc), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Schedule), args.Error(1)
}

func (m *mockStore) ListAppointments(ctx context.Context, locationID int64, from, to time.Time) ([]model.Appointment, error) {
	args := m.Called(ctx, locationID, from, to)
	if rf, ok := args.Get(0).(func(context.Context, int64, time.Time, time.Time) []model.Appointment); ok {
		return rf(ctx, locationID, from, to), args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *mockStore) ListStaffAppointments(ctx context.Context, staffID int64, from, to time.Time) ([]model.Appointment, error) {
	args := m.Called(ctx, staffID, from, to)
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *mockStore) ListOverrides(ctx context.Context, locationID int64, from, to time.Time) ([]model.Override, error) {
	args := m.Called(ctx, locationID, from, to)
	return args.Get(0).([]model.Override), args.Error(1)
}

func (m *mockStore) ListRules(ctx context.Context, locationID int64) ([]model.BookingRule, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).([]model.BookingRule), args.Error(1)
}

func (m *mockStore) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetServices(ctx context.Context, ids []int64) ([]model.Service, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]model.Service), args.Error(1)
}

func testLogger() *zerolog.Logger {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &logger
}
