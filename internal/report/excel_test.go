package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"slotnik/internal/model"
)

type stubStore struct {
	staff        []model.Staff
	appointments []model.Appointment
}

func (s stubStore) ListStaff(context.Context, int64) ([]model.Staff, error) {
	return s.staff, nil
}

func (s stubStore) ListAppointments(context.Context, int64, time.Time, time.Time) ([]model.Appointment, error) {
	return s.appointments, nil
}

type stubLoad map[int64]float64

func (s stubLoad) StaffLoadBalance(context.Context, int64, time.Time) (map[int64]float64, error) {
	return s, nil
}

func TestWriteDaily(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	store := stubStore{
		staff: []model.Staff{
			{ID: 10, Name: "Anna"},
			{ID: 11, Name: "Boris"},
		},
		appointments: []model.Appointment{
			{ID: 1, StaffID: 10, CustomerID: 7, Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour), Status: model.StatusConfirmed},
		},
	}
	reporter := NewReporter(store, stubLoad{10: 0.125, 11: 0})

	var buf bytes.Buffer
	require.NoError(t, reporter.WriteDaily(context.Background(), &buf, 1, day))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("Appointments")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "2026-09-07 10:00", rows[1][3])
	assert.Equal(t, "confirmed", rows[1][5])

	util, err := file.GetRows("Utilization")
	require.NoError(t, err)
	require.Len(t, util, 3)
	assert.Equal(t, "Anna", util[1][1])
	assert.Equal(t, "0.125", util[1][2])
	assert.Equal(t, "Boris", util[2][1])
}
