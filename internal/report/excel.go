// Package report exports daily operations reports as Excel workbooks.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"slotnik/internal/model"
)

// Store is the slice of the record store the reporter reads.
type Store interface {
	ListStaff(ctx context.Context, locationID int64) ([]model.Staff, error)
	ListAppointments(ctx context.Context, locationID int64, from, to time.Time) ([]model.Appointment, error)
}

// LoadEstimator supplies utilization scores. Satisfied by *engine.Service.
type LoadEstimator interface {
	StaffLoadBalance(ctx context.Context, locationID int64, date time.Time) (map[int64]float64, error)
}

// Reporter builds xlsx reports over booking data.
type Reporter struct {
	store Store
	load  LoadEstimator
}

// NewReporter creates a reporter.
func NewReporter(store Store, load LoadEstimator) *Reporter {
	return &Reporter{store: store, load: load}
}

// WriteDaily writes a workbook for one location and day to w: an
// appointments sheet and a staff utilization sheet. day must be the start of
// the calendar day in the location's timezone.
func (r *Reporter) WriteDaily(ctx context.Context, w io.Writer, locationID int64, day time.Time) error {
	appointments, err := r.store.ListAppointments(ctx, locationID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("list appointments: %w", err)
	}
	staff, err := r.store.ListStaff(ctx, locationID)
	if err != nil {
		return fmt.Errorf("list staff: %w", err)
	}
	scores, err := r.load.StaffLoadBalance(ctx, locationID, day)
	if err != nil {
		return fmt.Errorf("load balance: %w", err)
	}

	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := writeAppointmentsSheet(file, appointments); err != nil {
		return err
	}
	if err := writeUtilizationSheet(file, staff, scores); err != nil {
		return err
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeAppointmentsSheet(file *excelize.File, appointments []model.Appointment) error {
	const sheet = "Appointments"
	file.SetSheetName("Sheet1", sheet)

	if err := writeRow(file, sheet, 1, []any{"ID", "Staff", "Customer", "Start", "End", "Status"}); err != nil {
		return err
	}
	if err := boldRow(file, sheet, 1, 6); err != nil {
		return err
	}

	for i, a := range appointments {
		row := []any{
			a.ID,
			a.StaffID,
			a.CustomerID,
			a.Start.Format("2006-01-02 15:04"),
			a.End.Format("2006-01-02 15:04"),
			a.Status,
		}
		if err := writeRow(file, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeUtilizationSheet(file *excelize.File, staff []model.Staff, scores map[int64]float64) error {
	const sheet = "Utilization"
	if _, err := file.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	if err := writeRow(file, sheet, 1, []any{"Staff ID", "Name", "Load"}); err != nil {
		return err
	}
	if err := boldRow(file, sheet, 1, 3); err != nil {
		return err
	}

	for i, st := range staff {
		row := []any{st.ID, st.Name, scores[st.ID]}
		if err := writeRow(file, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(file *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func boldRow(file *excelize.File, sheet string, row, cols int) error {
	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil
	}
	startCell, _ := excelize.CoordinatesToCellName(1, row)
	endCell, _ := excelize.CoordinatesToCellName(cols, row)
	return file.SetCellStyle(sheet, startCell, endCell, style)
}
