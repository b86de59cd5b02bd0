package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOverlaps(t *testing.T) {
	at := func(hour, min int) time.Time {
		return time.Date(2026, 9, 7, hour, min, 0, 0, time.UTC)
	}

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical intervals", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"partial overlap at start", at(9, 30), at(10, 30), at(10, 0), at(11, 0), true},
		{"partial overlap at end", at(10, 30), at(11, 30), at(10, 0), at(11, 0), true},
		{"a contains b", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"b contains a", at(10, 15), at(10, 45), at(10, 0), at(11, 0), true},
		{"back to back, a first", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"back to back, b first", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(7, 0), at(8, 0), at(10, 0), at(11, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTotalDuration(t *testing.T) {
	services := []Service{
		{ID: 1, DurationMin: 60, BufferMin: 10},
		{ID: 2, DurationMin: 30, BufferMin: 5},
	}

	// Buffers are summed per service, including intermediate ones.
	if got, want := TotalDuration(services), 105*time.Minute; got != want {
		t.Errorf("TotalDuration() = %v, want %v", got, want)
	}
	if got := TotalDuration(nil); got != 0 {
		t.Errorf("TotalDuration(nil) = %v, want 0", got)
	}
}

func TestBasePrice(t *testing.T) {
	services := []Service{
		{ID: 1, Price: decimal.NewFromInt(1500)},
		{ID: 2, Price: decimal.RequireFromString("499.50")},
	}
	if got := BasePrice(services); !got.Equal(decimal.RequireFromString("1999.50")) {
		t.Errorf("BasePrice() = %s, want 1999.50", got)
	}
}

func TestAppointmentBlocks(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusPending, true},
		{StatusConfirmed, true},
		{StatusCompleted, true},
		{StatusCanceled, false},
		{StatusNoShow, false},
	}
	for _, tt := range tests {
		a := Appointment{Status: tt.status}
		if got := a.Blocks(); got != tt.want {
			t.Errorf("Blocks() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStaffCanPerform(t *testing.T) {
	st := Staff{ServiceIDs: []int64{1, 2, 3}}

	if !st.CanPerform([]int64{1, 3}) {
		t.Error("expected staff to cover services 1 and 3")
	}
	if st.CanPerform([]int64{1, 4}) {
		t.Error("expected staff not to cover service 4")
	}
	if !st.CanPerform(nil) {
		t.Error("empty service list should always be covered")
	}
}

func TestLocationHoursFor(t *testing.T) {
	loc := Location{Hours: []WorkingHours{
		{Weekday: time.Monday, Open: "09:00", Close: "19:00"},
		{Weekday: time.Saturday, Open: "10:00", Close: "16:00"},
	}}

	h, ok := loc.HoursFor(time.Monday)
	if !ok || h.Open != "09:00" {
		t.Errorf("HoursFor(Monday) = %+v, %v", h, ok)
	}
	if _, ok := loc.HoursFor(time.Sunday); ok {
		t.Error("expected Sunday to be closed")
	}
}

func TestOverrideAppliesTo(t *testing.T) {
	wholeLocation := Override{StaffID: 0}
	if !wholeLocation.AppliesTo(7) {
		t.Error("location-wide override should apply to any staff")
	}

	oneStaff := Override{StaffID: 5}
	if !oneStaff.AppliesTo(5) || oneStaff.AppliesTo(7) {
		t.Error("staff override should apply only to its staff member")
	}
}
