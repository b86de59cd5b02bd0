package engine

import (
	"context"
	"time"

	"slotnik/internal/metrics"
	"slotnik/internal/model"
	"slotnik/internal/rules"
	"slotnik/internal/slots"
)

// Proposal is one specific (staff, interval, location) booking attempt.
type Proposal struct {
	LocationID int64     `json:"location_id"`
	StaffID    int64     `json:"staff_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	// ExcludeAppointmentID skips the appointment being rescheduled when
	// checking for double bookings.
	ExcludeAppointmentID int64 `json:"exclude_appointment_id,omitempty"`
}

// SlotAvailable is the conjunction of every per-window check: appointment
// overlap, deny overrides, booking rules and, when the schedule pre-carves
// discrete slots, containment in an unbooked one. A single failure
// disqualifies the window.
func SlotAvailable(
	w slots.Window,
	appointments []model.Appointment,
	overrides []model.Override,
	sched *model.Schedule,
	ruleset []model.BookingRule,
	locationID int64,
	now time.Time,
) bool {
	for _, a := range appointments {
		if !a.Blocks() || a.StaffID != w.StaffID {
			continue
		}
		if model.Overlaps(w.Start, w.End, a.Start, a.End) {
			return false
		}
	}

	for _, o := range overrides {
		if o.Available || !o.AppliesTo(w.StaffID) {
			continue
		}
		if model.Overlaps(w.Start, w.End, o.Start, o.End) {
			return false
		}
	}

	if !rules.PassesAll(w.Start, ruleset, locationID, w.StaffID, now) {
		return false
	}

	if sched != nil && len(sched.Slots) > 0 {
		if !slots.ContainedInUnbookedSlot(w, sched.Slots) {
			return false
		}
	}

	return true
}

// DetectConflicts checks one proposed booking against committed state and
// returns every conflict kind found. It is idempotent and side-effect free;
// the commit path re-runs it under the per-staff write guard.
func (s *Service) DetectConflicts(ctx context.Context, p Proposal) (model.ConflictSet, error) {
	var conflicts model.ConflictSet

	loc, err := s.store.GetLocation(ctx, p.LocationID)
	if err != nil {
		return nil, err
	}

	tz := s.timezone(loc, "")
	if loc == nil {
		conflicts = conflicts.Add(model.ConflictBranchClosed)
	} else if _, open := loc.HoursFor(p.Start.In(tz).Weekday()); !open {
		conflicts = conflicts.Add(model.ConflictBranchClosed)
	}

	staff, err := s.store.GetStaff(ctx, p.StaffID)
	if err != nil {
		return nil, err
	}
	if staff == nil || !staff.IsActive || !staff.BookingEnabled {
		conflicts = conflicts.Add(model.ConflictStaffUnavailable)
	}

	overrides, err := s.store.ListOverrides(ctx, p.LocationID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		if o.Available || !o.AppliesTo(p.StaffID) {
			continue
		}
		if model.Overlaps(p.Start, p.End, o.Start, o.End) {
			conflicts = conflicts.Add(model.ConflictStaffUnavailable)
			break
		}
	}

	dayStart, dayEnd := dayBounds(p.Start, tz)
	appointments, err := s.store.ListStaffAppointments(ctx, p.StaffID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	for _, a := range appointments {
		if !a.Blocks() || a.ID == p.ExcludeAppointmentID {
			continue
		}
		if proposalOverlaps(a.Start, a.End, p.Start, p.End) {
			conflicts = conflicts.Add(model.ConflictDoubleBooking)
			break
		}
	}

	for _, kind := range conflicts {
		metrics.IncConflict(string(kind))
	}
	return conflicts, nil
}

// proposalOverlaps is the three-way conflict test used at commit time: the
// existing appointment starts inside the proposal, ends inside it, or fully
// contains it.
func proposalOverlaps(exStart, exEnd, pStart, pEnd time.Time) bool {
	startsInside := !exStart.Before(pStart) && exStart.Before(pEnd)
	endsInside := exEnd.After(pStart) && !exEnd.After(pEnd)
	contains := !exStart.After(pStart) && !exEnd.Before(pEnd)
	return startsInside || endsInside || contains
}
