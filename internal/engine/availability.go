package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"slotnik/internal/metrics"
	"slotnik/internal/model"
	"slotnik/internal/rules"
	"slotnik/internal/slots"
)

// AvailabilityRequest asks for bookable windows for a set of services on one
// calendar date. StaffID and CustomerID are optional; Timezone is only a
// fallback for locations without a configured zone.
type AvailabilityRequest struct {
	LocationID int64     `json:"location_id"`
	ServiceIDs []int64   `json:"service_ids"`
	Date       time.Time `json:"date"`
	StaffID    int64     `json:"staff_id,omitempty"`
	CustomerID int64     `json:"customer_id,omitempty"`
	Timezone   string    `json:"timezone,omitempty"`
}

// GetAvailableSlots computes every bookable window across eligible staff for
// the requested date, priced and ordered. An empty result is a normal
// outcome, not an error.
func (s *Service) GetAvailableSlots(ctx context.Context, req AvailabilityRequest) ([]model.TimeSlot, error) {
	loc, err := s.location(ctx, req.LocationID)
	if err != nil {
		metrics.IncAvailability("error")
		return nil, err
	}
	tz := s.timezone(loc, req.Timezone)

	services, err := s.fetchServices(ctx, req.ServiceIDs)
	if err != nil {
		metrics.IncAvailability("error")
		return nil, err
	}
	duration := model.TotalDuration(services)
	basePrice := model.BasePrice(services)

	eligible, err := s.eligibleStaff(ctx, loc, req.ServiceIDs, req.Date, req.StaffID)
	if err != nil {
		metrics.IncAvailability("error")
		return nil, err
	}
	if len(eligible) == 0 {
		metrics.IncAvailability("empty")
		return []model.TimeSlot{}, nil
	}

	dayStart, dayEnd := civilDayBounds(req.Date, tz)
	appointments, err := s.store.ListAppointments(ctx, loc.ID, dayStart, dayEnd)
	if err != nil {
		metrics.IncAvailability("error")
		return nil, err
	}
	overrides, err := s.store.ListOverrides(ctx, loc.ID, dayStart, dayEnd)
	if err != nil {
		metrics.IncAvailability("error")
		return nil, err
	}
	ruleset, err := s.store.ListRules(ctx, loc.ID)
	if err != nil {
		metrics.IncAvailability("error")
		return nil, err
	}

	byStaff := groupByStaff(appointments)
	now := s.now()

	var result []model.TimeSlot
	for _, st := range eligible {
		sched, err := s.store.GetSchedule(ctx, st.ID, dayStart, tz)
		if err != nil {
			metrics.IncAvailability("error")
			return nil, err
		}
		if sched == nil {
			continue
		}

		for _, w := range slots.Generate(sched, duration, s.step) {
			if !SlotAvailable(w, byStaff[st.ID], overrides, sched, ruleset, loc.ID, now) {
				continue
			}

			slot := model.TimeSlot{StaffID: st.ID, Start: w.Start, End: w.End, Price: basePrice}
			if mult, peak := rules.PeakMultiplier(w.Start, ruleset, loc.ID, st.ID); peak {
				slot.Price = basePrice.Mul(mult)
				slot.IsPeak = true
			}
			result = append(result, slot)
		}
	}

	if err := s.orderSlots(ctx, result, req.CustomerID); err != nil {
		metrics.IncAvailability("error")
		return nil, err
	}

	if len(result) == 0 {
		metrics.IncAvailability("empty")
		return []model.TimeSlot{}, nil
	}
	metrics.IncAvailability("ok")
	metrics.ObserveSlotsReturned(len(result))
	return result, nil
}

// fetchServices loads the requested services and rejects unknown or inactive
// ones: a wrong id would silently shrink the required duration otherwise.
func (s *Service) fetchServices(ctx context.Context, ids []int64) ([]model.Service, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty service list", ErrUnknownService)
	}
	services, err := s.catalog.GetServices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	found := make(map[int64]bool, len(services))
	for _, svc := range services {
		if !svc.IsActive {
			return nil, fmt.Errorf("%w: service %d", ErrUnknownService, svc.ID)
		}
		found[svc.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("%w: service %d", ErrUnknownService, id)
		}
	}
	return services, nil
}

// eligibleStaff filters the location's staff down to those who can take the
// booking: active, booking-enabled, capable of every service, not absent.
func (s *Service) eligibleStaff(ctx context.Context, loc *model.Location, serviceIDs []int64, date time.Time, onlyStaffID int64) ([]model.Staff, error) {
	all, err := s.store.ListStaff(ctx, loc.ID)
	if err != nil {
		return nil, err
	}
	absent, err := s.store.ListAbsentStaff(ctx, loc.ID, date)
	if err != nil {
		return nil, err
	}

	var eligible []model.Staff
	for _, st := range all {
		if onlyStaffID != 0 && st.ID != onlyStaffID {
			continue
		}
		if !st.IsActive || !st.BookingEnabled || absent[st.ID] {
			continue
		}
		if !st.CanPerform(serviceIDs) {
			continue
		}
		eligible = append(eligible, st)
	}
	return eligible, nil
}

// orderSlots applies VIP reordering for flagged customers and plain
// chronological order for everyone else. Ties break on staff id so identical
// inputs always produce identical output.
func (s *Service) orderSlots(ctx context.Context, result []model.TimeSlot, customerID int64) error {
	sortChrono(result)

	if customerID == 0 {
		return nil
	}
	customer, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if customer != nil && customer.IsVIP {
		PrioritizeVIP(result)
	}
	return nil
}

func sortChrono(ts []model.TimeSlot) {
	sort.SliceStable(ts, func(i, j int) bool {
		if !ts[i].Start.Equal(ts[j].Start) {
			return ts[i].Start.Before(ts[j].Start)
		}
		return ts[i].StaffID < ts[j].StaffID
	})
}

func groupByStaff(appointments []model.Appointment) map[int64][]model.Appointment {
	out := make(map[int64][]model.Appointment)
	for _, a := range appointments {
		if !a.Blocks() {
			continue
		}
		out[a.StaffID] = append(out[a.StaffID], a)
	}
	return out
}
