package engine

import (
	"context"
	"time"
)

// StaffLoadBalance returns a normalized [0,1] utilization score per staff
// member at the location for one date: booked minutes over the assumed
// workday, capped at 1. Staff with no appointments score 0. The output is a
// routing signal for callers, not a gate on availability.
func (s *Service) StaffLoadBalance(ctx context.Context, locationID int64, date time.Time) (map[int64]float64, error) {
	loc, err := s.location(ctx, locationID)
	if err != nil {
		return nil, err
	}
	tz := s.timezone(loc, "")
	dayStart, dayEnd := civilDayBounds(date, tz)

	staff, err := s.store.ListStaff(ctx, locationID)
	if err != nil {
		return nil, err
	}
	appointments, err := s.store.ListAppointments(ctx, locationID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	minutes := make(map[int64]float64, len(staff))
	for _, a := range appointments {
		if !a.Blocks() {
			continue
		}
		minutes[a.StaffID] += a.End.Sub(a.Start).Minutes()
	}

	scores := make(map[int64]float64, len(staff))
	for _, st := range staff {
		score := minutes[st.ID] / float64(s.workdayMinutes)
		if score > 1 {
			score = 1
		}
		scores[st.ID] = score
	}
	return scores, nil
}
