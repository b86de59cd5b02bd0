package engine

import (
	"context"
	"sort"
	"time"

	"slotnik/internal/model"
)

// SuggestAlternatives searches forward from the proposal's date (day 0
// inclusive) for replacement slots with the same staff, ranking each day's
// slots by how close their time-of-day lands to the original request. It
// never returns two overlapping slots and may return fewer than desired; that
// is a normal outcome. The context is checked between daily iterations, so a
// long search aborts at day granularity.
func (s *Service) SuggestAlternatives(ctx context.Context, original Proposal, serviceIDs []int64, desired int) ([]model.TimeSlot, error) {
	if desired <= 0 {
		desired = s.suggestCount
	}

	loc, err := s.location(ctx, original.LocationID)
	if err != nil {
		return nil, err
	}
	tz := s.timezone(loc, "")
	origClock := clockMinutesOf(original.Start.In(tz))
	dayStart, _ := dayBounds(original.Start, tz)

	selected := make([]model.TimeSlot, 0, desired)
	for day := 0; day < s.searchDays; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date := dayStart.AddDate(0, 0, day)
		daySlots, err := s.GetAvailableSlots(ctx, AvailabilityRequest{
			LocationID: original.LocationID,
			ServiceIDs: serviceIDs,
			Date:       date,
			StaffID:    original.StaffID,
		})
		if err != nil {
			return nil, err
		}

		rankByProximity(daySlots, origClock)
		for _, slot := range daySlots {
			if overlapsAny(slot, selected) {
				continue
			}
			selected = append(selected, slot)
			if len(selected) == desired {
				return selected, nil
			}
		}
	}
	return selected, nil
}

// rankByProximity orders a day's slots by absolute distance between their
// time-of-day and the original's, ignoring the date component. Ties keep
// chronological order.
func rankByProximity(ts []model.TimeSlot, origClock int) {
	sort.SliceStable(ts, func(i, j int) bool {
		di := clockDistance(clockMinutesOf(ts[i].Start), origClock)
		dj := clockDistance(clockMinutesOf(ts[j].Start), origClock)
		if di != dj {
			return di < dj
		}
		return ts[i].Start.Before(ts[j].Start)
	})
}

func overlapsAny(slot model.TimeSlot, selected []model.TimeSlot) bool {
	for _, other := range selected {
		if model.Overlaps(slot.Start, slot.End, other.Start, other.End) {
			return true
		}
	}
	return false
}

func clockMinutesOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func clockDistance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
