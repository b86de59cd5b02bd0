// Package slots produces candidate booking windows from raw schedule data.
// It does no conflict filtering; the detector owns that.
package slots

import (
	"time"

	"slotnik/internal/model"
)

// DefaultStep is the fixed granularity candidate windows advance by.
const DefaultStep = 15 * time.Minute

// Window is a raw candidate [Start, End) interval for one staff member.
type Window struct {
	StaffID int64
	Start   time.Time
	End     time.Time
}

// Generate emits candidate windows of the requested duration across the
// schedule's working range, stepping the start by step and stopping once a
// window would extend past working end. Candidates overlapping the break are
// dropped after generation using the half-open overlap test. Windows come out
// in chronological order.
func Generate(sched *model.Schedule, duration, step time.Duration) []Window {
	if sched == nil || duration <= 0 {
		return nil
	}
	if step <= 0 {
		step = DefaultStep
	}

	var out []Window
	for cursor := sched.Start; !cursor.Add(duration).After(sched.End); cursor = cursor.Add(step) {
		start := cursor
		end := cursor.Add(duration)

		if sched.HasBreak() && model.Overlaps(start, end, sched.BreakStart, sched.BreakEnd) {
			continue
		}

		out = append(out, Window{StaffID: sched.StaffID, Start: start, End: end})
	}
	return out
}

// ContainedInUnbookedSlot reports whether the window is fully covered by at
// least one unbooked pre-carved slot. Only meaningful when the schedule
// exposes discrete slots.
func ContainedInUnbookedSlot(w Window, carved []model.ScheduleSlot) bool {
	for _, s := range carved {
		if s.Booked {
			continue
		}
		if !w.Start.Before(s.Start) && !w.End.After(s.End) {
			return true
		}
	}
	return false
}
