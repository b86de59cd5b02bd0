package engine

import (
	"sort"

	"slotnik/internal/model"
)

// VIP customers get late-morning slots first.
const (
	vipBandStartHour = 10
	vipBandEndHour   = 14
)

// PrioritizeVIP reorders slots in place so that windows starting inside
// [10:00, 14:00) local time come first. Chronological order is preserved
// within each group; nothing else changes.
func PrioritizeVIP(ts []model.TimeSlot) {
	sort.SliceStable(ts, func(i, j int) bool {
		pi, pj := inVIPBand(ts[i]), inVIPBand(ts[j])
		if pi != pj {
			return pi
		}
		return false // keep prior (chronological) order inside each group
	})
}

func inVIPBand(s model.TimeSlot) bool {
	h := s.Start.Hour()
	return h >= vipBandStartHour && h < vipBandEndHour
}
