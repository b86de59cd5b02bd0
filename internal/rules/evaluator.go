// Package rules evaluates configurable booking constraints against candidate
// windows.
package rules

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"slotnik/internal/model"
)

// Passes checks a single rule against a window start. Peak pricing never
// fails a window; it is consumed by the pricing step instead.
func Passes(windowStart time.Time, rule model.Rule, now time.Time) bool {
	switch r := rule.(type) {
	case model.MinAdvanceRule:
		return windowStart.After(now.Add(time.Duration(r.Hours) * time.Hour))
	case model.MaxAdvanceRule:
		return windowStart.Before(now.AddDate(0, 0, r.Days))
	case model.BlackoutRule:
		return windowStart.Before(r.From) || windowStart.After(r.To)
	case model.PeakPricingRule:
		return true
	default:
		// Unknown kinds fail closed so a missed case here cannot widen
		// availability.
		return false
	}
}

// PassesAll evaluates the applicable rules in priority order. The result is a
// pure conjunction, so ordering only affects which rule short-circuits.
func PassesAll(windowStart time.Time, ruleset []model.BookingRule, locationID, staffID int64, now time.Time) bool {
	ordered := Applicable(ruleset, locationID, staffID)
	for _, br := range ordered {
		if !Passes(windowStart, br.Rule, now) {
			return false
		}
	}
	return true
}

// Applicable filters the ruleset to those covering the location/staff pair,
// ordered by priority.
func Applicable(ruleset []model.BookingRule, locationID, staffID int64) []model.BookingRule {
	var out []model.BookingRule
	for _, br := range ruleset {
		if br.AppliesTo(locationID, staffID) {
			out = append(out, br)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// PeakMultiplier returns the price multiplier for a window start falling in a
// peak band, together with whether any band matched. The first applicable
// band in priority order wins.
func PeakMultiplier(windowStart time.Time, ruleset []model.BookingRule, locationID, staffID int64) (decimal.Decimal, bool) {
	for _, br := range Applicable(ruleset, locationID, staffID) {
		peak, ok := br.Rule.(model.PeakPricingRule)
		if !ok {
			continue
		}
		if inClockBand(windowStart, peak.StartClock, peak.EndClock) {
			return peak.Multiplier, true
		}
	}
	return decimal.NewFromInt(1), false
}

// inClockBand tests a time-of-day against a half-open [start, end) wall-clock
// band in the instant's own location.
func inClockBand(t time.Time, startClock, endClock string) bool {
	minute := t.Hour()*60 + t.Minute()
	start, okStart := clockMinutes(startClock)
	end, okEnd := clockMinutes(endClock)
	if !okStart || !okEnd {
		return false
	}
	return minute >= start && minute < end
}

func clockMinutes(clock string) (int, bool) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}
