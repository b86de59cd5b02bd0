package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleScope says which records a booking rule applies to.
type RuleScope string

const (
	ScopeGlobal   RuleScope = "global"
	ScopeLocation RuleScope = "location"
	ScopeStaff    RuleScope = "staff"
)

// Rule is the tagged variant over the booking constraint kinds. Consumers
// dispatch with an exhaustive type switch so a new kind fails loudly
// everywhere it is not handled.
type Rule interface {
	Kind() string
}

// MinAdvanceRule requires a window to start after now plus the given notice.
type MinAdvanceRule struct {
	Hours int
}

func (MinAdvanceRule) Kind() string { return "min_advance" }

// MaxAdvanceRule requires a window to start before now plus the given horizon.
type MaxAdvanceRule struct {
	Days int
}

func (MaxAdvanceRule) Kind() string { return "max_advance" }

// BlackoutRule blocks windows whose start falls inside [From, To].
type BlackoutRule struct {
	From time.Time
	To   time.Time
}

func (BlackoutRule) Kind() string { return "blackout" }

// PeakPricingRule marks a time-of-day band where the base price is
// multiplied. It never fails a window; pricing consumes it separately.
type PeakPricingRule struct {
	StartClock string // "17:00"
	EndClock   string // "20:00"
	Multiplier decimal.Decimal
}

func (PeakPricingRule) Kind() string { return "peak_pricing" }

// BookingRule binds a rule variant to its scope and evaluation priority.
// Priority orders evaluation only; every applicable rule must pass.
type BookingRule struct {
	ID         int64
	Scope      RuleScope
	LocationID int64
	StaffID    int64
	Priority   int
	Rule       Rule
}

// AppliesTo reports whether the rule covers the given location/staff pair.
func (r *BookingRule) AppliesTo(locationID, staffID int64) bool {
	switch r.Scope {
	case ScopeGlobal:
		return true
	case ScopeLocation:
		return r.LocationID == locationID
	case ScopeStaff:
		return r.StaffID == staffID
	default:
		return false
	}
}
