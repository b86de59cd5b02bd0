package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
	StatusNoShow    = "no_show"
)

// Location represents a physical branch with its weekly opening hours.
type Location struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Timezone  string         `json:"timezone"` // IANA name, e.g. "Europe/Moscow"
	IsActive  bool           `json:"is_active"`
	Hours     []WorkingHours `json:"hours"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// WorkingHours is the opening window for one weekday.
type WorkingHours struct {
	Weekday time.Weekday `json:"weekday"`
	Open    string       `json:"open"`  // "09:00"
	Close   string       `json:"close"` // "19:00"
}

// HoursFor returns the opening window for a weekday, if the branch opens that day.
func (l *Location) HoursFor(day time.Weekday) (WorkingHours, bool) {
	for _, h := range l.Hours {
		if h.Weekday == day {
			return h, true
		}
	}
	return WorkingHours{}, false
}

// Staff represents one bookable employee of a location.
type Staff struct {
	ID             int64     `json:"id"`
	LocationID     int64     `json:"location_id"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"is_active"`
	BookingEnabled bool      `json:"booking_enabled"`
	ServiceIDs     []int64   `json:"service_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CanPerform reports whether the staff member covers every requested service.
func (s *Staff) CanPerform(serviceIDs []int64) bool {
	for _, want := range serviceIDs {
		found := false
		for _, have := range s.ServiceIDs {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Service is a bookable service supplied by the catalog.
type Service struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	DurationMin int             `json:"duration_min"`
	BufferMin   int             `json:"buffer_min"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
}

// TotalDuration sums duration plus buffer over the given services.
// Per-service buffers are summed into the slot-fitting duration even for
// multi-service bookings.
func TotalDuration(services []Service) time.Duration {
	total := 0
	for _, svc := range services {
		total += svc.DurationMin + svc.BufferMin
	}
	return time.Duration(total) * time.Minute
}

// BasePrice sums base prices over the given services. Buffer minutes carry
// no price.
func BasePrice(services []Service) decimal.Decimal {
	total := decimal.Zero
	for _, svc := range services {
		total = total.Add(svc.Price)
	}
	return total
}

// Schedule is one staff member's working plan for a single date. All times
// are absolute instants, resolved in the location timezone when loaded.
type Schedule struct {
	ID         int64          `json:"id"`
	StaffID    int64          `json:"staff_id"`
	Date       time.Time      `json:"date"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	BreakStart time.Time      `json:"break_start"` // zero when no break
	BreakEnd   time.Time      `json:"break_end"`
	Slots      []ScheduleSlot `json:"slots,omitempty"` // optional pre-carved slots
}

// HasBreak reports whether the schedule carries a break window.
func (s *Schedule) HasBreak() bool {
	return !s.BreakStart.IsZero() && !s.BreakEnd.IsZero()
}

// ScheduleSlot is a discrete pre-carved slot inside a schedule. When a
// schedule exposes such slots, a candidate window is only valid if it is
// fully covered by one unbooked slot.
type ScheduleSlot struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Booked bool      `json:"booked"`
}

// Appointment is a committed booking, the authoritative record of taken time.
type Appointment struct {
	ID         int64     `json:"id"`
	LocationID int64     `json:"location_id"`
	StaffID    int64     `json:"staff_id"`
	CustomerID int64     `json:"customer_id"`
	ServiceIDs []int64   `json:"service_ids"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     string    `json:"status"`
	Comment    string    `json:"comment,omitempty"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Blocks reports whether the appointment still occupies its interval.
// Canceled and no-show appointments are excluded from all conflict math.
func (a *Appointment) Blocks() bool {
	return a.Status != StatusCanceled && a.Status != StatusNoShow
}

// Override is an explicit allow/deny interval layered on top of the regular
// schedule, scoped to one staff member or to the whole location.
type Override struct {
	ID         int64     `json:"id"`
	LocationID int64     `json:"location_id"`
	StaffID    int64     `json:"staff_id"` // 0 = whole location
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Available  bool      `json:"available"`
	Reason     string    `json:"reason,omitempty"`
}

// AppliesTo reports whether the override covers the given staff member.
func (o *Override) AppliesTo(staffID int64) bool {
	return o.StaffID == 0 || o.StaffID == staffID
}

// Customer holds the small customer projection the engine needs.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	IsVIP bool   `json:"is_vip"`
}

// TimeSlot is a computed candidate booking window. It is pure output of
// computation and is never persisted.
type TimeSlot struct {
	StaffID int64           `json:"staff_id"`
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	Price   decimal.Decimal `json:"price"`
	IsPeak  bool            `json:"is_peak"`
}

// Overlaps is the single interval test used everywhere in the engine.
// Intervals are half-open: [a,b) and [c,d) overlap iff a < d && b > c.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
