// Package engine computes bookable time windows, detects scheduling
// conflicts for proposed bookings, suggests alternatives and estimates staff
// load. All computations here are read-only and side-effect free; any number
// of callers may run them concurrently.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"slotnik/internal/model"
	"slotnik/internal/slots"
)

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrLocationInactive = errors.New("location is inactive")
	ErrUnknownService   = errors.New("unknown or inactive service")
)

// Store provides read access to the persistent records the engine consumes.
// Lookups return (nil, nil) when the record does not exist.
type Store interface {
	GetLocation(ctx context.Context, id int64) (*model.Location, error)
	GetStaff(ctx context.Context, id int64) (*model.Staff, error)
	ListStaff(ctx context.Context, locationID int64) ([]model.Staff, error)
	ListAbsentStaff(ctx context.Context, locationID int64, date time.Time) (map[int64]bool, error)
	GetSchedule(ctx context.Context, staffID int64, date time.Time, loc *time.Location) (*model.Schedule, error)
	ListAppointments(ctx context.Context, locationID int64, from, to time.Time) ([]model.Appointment, error)
	ListStaffAppointments(ctx context.Context, staffID int64, from, to time.Time) ([]model.Appointment, error)
	ListOverrides(ctx context.Context, locationID int64, from, to time.Time) ([]model.Override, error)
	ListRules(ctx context.Context, locationID int64) ([]model.BookingRule, error)
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
}

// Catalog supplies service records (duration, buffer, price) by id set.
type Catalog interface {
	GetServices(ctx context.Context, ids []int64) ([]model.Service, error)
}

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	Step           time.Duration    // slot step granularity
	SearchDays     int              // forward window for alternatives
	SuggestCount   int              // default number of alternatives
	WorkdayMinutes int              // assumed workday for load scores
	Now            func() time.Time // injectable clock
}

// Service is the availability engine. Construct one per process and share it;
// it holds no request state.
type Service struct {
	store          Store
	catalog        Catalog
	logger         *zerolog.Logger
	now            func() time.Time
	step           time.Duration
	searchDays     int
	suggestCount   int
	workdayMinutes int
}

// NewService creates the engine with its collaborators.
func NewService(store Store, catalog Catalog, logger *zerolog.Logger, opts Options) *Service {
	if opts.Step <= 0 {
		opts.Step = slots.DefaultStep
	}
	if opts.SearchDays <= 0 {
		opts.SearchDays = 7
	}
	if opts.SuggestCount <= 0 {
		opts.SuggestCount = 3
	}
	if opts.WorkdayMinutes <= 0 {
		opts.WorkdayMinutes = 480
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:          store,
		catalog:        catalog,
		logger:         logger,
		now:            opts.Now,
		step:           opts.Step,
		searchDays:     opts.SearchDays,
		suggestCount:   opts.SuggestCount,
		workdayMinutes: opts.WorkdayMinutes,
	}
}

// location loads and validates a location, mapping absence and inactivity to
// the engine's sentinel errors.
func (s *Service) location(ctx context.Context, id int64) (*model.Location, error) {
	loc, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrLocationNotFound
	}
	if !loc.IsActive {
		return nil, ErrLocationInactive
	}
	return loc, nil
}

// timezone resolves the zone every wall-clock value is interpreted in. The
// location's zone wins; the request zone is a fallback for locations without
// one; UTC is the last resort.
func (s *Service) timezone(loc *model.Location, requested string) *time.Location {
	if loc != nil && loc.Timezone != "" {
		if tz, err := time.LoadLocation(loc.Timezone); err == nil {
			return tz
		}
		s.logger.Warn().Str("timezone", loc.Timezone).Int64("location_id", loc.ID).
			Msg("unknown location timezone, falling back")
	}
	if requested != "" {
		if tz, err := time.LoadLocation(requested); err == nil {
			return tz
		}
	}
	return time.UTC
}

// dayBounds returns the half-open [start, end) instant range of the calendar
// day containing the instant t in the given zone.
func dayBounds(t time.Time, tz *time.Location) (time.Time, time.Time) {
	local := t.In(tz)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
	return start, start.AddDate(0, 0, 1)
}

// civilDayBounds treats t as a civil date: its year/month/day components are
// taken as stated and rebuilt in the given zone. Request dates use this so a
// caller's "2026-09-07" means that calendar day at the location, whatever
// zone the caller encoded it in.
func civilDayBounds(t time.Time, tz *time.Location) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, tz)
	return start, start.AddDate(0, 0, 1)
}
