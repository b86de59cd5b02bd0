// Package commit turns a validated proposal into a persisted appointment.
// The availability computations are read-only, so the single correctness
// hazard in the system lives here: two writers can both observe a slot as
// free and race to take it. Writes for one staff member are serialized with a
// per-staff lock, and the store re-checks overlap inside its transaction; a
// lost race surfaces as ErrBookingConflict and triggers a bounded
// re-validation loop.
package commit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"slotnik/internal/db"
	"slotnik/internal/engine"
	"slotnik/internal/events"
	"slotnik/internal/metrics"
	"slotnik/internal/model"
)

// State of one commit attempt.
type State string

const (
	StateProposed  State = "proposed"
	StateValidated State = "validated"
	StateCommitted State = "committed"
	StateRejected  State = "rejected"
)

// Detector re-validates a proposal. Satisfied by *engine.Service.
type Detector interface {
	DetectConflicts(ctx context.Context, p engine.Proposal) (model.ConflictSet, error)
}

// Store persists appointments. CreateAppointmentGuarded must re-check for
// overlapping appointments transactionally and return db.ErrBookingConflict
// when the interval was taken by a concurrent writer.
type Store interface {
	CreateAppointmentGuarded(ctx context.Context, appt *model.Appointment) error
}

// Publisher broadcasts lifecycle events, fire-and-forget.
type Publisher interface {
	Publish(event events.Event)
}

// Request is a proposal plus the booking payload to persist with it.
type Request struct {
	Proposal   engine.Proposal
	CustomerID int64
	ServiceIDs []int64
	Comment    string
}

// Result reports how the attempt ended. Conflicts is populated when the
// final state is Rejected.
type Result struct {
	AttemptID   string
	State       State
	Attempts    int
	Conflicts   model.ConflictSet
	Appointment *model.Appointment
}

// Committer drives one proposal through
// proposed -> validated -> committed | rejected.
type Committer struct {
	detector   Detector
	store      Store
	bus        Publisher
	logger     *zerolog.Logger
	locks      *staffLocks
	maxRetries int
}

// NewCommitter wires the commit boundary. maxRetries bounds how many times a
// lost write race triggers re-validation; values below 1 default to 3.
func NewCommitter(detector Detector, store Store, bus Publisher, logger *zerolog.Logger, maxRetries int) *Committer {
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &Committer{
		detector:   detector,
		store:      store,
		bus:        bus,
		logger:     logger,
		locks:      newStaffLocks(),
		maxRetries: maxRetries,
	}
}

// Commit validates and persists the proposal. A non-empty conflict set is
// returned as data in a Rejected result, never as an error; errors are
// reserved for infrastructure failures.
func (c *Committer) Commit(ctx context.Context, req Request) (*Result, error) {
	result := &Result{AttemptID: uuid.NewString(), State: StateProposed}

	unlock := c.locks.lock(req.Proposal.StaffID)
	defer unlock()

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		result.Attempts = attempt

		conflicts, err := c.detector.DetectConflicts(ctx, req.Proposal)
		if err != nil {
			return nil, err
		}
		if !conflicts.Empty() {
			result.State = StateRejected
			result.Conflicts = conflicts
			metrics.IncCommit(string(StateRejected))
			return result, nil
		}
		result.State = StateValidated

		appt := &model.Appointment{
			LocationID: req.Proposal.LocationID,
			StaffID:    req.Proposal.StaffID,
			CustomerID: req.CustomerID,
			ServiceIDs: req.ServiceIDs,
			Start:      req.Proposal.Start,
			End:        req.Proposal.End,
			Status:     model.StatusConfirmed,
			Comment:    req.Comment,
			Version:    1,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}

		err = c.store.CreateAppointmentGuarded(ctx, appt)
		if errors.Is(err, db.ErrBookingConflict) {
			// Lost the race to a concurrent writer; re-validate so the
			// caller gets the conflict as data instead of a raw error.
			metrics.IncCommitRetry()
			c.logger.Warn().Int64("staff_id", req.Proposal.StaffID).
				Time("start", req.Proposal.Start).Int("attempt", attempt).
				Msg("commit lost write race, re-validating")
			continue
		}
		if err != nil {
			return nil, err
		}

		result.State = StateCommitted
		result.Appointment = appt
		metrics.IncCommit(string(StateCommitted))
		c.publish(events.BookingCreated, appt)
		return result, nil
	}

	result.State = StateRejected
	result.Conflicts = model.ConflictSet{model.ConflictDoubleBooking}
	metrics.IncCommit(string(StateRejected))
	return result, nil
}

func (c *Committer) publish(eventType string, appt *model.Appointment) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.NewEvent(eventType, appt))
}

// staffLocks serializes writers per staff member. Entries are reference
// counted and dropped once the last holder releases, so the map does not
// grow with every staff id ever booked.
type staffLocks struct {
	mu    sync.Mutex
	locks map[int64]*staffLock
}

type staffLock struct {
	sync.Mutex
	refs int
}

func newStaffLocks() *staffLocks {
	return &staffLocks{locks: make(map[int64]*staffLock)}
}

func (s *staffLocks) lock(staffID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[staffID]
	if !ok {
		l = &staffLock{}
		s.locks[staffID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, staffID)
		}
		s.mu.Unlock()
	}
}
