// Package api exposes the engine over HTTP. Handlers are thin: parse,
// delegate, encode. All business rules live in engine and commit.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"slotnik/internal/commit"
	"slotnik/internal/engine"
	"slotnik/internal/events"
	"slotnik/internal/metrics"
	"slotnik/internal/model"
)

// Engine is the read side consumed by the handlers. Satisfied by
// *engine.Service.
type Engine interface {
	GetAvailableSlots(ctx context.Context, req engine.AvailabilityRequest) ([]model.TimeSlot, error)
	DetectConflicts(ctx context.Context, p engine.Proposal) (model.ConflictSet, error)
	SuggestAlternatives(ctx context.Context, original engine.Proposal, serviceIDs []int64, desired int) ([]model.TimeSlot, error)
	StaffLoadBalance(ctx context.Context, locationID int64, date time.Time) (map[int64]float64, error)
}

// Booker is the write side. Satisfied by *commit.Committer.
type Booker interface {
	Commit(ctx context.Context, req commit.Request) (*commit.Result, error)
}

// AppointmentStore covers the lookups the cancel endpoint needs.
type AppointmentStore interface {
	GetAppointment(ctx context.Context, id int64) (*model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id, version int64, status string) error
}

// Publisher broadcasts lifecycle events. Satisfied by *events.Bus.
type Publisher interface {
	Publish(event events.Event)
}

// DailyReporter renders the day report. Satisfied by *report.Reporter.
type DailyReporter interface {
	WriteDaily(ctx context.Context, w io.Writer, locationID int64, day time.Time) error
}

// HTTPServer serves the booking API.
type HTTPServer struct {
	engine       Engine
	booker       Booker
	appointments AppointmentStore
	reporter     DailyReporter
	bus          Publisher
	logger       *zerolog.Logger
	apiKey       string
	limiter      *rate.Limiter
	server       *http.Server
}

// NewHTTPServer assembles the routes. apiKey empty disables auth; rps <= 0
// disables rate limiting.
func NewHTTPServer(addr string, eng Engine, booker Booker, appointments AppointmentStore, reporter DailyReporter, bus Publisher, apiKey string, rps float64, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		engine:       eng,
		booker:       booker,
		appointments: appointments,
		reporter:     reporter,
		bus:          bus,
		logger:       logger,
		apiKey:       apiKey,
	}
	if rps > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/availability", s.guard("availability", s.handleAvailability))
	mux.HandleFunc("/api/v1/conflicts", s.guard("conflicts", s.handleConflicts))
	mux.HandleFunc("/api/v1/alternatives", s.guard("alternatives", s.handleAlternatives))
	mux.HandleFunc("/api/v1/load-balance", s.guard("load_balance", s.handleLoadBalance))
	mux.HandleFunc("/api/v1/appointments", s.guard("appointments", s.handleCreateAppointment))
	mux.HandleFunc("/api/v1/appointments/cancel", s.guard("appointments_cancel", s.handleCancelAppointment))
	mux.HandleFunc("/api/v1/reports/daily", s.guard("reports_daily", s.handleDailyReport))

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// guard applies rate limiting, auth and the request counter before the
// handler runs.
func (s *HTTPServer) guard(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.IncHTTP(endpoint)
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
