package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"slotnik/internal/commit"
	"slotnik/internal/engine"
	"slotnik/internal/events"
	"slotnik/internal/model"
)

const dateLayout = "2006-01-02"

type availabilityRequest struct {
	LocationID int64   `json:"location_id"`
	ServiceIDs []int64 `json:"service_ids"`
	Date       string  `json:"date"` // YYYY-MM-DD
	StaffID    int64   `json:"staff_id,omitempty"`
	CustomerID int64   `json:"customer_id,omitempty"`
	Timezone   string  `json:"timezone,omitempty"`
}

// handleAvailability returns every bookable slot for a location, date and
// service set.
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LocationID == 0 || len(req.ServiceIDs) == 0 || req.Date == "" {
		writeError(w, http.StatusBadRequest, "location_id, service_ids and date are required")
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	slots, err := s.engine.GetAvailableSlots(r.Context(), engine.AvailabilityRequest{
		LocationID: req.LocationID,
		ServiceIDs: req.ServiceIDs,
		Date:       date,
		StaffID:    req.StaffID,
		CustomerID: req.CustomerID,
		Timezone:   req.Timezone,
	})
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  req.Date,
		"count": len(slots),
		"slots": slots,
	})
}

// handleConflicts runs the detector against an explicit proposal without
// persisting anything.
func (s *HTTPServer) handleConflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var p engine.Proposal
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.LocationID == 0 || p.StaffID == 0 || p.Start.IsZero() || p.End.IsZero() {
		writeError(w, http.StatusBadRequest, "location_id, staff_id, start and end are required")
		return
	}
	if !p.End.After(p.Start) {
		writeError(w, http.StatusBadRequest, "end must be after start")
		return
	}

	conflicts, err := s.engine.DetectConflicts(r.Context(), p)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"available": conflicts.Empty(),
		"conflicts": conflicts,
	})
}

type alternativesRequest struct {
	Proposal   engine.Proposal `json:"proposal"`
	ServiceIDs []int64         `json:"service_ids"`
	Count      int             `json:"count,omitempty"`
}

// handleAlternatives searches forward from a rejected proposal for nearby
// free slots.
func (s *HTTPServer) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req alternativesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Proposal.LocationID == 0 || len(req.ServiceIDs) == 0 || req.Proposal.Start.IsZero() {
		writeError(w, http.StatusBadRequest, "proposal and service_ids are required")
		return
	}

	slots, err := s.engine.SuggestAlternatives(r.Context(), req.Proposal, req.ServiceIDs, req.Count)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(slots),
		"alternatives": slots,
	})
}

// handleLoadBalance reports per-staff utilization for a location and date.
func (s *HTTPServer) handleLoadBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	locationID, err := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	if err != nil || locationID == 0 {
		writeError(w, http.StatusBadRequest, "location_id is required")
		return
	}
	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	scores, err := s.engine.StaffLoadBalance(r.Context(), locationID, date)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"location_id": locationID,
		"date":        date.Format(dateLayout),
		"scores":      scores,
	})
}

type createAppointmentRequest struct {
	Proposal   engine.Proposal `json:"proposal"`
	CustomerID int64           `json:"customer_id"`
	ServiceIDs []int64         `json:"service_ids"`
	Comment    string          `json:"comment,omitempty"`
}

// handleCreateAppointment runs the full commit protocol. A rejected proposal
// is a 409 with the conflict set, not a server error.
func (s *HTTPServer) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Proposal.StaffID == 0 || req.CustomerID == 0 || len(req.ServiceIDs) == 0 {
		writeError(w, http.StatusBadRequest, "proposal, customer_id and service_ids are required")
		return
	}
	if !req.Proposal.End.After(req.Proposal.Start) {
		writeError(w, http.StatusBadRequest, "end must be after start")
		return
	}

	result, err := s.booker.Commit(r.Context(), commit.Request{
		Proposal:   req.Proposal,
		CustomerID: req.CustomerID,
		ServiceIDs: req.ServiceIDs,
		Comment:    req.Comment,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("commit failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusCreated
	if result.State == commit.StateRejected {
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]any{
		"attempt_id":  result.AttemptID,
		"state":       result.State,
		"attempts":    result.Attempts,
		"conflicts":   result.Conflicts,
		"appointment": result.Appointment,
	})
}

type cancelAppointmentRequest struct {
	ID      int64 `json:"id"`
	Version int64 `json:"version"`
}

// handleCancelAppointment frees the interval. The version guard rejects
// stale cancels with 409.
func (s *HTTPServer) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req cancelAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	appt, err := s.appointments.GetAppointment(r.Context(), req.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("appointment_id", req.ID).Msg("failed to load appointment")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if appt == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if appt.Status == model.StatusCanceled {
		writeError(w, http.StatusConflict, "appointment already canceled")
		return
	}

	if err := s.appointments.UpdateAppointmentStatus(r.Context(), req.ID, req.Version, model.StatusCanceled); err != nil {
		writeError(w, http.StatusConflict, fmt.Sprintf("cancel failed: %v", err))
		return
	}

	// Re-read so the event carries the stored row, not a locally patched one.
	updated, err := s.appointments.GetAppointment(r.Context(), req.ID)
	if err != nil || updated == nil {
		s.logger.Error().Err(err).Int64("appointment_id", req.ID).Msg("failed to reload canceled appointment")
		updated = appt
		updated.Status = model.StatusCanceled
	}
	if s.bus != nil {
		s.bus.Publish(events.NewEvent(events.BookingCancelled, updated))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     updated.ID,
		"status": updated.Status,
	})
}

// handleDailyReport streams the day report as an xlsx workbook.
func (s *HTTPServer) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	locationID, err := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	if err != nil || locationID == 0 {
		writeError(w, http.StatusBadRequest, "location_id is required")
		return
	}
	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	// Build into a buffer first so a failed build returns a 500 instead of
	// a 200 with workbook headers and an empty body.
	var buf bytes.Buffer
	if err := s.reporter.WriteDaily(r.Context(), &buf, locationID, date); err != nil {
		s.logger.Error().Err(err).Msg("failed to build daily report")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"report-%s.xlsx\"", date.Format(dateLayout)))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error().Err(err).Msg("failed to stream daily report")
	}
}

// respondEngineError maps the engine's sentinel errors to client statuses.
func (s *HTTPServer) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrLocationNotFound):
		writeError(w, http.StatusNotFound, "location not found")
	case errors.Is(err, engine.ErrLocationInactive):
		writeError(w, http.StatusUnprocessableEntity, "location is not active")
	case errors.Is(err, engine.ErrUnknownService):
		writeError(w, http.StatusUnprocessableEntity, "unknown or inactive service")
	default:
		s.logger.Error().Err(err).Msg("engine request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
