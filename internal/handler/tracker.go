package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/service"
)

// TrackerHandler serves daily counts, the target, settings and the dashboard.
type TrackerHandler struct {
	tracker *service.TrackerService
	logger  *slog.Logger
}

func NewTrackerHandler(tracker *service.TrackerService, logger *slog.Logger) *TrackerHandler {
	return &TrackerHandler{tracker: tracker, logger: logger}
}

// HandleListSmoking returns every daily count.
//
// HTTP: GET /api/smoking
func (h *TrackerHandler) HandleListSmoking(w http.ResponseWriter, r *http.Request) {
	recs, err := h.tracker.SmokingRecords(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type countRequest struct {
	Cigarettes int `json:"cigarettes"`
}

// HandleRecordDay sets the count of any day. Zero removes the day.
//
// HTTP: PUT /api/smoking/{date}
// Body: {"cigarettes": 5}
func (h *TrackerHandler) HandleRecordDay(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	var req countRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	recs, err := h.tracker.RecordDay(r.Context(), currentUser(r), date, req.Cigarettes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleToday returns today's count, the target and the progress level.
//
// HTTP: GET /api/today
func (h *TrackerHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	status, err := h.tracker.Today(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleSetToday sets today's count.
//
// HTTP: PUT /api/today
// Body: {"cigarettes": 3}
func (h *TrackerHandler) HandleSetToday(w http.ResponseWriter, r *http.Request) {
	var req countRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := h.tracker.SetToday(r.Context(), currentUser(r), req.Cigarettes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

// HandleAdjustToday is the +/- button: it adds delta to today's count.
//
// HTTP: PATCH /api/today
// Body: {"delta": 1}
func (h *TrackerHandler) HandleAdjustToday(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := h.tracker.AdjustToday(r.Context(), currentUser(r), req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type targetBody struct {
	DailyTarget int `json:"dailyTarget"`
}

// HandleGetTarget returns the daily target.
//
// HTTP: GET /api/target
func (h *TrackerHandler) HandleGetTarget(w http.ResponseWriter, r *http.Request) {
	target, err := h.tracker.DailyTarget(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, targetBody{DailyTarget: target})
}

// HandleSetTarget changes the daily target.
//
// HTTP: PUT /api/target
// Body: {"dailyTarget": 10}
func (h *TrackerHandler) HandleSetTarget(w http.ResponseWriter, r *http.Request) {
	var req targetBody
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.tracker.SetDailyTarget(r.Context(), currentUser(r), req.DailyTarget); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// HandleGetSettings returns the cigarette price and tracking start date.
//
// HTTP: GET /api/settings
func (h *TrackerHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.tracker.Settings(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// HandleUpdateSettings replaces the settings. A missing startDate becomes now.
//
// HTTP: PUT /api/settings
// Body: {"cigarettePrice": 0.3, "startDate": "2024-01-01T00:00:00Z"}
func (h *TrackerHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req model.UserSettings
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.tracker.UpdateSettings(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// HandleDashboard returns the derived statistics.
//
// HTTP: GET /api/dashboard
func (h *TrackerHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.tracker.Dashboard(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}
