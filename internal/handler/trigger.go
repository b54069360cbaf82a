package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/service"
)

// TriggerHandler serves the craving log.
type TriggerHandler struct {
	triggers *service.TriggerService
	logger   *slog.Logger
}

func NewTriggerHandler(triggers *service.TriggerService, logger *slog.Logger) *TriggerHandler {
	return &TriggerHandler{triggers: triggers, logger: logger}
}

// HandleList returns every logged trigger.
//
// HTTP: GET /api/triggers
func (h *TriggerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	recs, err := h.triggers.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type logTriggerRequest struct {
	Emotion   model.Emotion   `json:"emotion"`
	Situation model.Situation `json:"situation"`
	Intensity int             `json:"intensity"`
}

// HandleLog records a craving happening now. The server stamps date and time.
//
// HTTP: POST /api/triggers
// Body: {"emotion": "stressed", "situation": "work", "intensity": 7}
func (h *TriggerHandler) HandleLog(w http.ResponseWriter, r *http.Request) {
	var req logTriggerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.triggers.Log(r.Context(), currentUser(r), req.Emotion, req.Situation, req.Intensity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleSummary returns today's count, totals and the last seven days.
//
// HTTP: GET /api/triggers/summary
func (h *TriggerHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.triggers.Summary(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
