package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/service"
)

type FeedbackHandler struct {
	feedback *service.FeedbackService
	logger   *slog.Logger
}

func NewFeedbackHandler(feedback *service.FeedbackService, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, logger: logger}
}

// HandleList returns the user's submitted feedback.
//
// HTTP: GET /api/feedback
func (h *FeedbackHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.feedback.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleSubmit stores one feedback message. Any timestamp in the body is
// ignored.
//
// HTTP: POST /api/feedback
// Body: {"feedbackType": "suggestion", "message": "...", "rating": 5}
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req model.FeedbackEntry
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.feedback.Submit(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
