package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/fresh-start/internal/service"
)

// DataHandler serves the activity log, backups, data wiping and the
// administrator views.
type DataHandler struct {
	exports *service.ExportService
	logger  *slog.Logger
}

func NewDataHandler(exports *service.ExportService, logger *slog.Logger) *DataHandler {
	return &DataHandler{exports: exports, logger: logger}
}

// HandleActivity returns the audit trail, oldest first.
//
// HTTP: GET /api/activity
func (h *DataHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.exports.ActivityLog(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleSummary counts what an export would contain.
//
// HTTP: GET /api/data/summary
func (h *DataHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.exports.Summary(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleExport downloads the user's backup file.
//
// HTTP: GET /api/data/export
//
// Content-Disposition: attachment makes browsers save the body to a file
// instead of rendering it.
func (h *DataHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	doc, filename, err := h.exports.ExportUser(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttachment(w, filename, doc)
}

// HandleClear deletes every record of the current user. The profile stays.
//
// HTTP: DELETE /api/data
func (h *DataHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	n, err := h.exports.ClearUser(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deletedKeys": n})
}

// HandleAdminOverview lists every profile with its record counts, and the
// totals across all of them.
//
// HTTP: GET /api/admin/users
// Auth: administrator
func (h *DataHandler) HandleAdminOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.exports.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// HandleAdminExport downloads one file holding every profile's data.
//
// HTTP: GET /api/admin/export
// Auth: administrator
func (h *DataHandler) HandleAdminExport(w http.ResponseWriter, r *http.Request) {
	doc, filename, err := h.exports.ExportAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttachment(w, filename, doc)
}

// HandleAdminClear wipes every user's data.
//
// HTTP: DELETE /api/admin/data
// Auth: administrator
func (h *DataHandler) HandleAdminClear(w http.ResponseWriter, r *http.Request) {
	if err := h.exports.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "all data cleared"})
}

// writeAttachment sends v as an indented JSON file download.
func writeAttachment(w http.ResponseWriter, filename string, v any) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
