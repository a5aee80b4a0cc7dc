package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

// SelectionUpdate is the body accepted by PUT /api/selection
type SelectionUpdate struct {
	Batch       *models.Batch `json:"batch"`
	FacultyName string        `json:"faculty_name"`
}

func (h *Handler) HandleSelection(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	store := h.shell.Store()

	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, store.Selection(id))
	case http.MethodPut:
		var update SelectionUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if update.Batch != nil {
			if err := store.SetSelectedBatch(id, *update.Batch); err != nil {
				h.writeError(w, "Invalid batch: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		if update.FacultyName != "" {
			store.SetFacultyName(id, update.FacultyName)
		}
		h.metrics.SetSessions(store.Len())
		h.writeJSON(w, store.Selection(id))
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleAnalytics returns the analytics committed for the session's batch,
// fetching them first if needed
func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	a, err := h.current(r.Context(), id)
	if err != nil {
		h.writeError(w, errorMessage(err), errorStatus(err))
		return
	}
	h.writeJSON(w, a)
}
