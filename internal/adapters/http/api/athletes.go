package api

import (
	"context"
	"net/http"

	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/types"
)

// AthleteDependencies defines the read side of the API.
type AthleteDependencies interface {
	Profile(ctx context.Context, athleteID string) (*model.Profile, error)
	Timeline(ctx context.Context, athleteID, discipline string) (types.Timeline, error)
	MergedByEvent(ctx context.Context, athleteID, discipline string) (types.Timeline, error)
	Records(ctx context.Context, athleteID string) ([]types.RecordView, error)
}

// AthletesHandler serves profiles, timelines and records.
type AthletesHandler struct {
	deps AthleteDependencies
}

// NewAthletesHandler creates a new athletes handler.
func NewAthletesHandler(deps AthleteDependencies) *AthletesHandler {
	return &AthletesHandler{deps: deps}
}

// HandleGetProfile handles GET /athletes/{id}.
func (h *AthletesHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	p, err := h.deps.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGetTimeline handles GET /athletes/{id}/timeline?discipline=.
func (h *AthletesHandler) HandleGetTimeline(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_timeline"
	tl, err := h.deps.Timeline(r.Context(), r.PathValue("id"), r.URL.Query().Get("discipline"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// HandleGetEvents handles GET /athletes/{id}/events?discipline=.
func (h *AthletesHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_events"
	tl, err := h.deps.MergedByEvent(r.Context(), r.PathValue("id"), r.URL.Query().Get("discipline"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// HandleGetRecords handles GET /athletes/{id}/records.
func (h *AthletesHandler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_records"
	views, err := h.deps.Records(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
