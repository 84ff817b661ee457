package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/palmares/internal/domain/types"
)

// maxSubmissionBytes bounds a submission body; archive pages are HTML.
const maxSubmissionBytes = 32 << 20

// SubmitDependencies defines the interface for season submissions.
type SubmitDependencies interface {
	Submit(ctx context.Context, athleteID string, sub types.Submission) (types.SubmitResult, error)
}

// SubmissionsHandler handles season submissions.
type SubmissionsHandler struct {
	deps SubmitDependencies
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps SubmitDependencies) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps}
}

// HandlePostPages handles POST /athletes/{id}/pages requests.
func (h *SubmissionsHandler) HandlePostPages(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_pages"
	var sub types.Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Submit(r.Context(), r.PathValue("id"), sub)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, SubmissionID: res.SubmissionID})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", SubmissionID: res.SubmissionID})
}
