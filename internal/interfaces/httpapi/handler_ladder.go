package httpapi

import (
	"net/http"

	"github.com/sidelinehq/clubpromo/external/playhq"
)

type gradeDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

func (h *Handler) ListGrades(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGrades")
	defer span.End()

	email := r.URL.Query().Get("email")
	grades, err := h.ladderService.ListGrades(ctx, email)
	if err != nil {
		h.logger.WarnContext(ctx, "list grades failed", "email", email, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]gradeDTO, 0, len(grades))
	for _, grade := range grades {
		items = append(items, gradeDTO{ID: grade.ID, Name: grade.Name, URL: grade.URL})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLadder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLadder")
	defer span.End()

	query := r.URL.Query()
	email := query.Get("email")
	gradeID := query.Get("gradeId")

	ladders, err := h.ladderService.GetLadder(ctx, email, gradeID)
	if err != nil {
		h.logger.WarnContext(ctx, "get ladder failed", "email", email, "grade_id", gradeID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if ladders == nil {
		ladders = []playhq.Ladder{}
	}

	writeSuccess(ctx, w, http.StatusOK, ladders)
}
