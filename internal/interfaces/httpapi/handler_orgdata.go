package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sidelinehq/clubpromo/internal/domain/organization"
	"github.com/sidelinehq/clubpromo/internal/usecase"
)

type orgDataDTO struct {
	Source      string                `json:"source"`
	IsStale     bool                  `json:"isStale"`
	LastUpdated *time.Time            `json:"lastUpdated"`
	Branding    organization.Branding `json:"branding"`
	Aggregate   json.RawMessage       `json:"aggregate"`
}

func orgDataToDTO(data usecase.OrgData) orgDataDTO {
	return orgDataDTO{
		Source:      data.Source,
		IsStale:     data.Stale,
		LastUpdated: data.LastUpdated,
		Branding:    data.Branding,
		Aggregate:   json.RawMessage(data.Payload),
	}
}

func (h *Handler) GetOrgData(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOrgData")
	defer span.End()

	email := r.URL.Query().Get("email")
	data, err := h.orgDataService.GetOrgData(ctx, email)
	if err != nil {
		h.logger.WarnContext(ctx, "get org data failed", "email", email, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, orgDataToDTO(data))
}

func (h *Handler) RefreshOrgData(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshOrgData")
	defer span.End()

	email := r.URL.Query().Get("email")
	data, err := h.orgDataService.Refresh(ctx, email)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh org data failed", "email", email, "error", err)
		writeError(ctx, w, err)
		return
	}

	if err := h.ladderService.Invalidate(ctx, email); err != nil {
		h.logger.WarnContext(ctx, "ladder cache invalidation failed", "email", email, "error", err)
	}

	writeSuccess(ctx, w, http.StatusOK, orgDataToDTO(data))
}
