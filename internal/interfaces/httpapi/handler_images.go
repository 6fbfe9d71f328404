package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/sidelinehq/clubpromo/internal/usecase"
)

type generateImageRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Template  string `json:"template" validate:"required"`
	FixtureID string `json:"fixtureId" validate:"omitempty"`
	GradeID   string `json:"gradeId" validate:"omitempty"`
}

func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GenerateImage")
	defer span.End()

	var req generateImageRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	png, err := h.imageService.Generate(ctx, usecase.ImageRequest{
		Email:     req.Email,
		Template:  req.Template,
		FixtureID: req.FixtureID,
		GradeID:   req.GradeID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "generate image failed",
			"email", req.Email,
			"template", req.Template,
			"error", err)
		writeError(ctx, w, err)
		return
	}

	writePNG(ctx, w, png)
}
