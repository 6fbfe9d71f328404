package httpapi

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sidelinehq/clubpromo/internal/platform/logging"
	"github.com/sidelinehq/clubpromo/internal/usecase"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	orgDataService *usecase.OrgDataService
	ladderService  *usecase.LadderService
	imageService   *usecase.ImageService
	db             Pinger
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	orgDataService *usecase.OrgDataService,
	ladderService *usecase.LadderService,
	imageService *usecase.ImageService,
	db Pinger,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Handler{
		orgDataService: orgDataService,
		ladderService:  ladderService,
		imageService:   imageService,
		db:             db,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
