package decisioning

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/delaygate/internal/library/quality"
	"github.com/slipstream/delaygate/internal/library/tv"
)

// Evaluator decides a single release.
type Evaluator interface {
	Evaluate(ctx context.Context, r Release) (*Result, error)
}

// Handlers serves dry-run evaluations. Nothing is grabbed or held.
type Handlers struct {
	engine Evaluator
}

func NewHandlers(engine Evaluator) *Handlers {
	return &Handlers{engine: engine}
}

// RegisterRoutes registers the decision routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/evaluate", h.Evaluate)
}

// Evaluate returns the decision the engine would make for a release now.
// POST /api/v1/decisions/evaluate
func (h *Handlers) Evaluate(c echo.Context) error {
	var release Release
	if err := c.Bind(&release); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if release.SeriesID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "seriesId is required")
	}

	result, err := h.engine.Evaluate(c.Request().Context(), release)
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tv.ErrSeriesNotFound),
		errors.Is(err, tv.ErrEpisodeNotFound),
		errors.Is(err, quality.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoEpisodes),
		errors.Is(err, ErrNoQualityProfile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
