package pending

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/delaygate/internal/library/tv"
)

// Handlers provides HTTP handlers for pending releases.
type Handlers struct {
	store *Store
}

// NewHandlers creates new pending release handlers.
func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

// RegisterRoutes registers the pending release routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.DELETE("/:id", h.Delete)
}

// List returns pending releases, optionally filtered by ?seriesId=.
// GET /api/v1/pending
func (h *Handlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := c.QueryParam("seriesId"); raw != "" {
		seriesID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid seriesId")
		}
		releases, err := h.store.GetPendingForSeries(ctx, seriesID)
		if err != nil {
			return pendingError(err)
		}
		return c.JSON(http.StatusOK, releases)
	}

	releases, err := h.store.List(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, releases)
}

// Delete drops a pending release without grabbing it.
// DELETE /api/v1/pending/:id
func (h *Handlers) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.store.Remove(c.Request().Context(), id); err != nil {
		return pendingError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func pendingError(err error) error {
	switch {
	case errors.Is(err, ErrReleaseNotFound), errors.Is(err, tv.ErrSeriesNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidRelease):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
