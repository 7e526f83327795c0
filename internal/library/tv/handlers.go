package tv

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/delaygate/internal/library/quality"
)

// Handlers provides HTTP handlers for TV operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new TV handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the TV routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListSeries)
	g.POST("", h.CreateSeries)
	g.GET("/:id", h.GetSeries)
	g.PUT("/:id/tags", h.UpdateTags)
	g.GET("/:id/episodes", h.ListEpisodes)
	g.POST("/:id/episodes", h.AddEpisode)
	g.PUT("/:id/episodes/:episodeId/file", h.SetEpisodeFile)
}

type updateTagsRequest struct {
	Tags []int64 `json:"tags"`
}

type episodeFileRequest struct {
	QualityID int  `json:"qualityId"`
	Version   int  `json:"version"`
	Real      int  `json:"real"`
	Clear     bool `json:"clear"`
}

// ListSeries returns all series.
// GET /api/v1/series
func (h *Handlers) ListSeries(c echo.Context) error {
	series, err := h.service.ListSeries(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, series)
}

// GetSeries returns a single series.
// GET /api/v1/series/:id
func (h *Handlers) GetSeries(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	series, err := h.service.GetSeries(c.Request().Context(), id)
	if err != nil {
		return seriesError(err)
	}
	return c.JSON(http.StatusOK, series)
}

// CreateSeries adds a series.
// POST /api/v1/series
func (h *Handlers) CreateSeries(c echo.Context) error {
	var input CreateSeriesInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	series, err := h.service.CreateSeries(c.Request().Context(), input)
	if err != nil {
		return seriesError(err)
	}
	return c.JSON(http.StatusCreated, series)
}

// UpdateTags replaces a series' tags.
// PUT /api/v1/series/:id/tags
func (h *Handlers) UpdateTags(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req updateTagsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	series, err := h.service.UpdateTags(c.Request().Context(), id, req.Tags)
	if err != nil {
		return seriesError(err)
	}
	return c.JSON(http.StatusOK, series)
}

// ListEpisodes returns the episodes of a series.
// GET /api/v1/series/:id/episodes
func (h *Handlers) ListEpisodes(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	episodes, err := h.service.Episodes(c.Request().Context(), id)
	if err != nil {
		return seriesError(err)
	}
	return c.JSON(http.StatusOK, episodes)
}

// AddEpisode adds an episode to a series.
// POST /api/v1/series/:id/episodes
func (h *Handlers) AddEpisode(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var input CreateEpisodeInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	episode, err := h.service.AddEpisode(c.Request().Context(), id, input)
	if err != nil {
		return seriesError(err)
	}
	return c.JSON(http.StatusCreated, episode)
}

// SetEpisodeFile records or clears the quality of an episode's file.
// PUT /api/v1/series/:id/episodes/:episodeId/file
func (h *Handlers) SetEpisodeFile(c echo.Context) error {
	episodeID, err := strconv.ParseInt(c.Param("episodeId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid episode id")
	}

	var req episodeFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var file *quality.Model
	if !req.Clear {
		q, ok := quality.GetQualityByID(req.QualityID)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown quality")
		}
		m := quality.NewModel(q)
		if req.Version > 0 {
			m.Revision.Version = req.Version
		}
		m.Revision.Real = req.Real
		file = &m
	}

	if err := h.service.SetEpisodeFile(c.Request().Context(), episodeID, file); err != nil {
		return seriesError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func seriesError(err error) error {
	switch {
	case errors.Is(err, ErrSeriesNotFound), errors.Is(err, ErrEpisodeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidSeries):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
