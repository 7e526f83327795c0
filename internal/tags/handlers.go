package tags

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for tags.
type Handlers struct {
	service *Service
}

// NewHandlers creates new tag handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the tag routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
}

type createRequest struct {
	Label string `json:"label"`
}

// List returns all tags.
// GET /api/v1/tags
func (h *Handlers) List(c echo.Context) error {
	tags, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tags)
}

// Get returns a tag.
// GET /api/v1/tags/:id
func (h *Handlers) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	tag, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return tagError(err)
	}
	return c.JSON(http.StatusOK, tag)
}

// Create creates a tag.
// POST /api/v1/tags
func (h *Handlers) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tag, err := h.service.Create(c.Request().Context(), req.Label)
	if err != nil {
		return tagError(err)
	}
	return c.JSON(http.StatusCreated, tag)
}

// Delete deletes an unused tag.
// DELETE /api/v1/tags/:id
func (h *Handlers) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return tagError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func tagError(err error) error {
	switch {
	case errors.Is(err, ErrTagNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTag):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTagInUse):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
