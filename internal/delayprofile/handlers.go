package delayprofile

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for delay profile operations.
type Handlers struct {
	store *Store
}

// NewHandlers creates new delay profile handlers.
func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

// RegisterRoutes registers the delay profile routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/export", h.Export)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PUT("/:id/reorder", h.Reorder)
}

// ReorderRequest moves a profile after another one; a nil AfterID moves it first.
type ReorderRequest struct {
	AfterID *int64 `json:"afterId"`
}

// List returns all delay profiles in resolution order.
// GET /api/v1/delayprofiles
func (h *Handlers) List(c echo.Context) error {
	profiles, err := h.store.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profiles)
}

// Get returns a single delay profile.
// GET /api/v1/delayprofiles/:id
func (h *Handlers) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	profile, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// Create creates a tagged delay profile.
// POST /api/v1/delayprofiles
func (h *Handlers) Create(c echo.Context) error {
	var input Input
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.store.Add(c.Request().Context(), input)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, profile)
}

// Update updates a delay profile.
// PUT /api/v1/delayprofiles/:id
func (h *Handlers) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var input Input
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.store.Update(c.Request().Context(), id, input)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// Delete deletes a delay profile.
// DELETE /api/v1/delayprofiles/:id
func (h *Handlers) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reorder moves a delay profile.
// PUT /api/v1/delayprofiles/:id/reorder
func (h *Handlers) Reorder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req ReorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profiles, err := h.store.Reorder(c.Request().Context(), id, req.AfterID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, profiles)
}

// Export returns the profiles as seed YAML.
// GET /api/v1/delayprofiles/export
func (h *Handlers) Export(c echo.Context) error {
	data, err := h.store.ExportSeed()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, "application/yaml", data)
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidProfile):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrProtectedProfile):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
