package rsssync

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/delaygate/internal/decisioning"
)

// Handlers provides HTTP handlers for release processing.
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the release processing routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Process)
	g.POST("/pending/trigger", h.TriggerPending)
	g.GET("/status", h.GetStatus)
}

// Process evaluates a batch of discovered releases.
// POST /api/v1/releases
func (h *Handlers) Process(c echo.Context) error {
	var releases []decisioning.Release
	if err := c.Bind(&releases); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(releases) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one release is required")
	}

	status, err := h.service.Process(c.Request().Context(), releases)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, status)
}

// TriggerPending starts a re-evaluation of held releases.
// POST /api/v1/releases/pending/trigger
func (h *Handlers) TriggerPending(c echo.Context) error {
	if h.service.IsRunning() {
		return echo.NewHTTPError(http.StatusConflict, "pending re-evaluation already running")
	}

	go h.service.runPending(context.Background())

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "pending re-evaluation started",
	})
}

// GetStatus returns the status of the last run.
// GET /api/v1/releases/status
func (h *Handlers) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.LastStatus())
}
