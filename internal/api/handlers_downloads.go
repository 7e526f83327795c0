package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/delaygate/internal/downloader/types"
)

// getQueue lists the downloads the client reports.
// GET /api/v1/downloads/queue
func (s *Server) getQueue(c echo.Context) error {
	if s.downloadClient == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no download client configured")
	}

	items, err := s.downloadClient.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(downloadErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// getQueueItem returns one download by its client ID.
// GET /api/v1/downloads/queue/:id
func (s *Server) getQueueItem(c echo.Context) error {
	if s.downloadClient == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no download client configured")
	}

	item, err := s.downloadClient.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "download not found")
		}
		return echo.NewHTTPError(downloadErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, item)
}

// testDownloadClient checks the configured connection and reports where
// admitted releases will be downloaded to.
// POST /api/v1/downloads/test
func (s *Server) testDownloadClient(c echo.Context) error {
	if s.downloadClient == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no download client configured")
	}

	ctx := c.Request().Context()
	if err := s.downloadClient.Test(ctx); err != nil {
		return c.JSON(http.StatusOK, map[string]any{
			"success": false,
			"message": err.Error(),
		})
	}

	resp := map[string]any{
		"success": true,
		"message": "Connection successful",
	}
	dir, err := s.downloadClient.DownloadDir(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Download client did not report its download directory")
	} else {
		resp["downloadDir"] = dir
	}
	return c.JSON(http.StatusOK, resp)
}

func downloadErrorStatus(err error) int {
	if errors.Is(err, types.ErrAuthFailed) || errors.Is(err, types.ErrNotConnected) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
