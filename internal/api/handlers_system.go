package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/delaygate/internal/config"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Version            string    `json:"version"`
	StartTime          time.Time `json:"startTime"`
	SchemaVersion      int64     `json:"schemaVersion"`
	DelayProfiles      int       `json:"delayProfiles"`
	PendingReleases    int       `json:"pendingReleases"`
	DownloaderEnabled  bool      `json:"downloaderEnabled"`
	WebSocketClients   int       `json:"webSocketClients"`
	PendingTaskEnabled bool      `json:"pendingTaskEnabled"`
}

func (s *Server) getStatus(c echo.Context) error {
	ctx := c.Request().Context()

	resp := statusResponse{
		Version:            config.Version,
		StartTime:          s.startTime,
		DelayProfiles:      s.delayProfiles.Snapshot().Len(),
		DownloaderEnabled:  s.downloadClient != nil,
		PendingTaskEnabled: s.cfg.Pending.Enabled,
	}

	if v, err := s.db.Version(); err == nil {
		resp.SchemaVersion = v
	} else {
		s.logger.Warn().Err(err).Msg("Failed to read schema version")
	}
	if held, err := s.pendingStore.List(ctx); err == nil {
		resp.PendingReleases = len(held)
	}
	if s.hub != nil {
		resp.WebSocketClients = s.hub.ClientCount()
	}

	return c.JSON(http.StatusOK, resp)
}
