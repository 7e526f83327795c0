package api

import (
	"github.com/slipstream/delaygate/internal/decisioning"
	"github.com/slipstream/delaygate/internal/delayprofile"
	"github.com/slipstream/delaygate/internal/library/quality"
	"github.com/slipstream/delaygate/internal/library/tv"
	"github.com/slipstream/delaygate/internal/pending"
	"github.com/slipstream/delaygate/internal/rsssync"
	"github.com/slipstream/delaygate/internal/scheduler"
	"github.com/slipstream/delaygate/internal/tags"
)

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	if s.cfg.Metrics.Enabled {
		s.echo.GET(s.cfg.Metrics.Path, s.metricsHandler())
	}

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)
	if s.hub != nil {
		api.GET("/ws", s.hub.HandleWebSocket)
	}

	delayprofile.NewHandlers(s.delayProfiles).RegisterRoutes(api.Group("/delayprofiles"))
	tags.NewHandlers(s.tagsService).RegisterRoutes(api.Group("/tags"))
	quality.NewHandlers(s.qualityService).RegisterRoutes(api.Group("/qualityprofiles"))
	tv.NewHandlers(s.tvService).RegisterRoutes(api.Group("/series"))
	pending.NewHandlers(s.pendingStore).RegisterRoutes(api.Group("/pending"))

	decisioning.NewHandlers(s.engine).RegisterRoutes(api.Group("/decisions"))
	rsssync.NewHandlers(s.processor).RegisterRoutes(api.Group("/releases"))

	downloads := api.Group("/downloads")
	downloads.GET("/queue", s.getQueue)
	downloads.GET("/queue/:id", s.getQueueItem)
	downloads.POST("/test", s.testDownloadClient)

	system := api.Group("/system")
	if s.scheduler != nil {
		scheduler.NewHandlers(s.scheduler).RegisterRoutes(system.Group("/tasks"))
	}
	if s.recent != nil {
		system.GET("/logs", s.recent.Handler)
	}
}
