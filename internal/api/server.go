// Package api wires the services into the HTTP server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	apimw "github.com/slipstream/delaygate/internal/api/middleware"
	"github.com/slipstream/delaygate/internal/config"
	"github.com/slipstream/delaygate/internal/database"
	"github.com/slipstream/delaygate/internal/decisioning"
	"github.com/slipstream/delaygate/internal/delayprofile"
	"github.com/slipstream/delaygate/internal/downloader/types"
	"github.com/slipstream/delaygate/internal/downloader/utorrent"
	"github.com/slipstream/delaygate/internal/library/quality"
	"github.com/slipstream/delaygate/internal/library/tv"
	"github.com/slipstream/delaygate/internal/logger"
	"github.com/slipstream/delaygate/internal/pending"
	"github.com/slipstream/delaygate/internal/rsssync"
	"github.com/slipstream/delaygate/internal/scheduler"
	"github.com/slipstream/delaygate/internal/scheduler/tasks"
	"github.com/slipstream/delaygate/internal/tags"
	"github.com/slipstream/delaygate/internal/websocket"
)

// Server handles HTTP requests for the delaygate API.
type Server struct {
	echo      *echo.Echo
	db        *database.DB
	hub       *websocket.Hub
	scheduler *scheduler.Scheduler
	recent    *logger.RecentLog
	logger    zerolog.Logger
	cfg       *config.Config
	startTime time.Time

	qualityService *quality.Service
	tvService      *tv.Service
	tagsService    *tags.Service
	delayProfiles  *delayprofile.Store
	pendingStore   *pending.Store
	engine         *decisioning.Engine
	grabLock       *decisioning.GrabLock
	processor      *rsssync.Service
	downloadClient types.Client
}

// NewServer creates the services and registers every route. hub, sched and
// recent may be nil; the routes that need them are then left out.
func NewServer(
	db *database.DB,
	hub *websocket.Hub,
	sched *scheduler.Scheduler,
	recent *logger.RecentLog,
	cfg *config.Config,
	logger zerolog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		db:        db,
		hub:       hub,
		scheduler: sched,
		recent:    recent,
		logger:    logger,
		cfg:       cfg,
		startTime: time.Now(),
	}

	conn := db.Conn()
	s.qualityService = quality.NewService(conn, logger)
	s.tvService = tv.NewService(conn, logger)
	s.tagsService = tags.NewService(conn, logger)
	s.delayProfiles = delayprofile.NewStore(conn, logger)
	s.pendingStore = pending.NewStore(conn, logger)

	s.engine = decisioning.NewEngine(s.tvService, s.qualityService, s.delayProfiles, s.pendingStore, logger)
	s.grabLock = decisioning.NewGrabLock()

	var grabbers []rsssync.Grabber
	if cfg.Downloader.Enabled {
		client := utorrent.NewFromConfig(&types.ClientConfig{
			Host:     cfg.Downloader.Host,
			Port:     cfg.Downloader.Port,
			Username: cfg.Downloader.Username,
			Password: cfg.Downloader.Password,
			UseSSL:   cfg.Downloader.UseSSL,
			URLBase:  cfg.Downloader.URLBase,
			Category: cfg.Downloader.Category,
		})
		s.downloadClient = client
		grabbers = append(grabbers, client)
	}

	// A nil *websocket.Hub must not become a non-nil interface.
	var broadcaster rsssync.Broadcaster
	if hub != nil {
		broadcaster = hub
	}
	s.processor = rsssync.NewService(
		s.engine,
		s.pendingStore,
		s.grabLock,
		broadcaster,
		logger,
		cfg.Pending.Concurrency,
		grabbers...,
	)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())
	s.echo.Use(middleware.BodyLimit("2M"))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket" ||
				c.Request().URL.Path == s.cfg.Metrics.Path
		},
	}))
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	err := s.echo.Start(address)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Processor returns the release processing service.
func (s *Server) Processor() *rsssync.Service {
	return s.processor
}

// EnsureDefaults creates the default quality profiles and the default delay
// profile, then applies the configured seed file to a database that holds
// nothing else.
func (s *Server) EnsureDefaults(ctx context.Context) error {
	if err := s.qualityService.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("quality profiles: %w", err)
	}
	if err := s.delayProfiles.EnsureDefault(ctx); err != nil {
		return fmt.Errorf("delay profiles: %w", err)
	}

	// The seed only populates a fresh database; later edits through the
	// API are not overwritten on restart.
	if s.cfg.Seed.Path != "" && s.delayProfiles.Snapshot().Len() == 1 {
		seed, err := delayprofile.LoadSeedFile(s.cfg.Seed.Path)
		if err != nil {
			return err
		}
		if err := s.delayProfiles.ApplySeed(ctx, seed); err != nil {
			return fmt.Errorf("apply seed %s: %w", s.cfg.Seed.Path, err)
		}
	}

	return nil
}

// RegisterTasks registers the scheduled tasks that need the server's
// services.
func (s *Server) RegisterTasks() error {
	if s.scheduler == nil {
		return nil
	}
	return tasks.RegisterPendingReleaseTask(s.scheduler, s.processor, &s.cfg.Pending)
}

func (s *Server) metricsHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
