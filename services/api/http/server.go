package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bioshield-iot/bioshield-monitor/internal/realtime"
	"github.com/bioshield-iot/bioshield-monitor/internal/station"
	"github.com/bioshield-iot/bioshield-monitor/internal/telemetry"
	"github.com/bioshield-iot/bioshield-monitor/services/api/config"
	"github.com/bioshield-iot/bioshield-monitor/services/api/db"
)

// StationSource serves the resolved station snapshot, typically the
// refresher.
type StationSource interface {
	Stations() []station.Canonical
	Station(id int64) (station.Canonical, bool)
	Alerts() []station.Alert
	LastRefresh() time.Time
}

// ReadingSource serves per-station reading history.
type ReadingSource interface {
	ReadingsByStation(ctx context.Context, q db.ReadingQuery) ([]station.Reading, error)
}

// LiveSource serves the live sensor feed, typically the telemetry
// aggregator.
type LiveSource interface {
	Snapshot() realtime.Snapshot
	Stats() telemetry.NetworkStats
	IsStationOnline(id string) bool
	IsConnected() bool
	LastUpdate() time.Time
	Err() error
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg      config.Config
	stations StationSource
	readings ReadingSource
	live     LiveSource
	engine   *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, stations StationSource, readings ReadingSource, live LiveSource) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())

	if cfg.BearerToken != "" {
		engine.Use(bearerAuthMiddleware(cfg.BearerToken))
	}

	server := &Server{cfg: cfg, stations: stations, readings: readings, live: live, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.registerV1Routes()
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
