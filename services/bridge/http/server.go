// Package http is the device-facing ingestion surface: field sensors
// push readings here and the bridge publishes them into the realtime
// store.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bioshield-iot/bioshield-monitor/internal/classify"
	"github.com/bioshield-iot/bioshield-monitor/internal/realtime"
	"github.com/bioshield-iot/bioshield-monitor/services/bridge/config"
)

var validate = validator.New()

// Server bundles router and dependencies for the ingestion bridge.
type Server struct {
	cfg     config.Config
	store   realtime.Store
	log     *zap.SugaredLogger
	engine  *gin.Engine
	started time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New constructs a bridge server with routes and middleware.
func New(cfg config.Config, store realtime.Store, logger *zap.SugaredLogger) *Server {
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 60
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	server := &Server{
		cfg:      cfg,
		store:    store,
		log:      logger,
		engine:   engine,
		started:  time.Now(),
		limiters: make(map[string]*rate.Limiter),
	}
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
	s.engine.GET("/health", s.handleHealth)

	esp32 := s.engine.Group("/api/esp32")
	esp32.Use(s.apiKeyMiddleware())
	{
		esp32.POST("/data", s.handleIngest)
		esp32.GET("/latest", s.handleLatest)
	}
}

func (s *Server) apiKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("x-api-key") != s.cfg.APIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

// limiter returns the per-station limiter, creating it on first push.
func (s *Server) limiter(stationID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[stationID]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.cfg.RatePerMinute)), 5)
		s.limiters[stationID] = l
	}
	return l
}

// sensorPayload is the push body. Required fields are pointers so a
// legitimate zero survives the presence check.
type sensorPayload struct {
	StationID   string   `json:"stationId" validate:"required"`
	Timestamp   int64    `json:"timestamp"`
	PH          *float64 `json:"ph" validate:"required,gte=0,lte=14"`
	TDS         *float64 `json:"tds" validate:"required,gte=0,lte=10000"`
	Temperature *float64 `json:"temperature" validate:"omitempty,gte=-40,lte=85"`
	Turbidity   *float64 `json:"turbidity" validate:"omitempty,gte=0"`
	Latitude    float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64  `json:"longitude" validate:"gte=-180,lte=180"`
}

// handleIngest accepts one sensor push, classifies it and publishes it
// to the realtime store.
// POST /api/esp32/data
func (s *Server) handleIngest(c *gin.Context) {
	var payload sensorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := validate.Struct(payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.limiter(payload.StationID).Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}

	ts := payload.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	reading := realtime.Reading{
		StationID:   payload.StationID,
		Timestamp:   ts,
		PH:          *payload.PH,
		TDS:         *payload.TDS,
		Temperature: payload.Temperature,
		Turbidity:   payload.Turbidity,
		Latitude:    payload.Latitude,
		Longitude:   payload.Longitude,
		Status:      classify.ClassifyWaterQuality(*payload.PH, *payload.TDS),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := s.store.Publish(ctx, reading); err != nil {
		s.log.Errorw("publish failed", "station", payload.StationID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store reading"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"stationId": payload.StationID,
		"status":    reading.Status,
	})
}

// handleLatest returns the full latest-value snapshot.
// GET /api/esp32/latest
func (s *Server) handleLatest(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sensorData": snap,
		"count":      len(snap),
	})
}

// handleHealth reports bridge liveness.
// GET /health
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stations := 0
	if snap, err := s.store.Snapshot(ctx); err == nil {
		stations = len(snap)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"stations": stations,
	})
}
