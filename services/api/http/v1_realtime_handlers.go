package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleV1RealtimeNow returns the live sensor snapshot and feed health.
// GET /api/v1/realtime/now
func (s *Server) handleV1RealtimeNow(c *gin.Context) {
	snapshot := s.live.Snapshot()

	var feedErr string
	if err := s.live.Err(); err != nil {
		feedErr = err.Error()
	}

	var lastUpdate string
	if t := s.live.LastUpdate(); !t.IsZero() {
		lastUpdate = t.UTC().Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, gin.H{
		"sensorData":  snapshot,
		"isConnected": s.live.IsConnected(),
		"lastUpdate":  lastUpdate,
		"error":       feedErr,
	})
}

// handleV1RealtimeStats returns network-wide aggregates over the live
// snapshot.
// GET /api/v1/realtime/stats
func (s *Server) handleV1RealtimeStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":        s.live.Stats(),
		"isConnected":  s.live.IsConnected(),
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}
