package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bioshield-iot/bioshield-monitor/services/api/db"
)

// handleV1ListStations returns the full resolved station snapshot.
// GET /api/v1/stations
func (s *Server) handleV1ListStations(c *gin.Context) {
	stations := s.stations.Stations()
	c.JSON(http.StatusOK, gin.H{
		"stations":     stations,
		"count":        len(stations),
		"last_refresh": s.stations.LastRefresh().UTC().Format(time.RFC3339),
	})
}

// handleV1GetStation returns one resolved station.
// GET /api/v1/stations/:id
func (s *Server) handleV1GetStation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid station id"})
		return
	}

	st, ok := s.stations.Station(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"station": st})
}

// handleV1StationReadings returns reading history for one station.
// GET /api/v1/stations/:id/readings
func (s *Server) handleV1StationReadings(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid station id"})
		return
	}

	limit := s.cfg.DefaultLimit
	if limitStr := c.Query("last_n"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_n"})
			return
		}
		limit = parsed
	}

	var since *time.Time
	var until *time.Time

	if daysStr := c.Query("last_n_days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_n_days"})
			return
		}
		t := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
		since = &t
	}

	if startStr := c.Query("start"); startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start timestamp"})
			return
		}
		tt := t.UTC()
		since = &tt
	}

	if endStr := c.Query("end"); endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end timestamp"})
			return
		}
		tt := t.UTC()
		until = &tt
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	readings, err := s.readings.ReadingsByStation(ctx, db.ReadingQuery{
		StationID: id,
		Limit:     limit,
		Since:     since,
		Until:     until,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"station_id": id,
		"count":      len(readings),
		"readings":   readings,
	})
}

// handleV1ListAlerts returns threshold alerts from the current snapshot.
// GET /api/v1/alerts
func (s *Server) handleV1ListAlerts(c *gin.Context) {
	alerts := s.stations.Alerts()
	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}
