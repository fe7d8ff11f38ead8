package http

import "github.com/gin-gonic/gin"

// registerV1Routes sets up the v1 API structure.
// Groups: /api/v1/stations, /api/v1/alerts, /api/v1/realtime
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware())

	stations := v1.Group("/stations")
	{
		stations.GET("", s.handleV1ListStations)
		stations.GET("/:id", s.handleV1GetStation)
		stations.GET("/:id/readings", s.handleV1StationReadings)
	}

	v1.GET("/alerts", s.handleV1ListAlerts)

	realtime := v1.Group("/realtime")
	{
		realtime.GET("/now", s.handleV1RealtimeNow)
		realtime.GET("/stats", s.handleV1RealtimeStats)
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}
