package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/youth-sports-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route so probing
// scanners cannot grow the path label set.
const unmatchedRoute = "unmatched"

// Metrics observes request latency per route template. Prometheus scrapes
// are not counted.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
