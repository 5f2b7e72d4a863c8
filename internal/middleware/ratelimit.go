package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/osteocare-ai/osteocare/internal/metrics"
)

// RateLimit rejects requests beyond a global token bucket with 429. A
// non-positive limit disables limiting.
func RateLimit(limit float64, burst int, rejected prometheus.Counter) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			if rejected != nil {
				rejected.Inc()
			}
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "Too many requests. Please retry shortly.",
			})
			return
		}
		c.Next()
	}
}

// Metrics records request count and latency per matched route.
func Metrics(collectors *metrics.Collectors) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collectors.RequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
		collectors.Requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
