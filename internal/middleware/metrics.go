package middleware

import (
	"strconv"
	"time"

	"github.com/medref/revision-service/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request latency per matched route
// Metrics 按路由记录请求耗时
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
