package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request counts and latency per route. The route
// template (not the raw path) keys the series, so path parameters do not
// explode cardinality.
func (c *Collectors) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.HTTPRequests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.HTTPDuration.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
