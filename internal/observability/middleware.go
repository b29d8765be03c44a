package observability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	metricsPath    = "/metrics"
	unmatchedRoute = "unmatched"
)

// AccessMiddleware logs and counts every admin request. Scrapes of
// /metrics log at trace level so a Prometheus poller stays quiet.
func AccessMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		label := route
		if route == "" {
			label = unmatchedRoute
			route = c.Request.URL.Path
		}
		RecordHTTPRequest(c.Request.Method, label, status, elapsed)

		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = logger.Error()
		case status >= http.StatusBadRequest:
			ev = logger.Warn()
		case label == metricsPath:
			ev = logger.Trace()
		default:
			ev = logger.Debug()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Str("remote", c.ClientIP()).
			Msg("admin.request")
	}
}
