package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var httpRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ringlink",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Requests served by the status listener.",
	},
	[]string{"app", "route", "code"},
)

// observeRequests counts every request on the status listener and logs it.
// Scrapes of /metrics log at trace so a polling collector stays quiet.
func observeRequests(app string, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(app, route, strconv.Itoa(status)).Inc()

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case route == "/metrics":
			event = logger.Trace()
		default:
			event = logger.Debug()
		}
		event.
			Str("app", app).
			Str("route", route).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("status listener request")
	}
}
