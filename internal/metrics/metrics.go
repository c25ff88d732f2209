// Package metrics exposes the service's prometheus instrumentation.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by route and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_http_requests_total",
			Help: "HTTP requests by route and status code.",
		},
		[]string{"route", "status"},
	)

	// FeedbackTasksTotal counts background feedback tasks by outcome.
	FeedbackTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_feedback_tasks_total",
			Help: "Click feedback tasks by outcome.",
		},
		[]string{"outcome"},
	)
)

// GinMiddleware records a request counter sample per completed request.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler returns the /metrics scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
