package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

var (
	requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	latency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forum_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	votes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_votes_total",
			Help: "Vote toggles by direction",
		},
		[]string{"direction"},
	)

	postsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_posts_created_total",
		Help: "Posts created",
	})

	streams = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forum_event_streams",
			Help: "Open event streams by kind",
		},
		[]string{"stream"},
	)
)

// Middleware records request counts and latency per matched route.
// Long-lived event streams are left out of the latency histogram.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		if c.Writer.Header().Get("Content-Type") != "text/event-stream" {
			latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		}
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func VoteCast(d models.Direction) {
	votes.WithLabelValues(string(d)).Inc()
}

func PostCreated() {
	postsCreated.Inc()
}

// StreamOpened tracks an open event stream until the returned func runs.
func StreamOpened(stream string) func() {
	g := streams.WithLabelValues(stream)
	g.Inc()
	return g.Dec
}
