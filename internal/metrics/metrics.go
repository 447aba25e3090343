package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_documents_ingested_total",
			Help: "Documents committed to the metadata store",
		},
		[]string{"strategy"},
	)

	ChunksIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_chunks_ingested_total",
			Help: "Chunks embedded and upserted into the vector index",
		},
		[]string{"strategy"},
	)

	// outcome is matched, related or none
	Answers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_answers_total",
			Help: "Answers composed, by outcome",
		},
		[]string{"outcome"},
	)

	HistoryAppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rag_history_append_failures_total",
			Help: "Session history writes that failed after an answer was composed",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rag_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Middleware records request latency by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
