package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rag-assistant/internal/metrics"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), metrics.Middleware())

	r.GET("/", h.Root)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/ingest", h.Ingest)
		api.POST("/chat", h.Chat)
		api.GET("/sessions/:id/history", h.History)
		api.POST("/book-interview", h.BookInterview)
	}
	return r
}
