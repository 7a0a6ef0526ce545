package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/sheikhrachel/go-gol-boards/observability"
)

// NewRouter builds the gin engine serving the boards API, /health and /metrics.
// metrics may be nil, which leaves /metrics unrouted.
func NewRouter(h *Handlers, metrics *observability.Metrics, serviceName string, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	if metrics != nil {
		router.Use(metrics.Middleware())
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	router.Use(ErrorHandler(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	SetupRoutes(router, h)
	return router
}

// SetupRoutes registers the board routes under /api/v1
func SetupRoutes(router *gin.Engine, h *Handlers) {
	v1 := router.Group("/api/v1")
	{
		boards := v1.Group("/boards")
		boards.POST("", h.CreateBoard)
		boards.GET("/:boardId", h.GetBoard)
		boards.DELETE("/:boardId", h.DeleteBoard)
		boards.GET("/:boardId/generations/next", h.NextGeneration)
		boards.GET("/:boardId/generations/final", h.FinalGeneration)
		boards.GET("/:boardId/generations/:count", h.NextGenerations)
	}
}
