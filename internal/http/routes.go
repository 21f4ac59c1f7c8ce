package http

import (
	"bowling_engine/internal/http/handlers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes вешает API партий, метрики и проверку живости
func RegisterRoutes(r *gin.Engine, h *handlers.Handler) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/games")
	{
		api.POST("", h.CreateGame)
		api.GET("/:ref", h.Scoreboard)
		api.POST("/:ref/players", h.AddPlayer)
		api.POST("/:ref/start", h.StartGame)
		api.POST("/:ref/rolls", h.Roll)
		api.GET("/:ref/journal", h.Journal)
	}
}
