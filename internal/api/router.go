package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/showdown-optimizer/internal/api/handlers"
	"github.com/jstittsworth/showdown-optimizer/internal/api/ws"
	"github.com/jstittsworth/showdown-optimizer/internal/services"
	"github.com/jstittsworth/showdown-optimizer/internal/store"
	"github.com/jstittsworth/showdown-optimizer/pkg/config"
	"github.com/jstittsworth/showdown-optimizer/pkg/utils"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, st *store.Store, hub *ws.Hub, hindsight *services.HindsightService, cfg *config.Config) {
	optimizeHandler := handlers.NewOptimizeHandler(cfg)
	gamesHandler := handlers.NewGamesHandler(st)
	modelsHandler := handlers.NewModelsHandler(st, hindsight, hub, cfg)
	backtestHandler := handlers.NewBacktestHandler(st, hub, cfg)

	// Optimization endpoints
	group.POST("/optimize", optimizeHandler.Optimize)

	// Historical game cache endpoints
	group.POST("/games", gamesHandler.PutGame)
	group.GET("/games", gamesHandler.ListGames)
	group.GET("/games/:id", gamesHandler.GetGame)

	// Model discovery and management endpoints
	group.POST("/models/discover", modelsHandler.Discover)
	group.GET("/models", modelsHandler.ListModels)
	group.GET("/models/:id", modelsHandler.GetModel)
	group.DELETE("/models/:id", modelsHandler.DeleteModel)

	// Backtest endpoints
	group.POST("/backtest", backtestHandler.Run)

	group.GET("/health", func(c *gin.Context) {
		utils.SendSuccess(c, http.StatusOK, gin.H{"status": "healthy"})
	})
}
