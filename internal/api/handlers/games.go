package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/internal/store"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
	"github.com/jstittsworth/showdown-optimizer/pkg/utils"
)

type GamesHandler struct {
	store *store.Store
	log   *logrus.Logger
}

func NewGamesHandler(st *store.Store) *GamesHandler {
	return &GamesHandler{store: st, log: logger.Get()}
}

// PutGame caches a historical game, overwriting any previous copy.
func (h *GamesHandler) PutGame(c *gin.Context) {
	var game models.HistoricalGame
	if err := c.ShouldBindJSON(&game); err != nil {
		utils.SendValidationError(c, "Invalid game payload: "+err.Error())
		return
	}
	if game.GameID == "" {
		utils.SendValidationError(c, "game_id is required")
		return
	}
	if len(game.Players) == 0 {
		utils.SendValidationError(c, "game must contain at least one player record")
		return
	}

	if err := h.store.PutGame(c.Request.Context(), game); err != nil {
		h.log.WithError(err).WithField("game_id", game.GameID).Error("Failed to cache game")
		utils.SendInternalError(c, "Failed to cache game")
		return
	}

	utils.SendSuccess(c, http.StatusCreated, gin.H{"game_id": game.GameID})
}

// GetGame returns one cached game by id.
func (h *GamesHandler) GetGame(c *gin.Context) {
	id := c.Param("id")
	game, err := h.store.GetGame(c.Request.Context(), id)
	if err != nil {
		h.log.WithError(err).WithField("game_id", id).Error("Failed to load game")
		utils.SendInternalError(c, "Failed to load game")
		return
	}
	if game == nil {
		utils.SendNotFound(c, "Game not found")
		return
	}
	utils.SendSuccess(c, http.StatusOK, game)
}

// ListGames returns every cached game plus a count.
func (h *GamesHandler) ListGames(c *gin.Context) {
	games, err := h.store.Games(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list games")
		utils.SendInternalError(c, "Failed to list games")
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{
		"count": len(games),
		"games": games,
	})
}
