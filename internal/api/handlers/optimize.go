package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/internal/optimizer"
	"github.com/jstittsworth/showdown-optimizer/pkg/config"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
	"github.com/jstittsworth/showdown-optimizer/pkg/utils"
)

type OptimizeHandler struct {
	cfg *config.Config
	log *logrus.Logger
}

func NewOptimizeHandler(cfg *config.Config) *OptimizeHandler {
	return &OptimizeHandler{cfg: cfg, log: logger.Get()}
}

// OptimizeRequest is the request body for POST /api/optimize.
type OptimizeRequest struct {
	Players     []models.Player         `json:"players" binding:"required"`
	Constraints optimizer.ConstraintSet `json:"constraints"`
	NumLineups  int                     `json:"num_lineups"`
	Mode        models.ScoringMode      `json:"mode"`
}

// LineupView is one optimized lineup plus its evaluation metrics.
type LineupView struct {
	Captain models.Player           `json:"captain"`
	Others  []models.Player         `json:"others"`
	Metrics optimizer.LineupMetrics `json:"metrics"`
}

// Optimize generates a ranked set of unique lineups for the posted pool.
func (h *OptimizeHandler) Optimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body: "+err.Error())
		return
	}

	if req.Constraints.SalaryCap == 0 {
		req.Constraints.SalaryCap = h.cfg.SalaryCap
	}
	if req.Constraints.RosterSize == 0 {
		req.Constraints.RosterSize = h.cfg.RosterSize
	}
	if req.NumLineups <= 0 {
		req.NumLineups = 1
	}
	if req.NumLineups > h.cfg.MaxLineups {
		req.NumLineups = h.cfg.MaxLineups
	}

	lineups, err := optimizer.GenerateLineups(optimizer.GenerateRequest{
		Pool:        req.Players,
		Constraints: req.Constraints,
		NumLineups:  req.NumLineups,
		Mode:        req.Mode,
	})
	if err != nil {
		var verr *optimizer.ValidationError
		if errors.As(err, &verr) {
			utils.SendValidationError(c, verr.Error())
			return
		}
		h.log.WithError(err).Error("Lineup optimization failed")
		utils.SendInternalError(c, "Optimization failed")
		return
	}

	views := make([]LineupView, 0, len(lineups))
	for _, lineup := range lineups {
		views = append(views, LineupView{
			Captain: lineup.Captain,
			Others:  lineup.Others,
			Metrics: optimizer.EvaluateLineup(lineup),
		})
	}

	utils.SendSuccess(c, http.StatusOK, gin.H{
		"lineups":   views,
		"requested": req.NumLineups,
		"generated": len(views),
	})
}
