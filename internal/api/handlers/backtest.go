package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/api/ws"
	"github.com/jstittsworth/showdown-optimizer/internal/backtest"
	"github.com/jstittsworth/showdown-optimizer/internal/progress"
	"github.com/jstittsworth/showdown-optimizer/internal/store"
	"github.com/jstittsworth/showdown-optimizer/pkg/config"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
	"github.com/jstittsworth/showdown-optimizer/pkg/utils"
)

type BacktestHandler struct {
	store *store.Store
	hub   *ws.Hub
	cfg   *config.Config
	log   *logrus.Logger
}

func NewBacktestHandler(st *store.Store, hub *ws.Hub, cfg *config.Config) *BacktestHandler {
	return &BacktestHandler{store: st, hub: hub, cfg: cfg, log: logger.Get()}
}

// Run replays the optimizer against every cached game with hindsight scores.
func (h *BacktestHandler) Run(c *gin.Context) {
	var req backtest.Request
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.SendValidationError(c, "Invalid request body: "+err.Error())
		return
	}

	if req.SalaryCap <= 0 {
		req.SalaryCap = h.cfg.SalaryCap
	}
	if req.RosterSize <= 0 {
		req.RosterSize = h.cfg.RosterSize
	}
	if req.NumLineups <= 0 {
		req.NumLineups = 1
	}
	if req.Workers <= 0 {
		req.Workers = h.cfg.BacktestWorkers
	}

	rep := progress.NewReporter(64)
	go h.hub.Relay("backtest", rep)
	defer rep.Close()

	report, err := backtest.Run(c.Request.Context(), h.store, req, rep)
	if err != nil {
		h.log.WithError(err).Error("Backtest run failed")
		utils.SendInternalError(c, "Backtest run failed")
		return
	}

	utils.SendSuccess(c, http.StatusOK, report)
}
