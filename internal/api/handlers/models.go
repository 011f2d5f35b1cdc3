package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/api/ws"
	"github.com/jstittsworth/showdown-optimizer/internal/discovery"
	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/internal/progress"
	"github.com/jstittsworth/showdown-optimizer/internal/services"
	"github.com/jstittsworth/showdown-optimizer/internal/store"
	"github.com/jstittsworth/showdown-optimizer/internal/validation"
	"github.com/jstittsworth/showdown-optimizer/pkg/config"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
	"github.com/jstittsworth/showdown-optimizer/pkg/utils"
)

type ModelsHandler struct {
	store     *store.Store
	hindsight *services.HindsightService
	hub       *ws.Hub
	cfg       *config.Config
	log       *logrus.Logger
}

func NewModelsHandler(st *store.Store, hindsight *services.HindsightService, hub *ws.Hub, cfg *config.Config) *ModelsHandler {
	return &ModelsHandler{store: st, hindsight: hindsight, hub: hub, cfg: cfg, log: logger.Get()}
}

// DiscoverRequest tunes one discovery and validation cycle.
type DiscoverRequest struct {
	TrainingSplit float64 `json:"training_split"`
	EnsembleSize  int     `json:"ensemble_size"`
	UseHindsight  bool    `json:"use_hindsight"`
}

// Discover runs a full model discovery cycle over the cached game corpus and
// persists every surviving candidate.
func (h *ModelsHandler) Discover(c *gin.Context) {
	var req DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.SendValidationError(c, "Invalid request body: "+err.Error())
		return
	}
	if req.TrainingSplit <= 0 || req.TrainingSplit >= 1 {
		req.TrainingSplit = h.cfg.TrainingSplit
	}
	if req.EnsembleSize <= 0 {
		req.EnsembleSize = h.cfg.EnsembleSize
	}

	ctx := c.Request.Context()
	corpus, err := h.store.Games(ctx)
	if err != nil {
		h.log.WithError(err).Error("Failed to load game corpus")
		utils.SendInternalError(c, "Failed to load game corpus")
		return
	}
	if len(corpus) == 0 {
		utils.SendValidationError(c, "No cached games available for discovery")
		return
	}

	rep := progress.NewReporter(64)
	go h.hub.Relay("discovery", rep)
	defer rep.Close()

	var hindsight []models.StatWeights
	if req.UseHindsight {
		hindsight = services.CollectHindsightVectors(ctx, h.hindsight, corpus, h.cfg.AIMaxGames)
	}

	report, err := validation.RunCycle(ctx, corpus, req.TrainingSplit, hindsight, discovery.Config{
		EnsembleSize: req.EnsembleSize,
	}, rep)
	if err != nil {
		h.log.WithError(err).Error("Discovery cycle failed")
		utils.SendInternalError(c, "Discovery cycle failed")
		return
	}
	if req.UseHindsight && len(hindsight) == 0 {
		report.Warnings = append(report.Warnings, "hindsight source unavailable; candidate skipped")
	}

	for _, model := range report.Models {
		if err := h.store.PutModel(ctx, model); err != nil {
			h.log.WithError(err).WithField("model_id", model.ID).Warn("Failed to persist tuned model")
			report.Warnings = append(report.Warnings, "failed to persist model "+model.Name)
		}
	}

	utils.SendSuccess(c, http.StatusOK, report)
}

// ListModels returns every persisted model ranked best-first.
func (h *ModelsHandler) ListModels(c *gin.Context) {
	tuned, err := h.store.ListModels(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list models")
		utils.SendInternalError(c, "Failed to list models")
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{
		"count":  len(tuned),
		"models": tuned,
	})
}

// GetModel returns one persisted model by id.
func (h *ModelsHandler) GetModel(c *gin.Context) {
	id := c.Param("id")
	model, err := h.store.GetModel(c.Request.Context(), id)
	if err != nil {
		h.log.WithError(err).WithField("model_id", id).Error("Failed to load model")
		utils.SendInternalError(c, "Failed to load model")
		return
	}
	if model == nil {
		utils.SendNotFound(c, "Model not found")
		return
	}
	utils.SendSuccess(c, http.StatusOK, model)
}

// DeleteModel removes a persisted model; deleting an unknown id is a no-op.
func (h *ModelsHandler) DeleteModel(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteModel(c.Request.Context(), id); err != nil {
		h.log.WithError(err).WithField("model_id", id).Error("Failed to delete model")
		utils.SendInternalError(c, "Failed to delete model")
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"deleted": id})
}
