package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/internal/progress"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
)

// Config tunes one discovery cycle.
type Config struct {
	// EnsembleSize is how many top training performers get averaged into
	// the ensemble candidate.
	EnsembleSize int `json:"ensemble_size"`
}

// DefaultConfig returns the standard discovery settings.
func DefaultConfig() Config {
	return Config{EnsembleSize: 3}
}

// Result is the outcome of one discovery cycle: zero or more candidates plus
// the non-fatal warnings accumulated along the way.
type Result struct {
	Models   []models.TunedModel `json:"models"`
	Warnings []string            `json:"warnings,omitempty"`
}

// DiscoverModels fits candidate scoring models from the training games. Each
// feature-set regression that converges becomes one candidate; externally
// sourced hindsight weight vectors, when present, average into one more; and
// the top training performers blend into an ensemble. Individual candidate
// failures are warnings, never fatal.
func DiscoverModels(ctx context.Context, trainingGames []models.HistoricalGame, hindsight []models.StatWeights, cfg Config, rep *progress.Reporter) (Result, error) {
	if cfg.EnsembleSize <= 0 {
		cfg.EnsembleSize = DefaultConfig().EnsembleSize
	}

	log := logger.WithDiscoveryContext(uuid.New().String())
	log.WithFields(logrus.Fields{
		"training_games":    len(trainingGames),
		"hindsight_vectors": len(hindsight),
	}).Info("Starting model discovery")

	result := Result{}
	sets := candidateSets()
	totalSteps := len(sets) + 2 // regressions, hindsight blend, ensemble

	for i, set := range sets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rep.Report(fmt.Sprintf("fitting %s", set.name), stepPercent(i, totalSteps))

		rows, targets := buildMatrix(trainingGames, set)
		fit, err := fitOLS(rows, targets)
		if err != nil {
			if errors.Is(err, errInsufficientData) {
				warning := fmt.Sprintf("candidate %s skipped: %d rows for %d features", set.name, len(rows), len(set.features)+1)
				result.Warnings = append(result.Warnings, warning)
				log.WithField("candidate", set.name).Warn(warning)
				continue
			}
			warning := fmt.Sprintf("candidate %s skipped: %v", set.name, err)
			result.Warnings = append(result.Warnings, warning)
			log.WithField("candidate", set.name).Warn(warning)
			continue
		}

		weights := models.StatWeights{models.StatIntercept: fit.intercept}
		for j, name := range set.features {
			weights[name] = fit.coefficients[j]
		}
		merged := weights.MergeOver(models.DefaultWeights())

		model := newCandidate(set.name, set.source, merged, fit.residualStdDev)
		model.Performance.TrainingMAE = trainingMAE(merged, trainingGames)
		result.Models = append(result.Models, model)

		log.WithFields(logrus.Fields{
			"candidate":    set.name,
			"rows":         fit.rows,
			"training_mae": model.Performance.TrainingMAE,
		}).Info("Fitted regression candidate")
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	rep.Report("blending hindsight weights", stepPercent(len(sets), totalSteps))

	if len(hindsight) > 0 {
		blended := models.AverageWeights(hindsight).MergeOver(models.DefaultWeights())
		model := newCandidate("hindsight-blend", fmt.Sprintf("average of %d externally sourced hindsight vectors", len(hindsight)), blended, 0)
		model.Performance.TrainingMAE = trainingMAE(blended, trainingGames)
		model.ResidualStdDev = residualStdDev(blended, trainingGames)
		result.Models = append(result.Models, model)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	rep.Report("building ensemble", stepPercent(totalSteps-1, totalSteps))

	if len(result.Models) >= 2 {
		ranked := make([]models.TunedModel, len(result.Models))
		copy(ranked, result.Models)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Performance.TrainingMAE < ranked[j].Performance.TrainingMAE
		})

		k := cfg.EnsembleSize
		if k > len(ranked) {
			k = len(ranked)
		}
		vectors := make([]models.StatWeights, 0, k)
		for _, m := range ranked[:k] {
			vectors = append(vectors, m.Weights)
		}

		blended := models.AverageWeights(vectors)
		model := newCandidate(fmt.Sprintf("ensemble-top%d", k), fmt.Sprintf("average of the %d best training candidates", k), blended, residualStdDev(blended, trainingGames))
		model.Performance.TrainingMAE = trainingMAE(blended, trainingGames)
		result.Models = append(result.Models, model)
	}

	rep.Report("discovery complete", 100)
	log.WithFields(logrus.Fields{
		"candidates": len(result.Models),
		"warnings":   len(result.Warnings),
	}).Info("Model discovery completed")

	return result, nil
}

func newCandidate(name, source string, weights models.StatWeights, residualStd float64) models.TunedModel {
	return models.TunedModel{
		ID:             uuid.New().String(),
		Name:           name,
		Weights:        weights,
		ResidualStdDev: residualStd,
		Source:         source,
		CreatedAt:      time.Now().UTC(),
	}
}

// trainingMAE scores a candidate against the set it was fitted on, over
// every player-game with a nonzero actual.
func trainingMAE(w models.StatWeights, games []models.HistoricalGame) float64 {
	preds, actuals := predictAll(w, games)
	return meanAbsoluteError(preds, actuals)
}

func residualStdDev(w models.StatWeights, games []models.HistoricalGame) float64 {
	preds, actuals := predictAll(w, games)
	if len(preds) < 2 {
		return 1e-6
	}
	mean := 0.0
	for i := range preds {
		mean += actuals[i] - preds[i]
	}
	mean /= float64(len(preds))

	variance := 0.0
	for i := range preds {
		d := (actuals[i] - preds[i]) - mean
		variance += d * d
	}
	variance /= float64(len(preds) - 1)

	sd := math.Sqrt(variance)
	if sd <= 0 {
		return 1e-6
	}
	return sd
}

func predictAll(w models.StatWeights, games []models.HistoricalGame) (preds, actuals []float64) {
	for i := range games {
		game := &games[i]
		for _, rec := range game.Players {
			if rec.ActualFantasyPoints == 0 {
				continue
			}
			preds = append(preds, PredictPoints(w, game, rec))
			actuals = append(actuals, rec.ActualFantasyPoints)
		}
	}
	return preds, actuals
}

func stepPercent(step, total int) float64 {
	return float64(step) / float64(total) * 100
}
