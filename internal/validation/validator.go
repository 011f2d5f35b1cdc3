package validation

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/discovery"
	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/internal/progress"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
)

// ValidateModels scores every candidate against the held-out games and
// returns the candidates annotated and ranked: ascending validation MAE,
// newest first on ties, unvalidatable models last. The input slice is not
// mutated.
func ValidateModels(ctx context.Context, candidates []models.TunedModel, validationGames []models.HistoricalGame, rep *progress.Reporter) ([]models.TunedModel, error) {
	log := logger.Get().WithField("component", "validator")
	log.WithFields(logrus.Fields{
		"candidates":       len(candidates),
		"validation_games": len(validationGames),
	}).Info("Validating candidate models")

	ranked := make([]models.TunedModel, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rep.Report(fmt.Sprintf("validating %s", ranked[i].Name), float64(i)/float64(len(ranked))*100)

		preds, actuals := collectPairs(ranked[i].Weights, validationGames)
		if len(preds) == 0 {
			log.WithField("model", ranked[i].Name).Warn("No usable validation rows for model")
			continue
		}

		report := BuildCalibrationReport(preds, actuals, ranked[i].ResidualStdDev)
		mae := report.MAE
		ranked[i].Performance.ValidationMAE = &mae
		ranked[i].Performance.Calibration = &report

		log.WithFields(logrus.Fields{
			"model":          ranked[i].Name,
			"validation_mae": report.MAE,
			"crps":           report.CRPS,
			"p50_coverage":   report.P50Coverage,
		}).Info("Model validated")
	}

	SortByValidationMAE(ranked)
	rep.Report("validation complete", 100)
	return ranked, nil
}

// SortByValidationMAE orders models best-first: ascending validation MAE,
// ties broken by recency, models without a validation score last.
func SortByValidationMAE(ranked []models.TunedModel) {
	sort.SliceStable(ranked, func(i, j int) bool {
		mi, mj := ranked[i].Performance.ValidationMAE, ranked[j].Performance.ValidationMAE
		switch {
		case mi == nil && mj == nil:
			return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
		case mi == nil:
			return false
		case mj == nil:
			return true
		case *mi != *mj:
			return *mi < *mj
		default:
			return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
		}
	})
}

// collectPairs builds (predicted, actual) pairs over every player-game with
// a nonzero actual score.
func collectPairs(w models.StatWeights, games []models.HistoricalGame) (preds, actuals []float64) {
	for i := range games {
		game := &games[i]
		for _, rec := range game.Players {
			if rec.ActualFantasyPoints == 0 {
				continue
			}
			preds = append(preds, discovery.PredictPoints(w, game, rec))
			actuals = append(actuals, rec.ActualFantasyPoints)
		}
	}
	return preds, actuals
}
