package validation

import (
	"context"

	"github.com/jstittsworth/showdown-optimizer/internal/discovery"
	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/internal/progress"
)

// DefaultTrainingSplit is the fraction of the corpus used for fitting; the
// remainder is held out for validation.
const DefaultTrainingSplit = 0.75

// RunCycle splits the corpus, discovers candidate models on the training
// games, and scores every candidate against the held-out games. Candidate
// failures surface as report warnings; only malformed input is an error.
func RunCycle(ctx context.Context, corpus []models.HistoricalGame, split float64, hindsight []models.StatWeights, cfg discovery.Config, rep *progress.Reporter) (*models.ValidationReport, error) {
	if split <= 0 || split >= 1 {
		split = DefaultTrainingSplit
	}

	if len(corpus) == 0 {
		return &models.ValidationReport{
			Warnings: []string{"empty game corpus; nothing to discover"},
		}, nil
	}

	cut := int(float64(len(corpus)) * split)
	if cut < 1 {
		cut = 1
	}
	if cut >= len(corpus) && len(corpus) > 1 {
		cut = len(corpus) - 1
	}
	training := corpus[:cut]
	holdout := corpus[cut:]

	discovered, err := discovery.DiscoverModels(ctx, training, hindsight, cfg, rep)
	if err != nil {
		return nil, err
	}

	ranked, err := ValidateModels(ctx, discovered.Models, holdout, rep)
	if err != nil {
		return nil, err
	}

	return &models.ValidationReport{
		TrainingGames:   len(training),
		ValidationGames: len(holdout),
		Models:          ranked,
		Warnings:        discovered.Warnings,
	}, nil
}
