package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/showdown-optimizer/internal/discovery"
	"github.com/jstittsworth/showdown-optimizer/internal/models"
)

func holdoutGames() []models.HistoricalGame {
	return []models.HistoricalGame{
		{
			GameID: "holdout-1",
			Players: []models.HistoricalPlayerRecord{
				{
					Name:                "Receiver A",
					Team:                "AAA",
					Position:            models.PositionWR,
					Stats:               map[models.StatName]float64{models.StatReceptions: 8, models.StatRecYards: 100},
					ActualFantasyPoints: 18.0,
					Salary:              9000,
				},
				{
					Name:                "Receiver B",
					Team:                "AAA",
					Position:            models.PositionWR,
					Stats:               map[models.StatName]float64{models.StatReceptions: 4, models.StatRecYards: 40},
					ActualFantasyPoints: 8.0,
					Salary:              5000,
				},
				{
					Name:     "Injured Out",
					Team:     "BBB",
					Position: models.PositionRB,
					Stats:    map[models.StatName]float64{},
					// Zero actual points; excluded from validation pairs.
					ActualFantasyPoints: 0,
					Salary:              4000,
				},
			},
		},
	}
}

func candidate(name string, weights models.StatWeights, createdAt time.Time) models.TunedModel {
	return models.TunedModel{
		ID:             name + "-id",
		Name:           name,
		Weights:        weights,
		ResidualStdDev: 3.0,
		CreatedAt:      createdAt,
	}
}

func TestValidateModelsAnnotatesAndRanks(t *testing.T) {
	now := time.Now().UTC()

	// accurate predicts both holdout receivers exactly; sloppy is far off.
	accurate := candidate("accurate", models.StatWeights{
		models.StatReceptions: 1.0,
		models.StatRecYards:   0.1,
	}, now)
	sloppy := candidate("sloppy", models.StatWeights{
		models.StatReceptions: 3.0,
	}, now)

	ranked, err := ValidateModels(context.Background(), []models.TunedModel{sloppy, accurate}, holdoutGames(), nil)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "accurate", ranked[0].Name)
	require.NotNil(t, ranked[0].Performance.ValidationMAE)
	assert.InDelta(t, 0.0, *ranked[0].Performance.ValidationMAE, 1e-9)

	require.NotNil(t, ranked[0].Performance.Calibration)
	assert.Equal(t, 2, ranked[0].Performance.Calibration.SampleCount, "zero-actual rows stay out of validation")

	require.NotNil(t, ranked[1].Performance.ValidationMAE)
	assert.Greater(t, *ranked[1].Performance.ValidationMAE, 1.0)
}

func TestValidateModelsDoesNotMutateInput(t *testing.T) {
	input := []models.TunedModel{
		candidate("only", models.StatWeights{models.StatReceptions: 1.0}, time.Now().UTC()),
	}

	_, err := ValidateModels(context.Background(), input, holdoutGames(), nil)
	require.NoError(t, err)

	assert.Nil(t, input[0].Performance.ValidationMAE)
	assert.Nil(t, input[0].Performance.Calibration)
}

func TestValidateModelsNoUsableRowsLeavesModelUnscored(t *testing.T) {
	empty := []models.HistoricalGame{{GameID: "void"}}
	input := []models.TunedModel{
		candidate("unscorable", models.StatWeights{models.StatReceptions: 1.0}, time.Now().UTC()),
	}

	ranked, err := ValidateModels(context.Background(), input, empty, nil)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Nil(t, ranked[0].Performance.ValidationMAE)
}

func TestValidateModelsHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := []models.TunedModel{
		candidate("any", models.StatWeights{}, time.Now().UTC()),
	}
	_, err := ValidateModels(ctx, input, holdoutGames(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunCycleSplitsAndRanks(t *testing.T) {
	corpus := make([]models.HistoricalGame, 0, 8)
	for i := 0; i < 8; i++ {
		g := holdoutGames()[0]
		g.GameID = string(rune('a'+i)) + "-game"
		corpus = append(corpus, g)
	}

	report, err := RunCycle(context.Background(), corpus, 0.75, nil, discovery.DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, 6, report.TrainingGames)
	assert.Equal(t, 2, report.ValidationGames)

	// Two usable rows per training game cannot support an 11-column
	// regression, so every candidate should be skipped with a warning.
	assert.NotEmpty(t, report.Warnings)
}

func TestRunCycleEmptyCorpusReturnsEmptyReport(t *testing.T) {
	report, err := RunCycle(context.Background(), nil, 0.75, nil, discovery.DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Zero(t, report.TrainingGames)
	assert.Zero(t, report.ValidationGames)
	assert.Empty(t, report.Models)
	assert.NotEmpty(t, report.Warnings)
}

func TestRunCycleTinyCorpusKeepsAHoldout(t *testing.T) {
	corpus := []models.HistoricalGame{holdoutGames()[0], holdoutGames()[0]}
	corpus[1].GameID = "second"

	report, err := RunCycle(context.Background(), corpus, 0.99, nil, discovery.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TrainingGames)
	assert.Equal(t, 1, report.ValidationGames)
}
