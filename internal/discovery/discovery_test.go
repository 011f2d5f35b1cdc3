package discovery

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
)

// syntheticCorpus builds games whose actual fantasy points are an exact
// linear function of the raw box-score stats, so a converged regression
// should recover the generating weights.
func syntheticCorpus(nGames int, rng *rand.Rand) []models.HistoricalGame {
	truth := models.DefaultWeights()

	games := make([]models.HistoricalGame, 0, nGames)
	for g := 0; g < nGames; g++ {
		game := models.HistoricalGame{
			GameID:      fmt.Sprintf("synthetic-%d", g),
			Description: "synthetic slate",
		}
		for _, team := range []string{"AAA", "BBB"} {
			game.Players = append(game.Players, syntheticPlayer(team, models.PositionQB, truth, rng))
			game.Players = append(game.Players, syntheticPlayer(team, models.PositionRB, truth, rng))
			game.Players = append(game.Players, syntheticPlayer(team, models.PositionWR, truth, rng))
			game.Players = append(game.Players, syntheticPlayer(team, models.PositionWR, truth, rng))
			game.Players = append(game.Players, syntheticPlayer(team, models.PositionTE, truth, rng))
		}
		games = append(games, game)
	}
	return games
}

func syntheticPlayer(team string, pos models.Position, truth models.StatWeights, rng *rand.Rand) models.HistoricalPlayerRecord {
	stats := map[models.StatName]float64{
		models.StatRushYards:   rng.Float64() * 60,
		models.StatRushTDs:     float64(rng.Intn(2)),
		models.StatReceptions:  rng.Float64() * 8,
		models.StatRecYards:    rng.Float64() * 90,
		models.StatRecTDs:      float64(rng.Intn(2)),
		models.StatFumblesLost: float64(rng.Intn(2)),
	}
	if pos == models.PositionQB {
		stats[models.StatPassYards] = 150 + rng.Float64()*250
		stats[models.StatPassTDs] = float64(rng.Intn(4))
		stats[models.StatInterceptions] = float64(rng.Intn(3))
	}

	return models.HistoricalPlayerRecord{
		Name:                fmt.Sprintf("%s-%s-%d", team, pos, rng.Intn(1_000_000)),
		Team:                team,
		Position:            pos,
		Stats:               stats,
		ActualFantasyPoints: truth.Score(stats),
		Salary:              3000 + rng.Intn(9000),
	}
}

func TestDiscoverRecoversLinearScoring(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	corpus := syntheticCorpus(12, rng)

	result, err := DiscoverModels(context.Background(), corpus, nil, DefaultConfig(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Models)

	var raw *models.TunedModel
	for i := range result.Models {
		if result.Models[i].Name == "raw-stats-ols" {
			raw = &result.Models[i]
			break
		}
	}
	require.NotNil(t, raw, "raw box-score regression should always converge on clean data")

	assert.InDelta(t, 0.04, raw.Weights[models.StatPassYards], 0.005)
	assert.InDelta(t, 0.1, raw.Weights[models.StatRecYards], 0.01)
	assert.Less(t, raw.Performance.TrainingMAE, 0.1, "noise-free data should fit almost exactly")
	assert.NotEmpty(t, raw.ID)
	assert.False(t, raw.CreatedAt.IsZero())
}

func TestDiscoverBuildsEnsembleFromMultipleCandidates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	corpus := syntheticCorpus(12, rng)

	hindsight := []models.StatWeights{
		{models.StatPassYards: 0.05, models.StatReceptions: 1.2},
		{models.StatPassYards: 0.03, models.StatReceptions: 0.8},
	}

	result, err := DiscoverModels(context.Background(), corpus, hindsight, Config{EnsembleSize: 2}, nil)
	require.NoError(t, err)

	names := make(map[string]models.TunedModel, len(result.Models))
	for _, m := range result.Models {
		names[m.Name] = m
	}

	blend, ok := names["hindsight-blend"]
	require.True(t, ok, "hindsight vectors should produce a blended candidate")
	assert.InDelta(t, 0.04, blend.Weights[models.StatPassYards], 1e-9)
	assert.InDelta(t, 1.0, blend.Weights[models.StatReceptions], 1e-9)

	foundEnsemble := false
	for name := range names {
		if strings.HasPrefix(name, "ensemble-top") {
			foundEnsemble = true
		}
	}
	assert.True(t, foundEnsemble, "two or more candidates should yield an ensemble")
}

func TestDiscoverInsufficientDataSkipsWithWarnings(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tiny := syntheticCorpus(1, rng)
	tiny[0].Players = tiny[0].Players[:2]

	result, err := DiscoverModels(context.Background(), tiny, nil, DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Empty(t, result.Models)
	require.NotEmpty(t, result.Warnings)
	for _, w := range result.Warnings {
		assert.Contains(t, w, "skipped")
	}
}

func TestDiscoverHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rng := rand.New(rand.NewSource(3))
	_, err := DiscoverModels(ctx, syntheticCorpus(4, rng), nil, DefaultConfig(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlayerFeaturesDeriveGameScript(t *testing.T) {
	game := models.HistoricalGame{
		GameID: "feature-check",
		Players: []models.HistoricalPlayerRecord{
			{
				Name:     "QB One",
				Team:     "AAA",
				Position: models.PositionQB,
				Stats: map[models.StatName]float64{
					models.StatPassYards: 280,
					models.StatPassTDs:   2,
				},
				ActualFantasyPoints: 19.2,
				Salary:              11000,
			},
			{
				Name:     "WR Alpha",
				Team:     "AAA",
				Position: models.PositionWR,
				Stats: map[models.StatName]float64{
					models.StatReceptions: 7,
					models.StatRecYards:   110,
				},
				ActualFantasyPoints: 18.0,
				Salary:              9800,
			},
			{
				Name:     "WR Beta",
				Team:     "AAA",
				Position: models.PositionWR,
				Stats: map[models.StatName]float64{
					models.StatReceptions: 4,
					models.StatRecYards:   52,
				},
				ActualFantasyPoints: 9.2,
				Salary:              6400,
			},
		},
	}

	features := PlayerFeatures(&game, game.Players[2])
	assert.Equal(t, 280.0, features[models.StatQBPassYards])
	assert.Equal(t, 2.0, features[models.StatQBPassTDs])
	assert.Equal(t, 110.0, features[models.StatTopTeammateRecYards], "top teammate is the highest-salaried other player")
	assert.Equal(t, 7.0, features[models.StatTopTeammateCatches])

	// The QB is its own team's passer; no self-referential features.
	qbFeatures := PlayerFeatures(&game, game.Players[0])
	assert.NotContains(t, qbFeatures, models.StatQBPassYards)
	assert.Equal(t, 110.0, qbFeatures[models.StatTopTeammateRecYards])
}
