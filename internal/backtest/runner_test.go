package backtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
)

type sliceSource struct {
	games []models.HistoricalGame
	err   error
}

func (s sliceSource) Games(ctx context.Context) ([]models.HistoricalGame, error) {
	return s.games, s.err
}

// replayableGame has ten salaried players split across two teams, enough for
// any five-man roster.
func replayableGame(id string) models.HistoricalGame {
	mk := func(name, team string, pos models.Position, salary int, points float64) models.HistoricalPlayerRecord {
		return models.HistoricalPlayerRecord{
			Name:                name,
			Team:                team,
			Position:            pos,
			ActualFantasyPoints: points,
			Salary:              salary,
		}
	}
	return models.HistoricalGame{
		GameID:      id,
		Description: "DEN at LV",
		Players: []models.HistoricalPlayerRecord{
			mk("Den QB", "DEN", models.PositionQB, 11000, 24.1),
			mk("Den RB", "DEN", models.PositionRB, 8600, 17.4),
			mk("Den WR1", "DEN", models.PositionWR, 9400, 21.0),
			mk("Den WR2", "DEN", models.PositionWR, 6200, 9.8),
			mk("Den TE", "DEN", models.PositionTE, 5200, 7.5),
			mk("LV QB", "LV", models.PositionQB, 10200, 18.9),
			mk("LV RB", "LV", models.PositionRB, 7800, 13.2),
			mk("LV WR1", "LV", models.PositionWR, 8800, 16.6),
			mk("LV WR2", "LV", models.PositionWR, 5600, 8.1),
			mk("LV DST", "LV", models.PositionDST, 3800, 6.0),
		},
	}
}

func baseRequest() Request {
	return Request{SalaryCap: 50000, RosterSize: 5, NumLineups: 3}
}

func TestRunAggregatesAcrossGames(t *testing.T) {
	source := sliceSource{games: []models.HistoricalGame{
		replayableGame("g1"),
		replayableGame("g2"),
	}}

	report, err := Run(context.Background(), source, baseRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.GamesEvaluated)
	assert.Zero(t, report.GamesSkipped)
	require.Len(t, report.Results, 2)

	// Identical games produce identical top scores, so the average equals
	// either one.
	assert.Equal(t, report.Results[0].TopScore, report.Results[1].TopScore)
	assert.InDelta(t, report.Results[0].TopScore, report.AverageTopScore, 1e-9)
	assert.Positive(t, report.AverageTopScore)
	assert.Equal(t, 3, report.Results[0].LineupCount)
}

func TestRunParallelMatchesSequential(t *testing.T) {
	games := make([]models.HistoricalGame, 0, 6)
	for i := 0; i < 6; i++ {
		games = append(games, replayableGame(fmt.Sprintf("g%d", i)))
	}
	source := sliceSource{games: games}

	seqReq := baseRequest()
	seqReq.Workers = 1
	parReq := baseRequest()
	parReq.Workers = 4

	sequential, err := Run(context.Background(), source, seqReq, nil)
	require.NoError(t, err)
	parallel, err := Run(context.Background(), source, parReq, nil)
	require.NoError(t, err)

	assert.Equal(t, sequential.AverageTopScore, parallel.AverageTopScore)
	assert.Equal(t, sequential.GamesEvaluated, parallel.GamesEvaluated)
	require.Equal(t, len(sequential.Results), len(parallel.Results))
	for i := range sequential.Results {
		assert.Equal(t, sequential.Results[i].TopScore, parallel.Results[i].TopScore)
	}
	assert.Equal(t, sequential.Exposure, parallel.Exposure)
}

func TestRunLocksPlayersByName(t *testing.T) {
	source := sliceSource{games: []models.HistoricalGame{replayableGame("g1")}}

	req := baseRequest()
	req.NumLineups = 1
	req.LockedNames = []string{"LV DST"}

	report, err := Run(context.Background(), source, req, nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.GamesEvaluated)

	found := false
	for _, e := range report.Exposure {
		if e.Name == "LV DST" {
			found = true
			assert.Equal(t, 1, e.Lineups)
			assert.Equal(t, 100.0, e.Percent)
		}
	}
	assert.True(t, found, "locked player should appear in every lineup")
}

func TestRunSkipsGameMissingLockedPlayer(t *testing.T) {
	source := sliceSource{games: []models.HistoricalGame{
		replayableGame("has-player"),
		replayableGame("also-has-player"),
	}}

	req := baseRequest()
	req.LockedNames = []string{"Nobody Special"}

	report, err := Run(context.Background(), source, req, nil)
	require.NoError(t, err)

	assert.Zero(t, report.GamesEvaluated)
	assert.Equal(t, 2, report.GamesSkipped)
	assert.Zero(t, report.AverageTopScore)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "Nobody Special")
}

func TestRunSkipsGameWithoutSalaryData(t *testing.T) {
	unsalaried := replayableGame("no-salaries")
	for i := range unsalaried.Players {
		unsalaried.Players[i].Salary = 0
	}
	source := sliceSource{games: []models.HistoricalGame{
		unsalaried,
		replayableGame("good"),
	}}

	report, err := Run(context.Background(), source, baseRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.GamesEvaluated)
	assert.Equal(t, 1, report.GamesSkipped)
	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].Skipped)
	assert.Contains(t, report.Results[0].SkipReason, "salary")
}

func TestRunSourceErrorIsFatal(t *testing.T) {
	source := sliceSource{err: fmt.Errorf("redis unavailable")}

	_, err := Run(context.Background(), source, baseRequest(), nil)
	assert.Error(t, err)
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := sliceSource{games: []models.HistoricalGame{replayableGame("g1")}}
	_, err := Run(ctx, source, baseRequest(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExposurePercentagesSumOverRoster(t *testing.T) {
	source := sliceSource{games: []models.HistoricalGame{replayableGame("g1")}}

	req := baseRequest()
	req.NumLineups = 4

	report, err := Run(context.Background(), source, req, nil)
	require.NoError(t, err)
	require.NotEmpty(t, report.Exposure)

	// Every lineup carries exactly five players, so per-lineup exposure
	// percentages across all players sum to 500.
	total := 0.0
	for _, e := range report.Exposure {
		total += e.Percent
	}
	assert.InDelta(t, 500.0, total, 1e-6)

	for i := 1; i < len(report.Exposure); i++ {
		assert.GreaterOrEqual(t, report.Exposure[i-1].Lineups, report.Exposure[i].Lineups)
	}
}
