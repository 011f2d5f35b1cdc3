package backtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/internal/optimizer"
	"github.com/jstittsworth/showdown-optimizer/internal/progress"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
)

// Request configures one backtest run. Locks and exclusions are referenced
// by player name because ids are re-synthesized per historical game.
type Request struct {
	SalaryCap                int      `json:"salary_cap"`
	RosterSize               int      `json:"roster_size"`
	NumLineups               int      `json:"num_lineups"`
	LockedNames              []string `json:"locked_players,omitempty"`
	ExcludedNames            []string `json:"excluded_players,omitempty"`
	RequireCaptainStack      bool     `json:"require_captain_stack"`
	RequireOpponentBringBack bool     `json:"require_opponent_bring_back"`
	Workers                  int      `json:"workers,omitempty"`
}

// GameResult is the outcome for one historical game.
type GameResult struct {
	GameID      string  `json:"game_id"`
	Description string  `json:"description"`
	TopScore    float64 `json:"top_score"`
	LineupCount int     `json:"lineup_count"`
	Skipped     bool    `json:"skipped"`
	SkipReason  string  `json:"skip_reason,omitempty"`

	lineups []models.Lineup
}

// PlayerExposure counts how often a player appeared across every generated
// lineup in every game.
type PlayerExposure struct {
	Name     string          `json:"name"`
	Team     string          `json:"team"`
	Position models.Position `json:"position"`
	Lineups  int             `json:"lineups"`
	Percent  float64         `json:"percent"`
}

// Report aggregates a whole backtest run.
type Report struct {
	Results         []GameResult     `json:"results"`
	GamesEvaluated  int              `json:"games_evaluated"`
	GamesSkipped    int              `json:"games_skipped"`
	AverageTopScore float64          `json:"average_top_score"`
	Exposure        []PlayerExposure `json:"exposure"`
	Warnings        []string         `json:"warnings,omitempty"`
}

// GameSource is the slice of the store the runner needs.
type GameSource interface {
	Games(ctx context.Context) ([]models.HistoricalGame, error)
}

// Run replays the lineup generator against every cached historical game,
// scoring with perfect hindsight: each synthetic pool uses actual final
// fantasy points as its projections. Games are independent, so they fan out
// across a bounded worker pool. A single game's failure is recorded and
// skipped; it never aborts the run.
func Run(ctx context.Context, source GameSource, req Request, rep *progress.Reporter) (*Report, error) {
	log := logger.WithBacktestContext(uuid.New().String())

	games, err := source.Games(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load historical games: %w", err)
	}
	if req.NumLineups <= 0 {
		req.NumLineups = 1
	}
	workers := req.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(games) && len(games) > 0 {
		workers = len(games)
	}

	log.WithFields(logrus.Fields{
		"games":       len(games),
		"num_lineups": req.NumLineups,
		"workers":     workers,
	}).Info("Starting backtest")

	results := make([]GameResult, len(games))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = replayGame(&games[idx], req, log)
			}
		}()
	}

	dispatched := 0
dispatch:
	for idx := range games {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- idx:
			dispatched++
			rep.Report(fmt.Sprintf("replaying %s", games[idx].GameID), float64(dispatched)/float64(len(games))*100)
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := aggregate(results)
	rep.Report("backtest complete", 100)
	log.WithFields(logrus.Fields{
		"evaluated":         report.GamesEvaluated,
		"skipped":           report.GamesSkipped,
		"average_top_score": report.AverageTopScore,
	}).Info("Backtest completed")

	return report, nil
}

// replayGame reconstructs the synthetic pool for one game and runs the same
// generator used for live optimization against it.
func replayGame(game *models.HistoricalGame, req Request, log *logrus.Entry) GameResult {
	result := GameResult{GameID: game.GameID, Description: game.Description}

	pool, reason := reconstructPool(game, req)
	if reason != "" {
		result.Skipped = true
		result.SkipReason = reason
		log.WithFields(logrus.Fields{
			"game_id": game.GameID,
			"reason":  reason,
		}).Warn("Skipping game")
		return result
	}

	locked, reason := resolveNames(pool, req.LockedNames)
	if reason != "" {
		result.Skipped = true
		result.SkipReason = reason
		return result
	}
	excluded, _ := resolveNames(pool, req.ExcludedNames)

	lineups, err := optimizer.GenerateLineups(optimizer.GenerateRequest{
		Pool: pool,
		Constraints: optimizer.ConstraintSet{
			SalaryCap:                req.SalaryCap,
			RosterSize:               req.RosterSize,
			LockedPlayerIDs:          locked,
			ExcludedPlayerIDs:        excluded,
			RequireCaptainStack:      req.RequireCaptainStack,
			RequireOpponentBringBack: req.RequireOpponentBringBack,
		},
		NumLineups: req.NumLineups,
		Mode:       models.ScoringModeMean,
	})
	if err != nil {
		result.Skipped = true
		result.SkipReason = err.Error()
		return result
	}
	if len(lineups) == 0 {
		result.Skipped = true
		result.SkipReason = "no feasible lineup under the requested constraints"
		return result
	}

	// Pool projections are the actual finals, so a lineup's mean total is
	// its realized score.
	for _, l := range lineups {
		if score := l.TotalScore(models.ScoringModeMean); score > result.TopScore {
			result.TopScore = score
		}
	}
	result.LineupCount = len(lineups)
	result.lineups = lineups
	return result
}

// reconstructPool builds the synthetic player pool from final stats. Games
// without usable salary data are reported for skipping.
func reconstructPool(game *models.HistoricalGame, req Request) ([]models.Player, string) {
	rosterSize := req.RosterSize
	if rosterSize <= 0 {
		rosterSize = optimizer.DefaultRosterSize
	}

	pool := make([]models.Player, 0, len(game.Players))
	for i, rec := range game.Players {
		if rec.Salary <= 0 {
			continue
		}
		pool = append(pool, models.Player{
			ID:           fmt.Sprintf("%s-p%d", game.GameID, i),
			Name:         rec.Name,
			Team:         rec.Team,
			Opponent:     opponentOf(game, rec.Team),
			Position:     rec.Position,
			Salary:       rec.Salary,
			MeanScore:    rec.ActualFantasyPoints,
			CeilingScore: rec.ActualFantasyPoints,
		})
	}

	if len(pool) < rosterSize {
		return nil, fmt.Sprintf("only %d players with salary data, need %d", len(pool), rosterSize)
	}
	return pool, ""
}

func opponentOf(game *models.HistoricalGame, team string) string {
	for _, rec := range game.Players {
		if rec.Team != team {
			return rec.Team
		}
	}
	return ""
}

// resolveNames maps user-facing names onto this game's synthetic ids. A
// locked name that is absent makes the game unusable for the request.
func resolveNames(pool []models.Player, names []string) ([]string, string) {
	if len(names) == 0 {
		return nil, ""
	}
	byName := make(map[string]string, len(pool))
	for _, p := range pool {
		if _, taken := byName[p.Name]; !taken {
			byName[p.Name] = p.ID
		}
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, fmt.Sprintf("player %q not present in this game", name)
		}
		ids = append(ids, id)
	}
	return ids, ""
}

// aggregate folds per-game results into the run-level report. The average
// covers exactly the games that were not skipped.
func aggregate(results []GameResult) *Report {
	report := &Report{Results: results}

	totalScore := 0.0
	exposure := make(map[string]*PlayerExposure)
	totalLineups := 0

	for i := range results {
		r := &results[i]
		if r.Skipped {
			report.GamesSkipped++
			report.Warnings = append(report.Warnings, fmt.Sprintf("game %s skipped: %s", r.GameID, r.SkipReason))
			continue
		}
		report.GamesEvaluated++
		totalScore += r.TopScore

		for _, lineup := range r.lineups {
			totalLineups++
			for _, p := range lineup.Players() {
				e, ok := exposure[p.Name]
				if !ok {
					e = &PlayerExposure{Name: p.Name, Team: p.Team, Position: p.Position}
					exposure[p.Name] = e
				}
				e.Lineups++
			}
		}
	}

	if report.GamesEvaluated > 0 {
		report.AverageTopScore = totalScore / float64(report.GamesEvaluated)
	}

	report.Exposure = make([]PlayerExposure, 0, len(exposure))
	for _, e := range exposure {
		if totalLineups > 0 {
			e.Percent = float64(e.Lineups) / float64(totalLineups) * 100
		}
		report.Exposure = append(report.Exposure, *e)
	}
	sort.Slice(report.Exposure, func(i, j int) bool {
		if report.Exposure[i].Lineups != report.Exposure[j].Lineups {
			return report.Exposure[i].Lineups > report.Exposure[j].Lineups
		}
		return report.Exposure[i].Name < report.Exposure[j].Name
	})

	return report
}
