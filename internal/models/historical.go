package models

import "time"

// HistoricalPlayerRecord is one player's final line from a completed game.
// Ids are not stable across slates, so backtests address players by name.
type HistoricalPlayerRecord struct {
	Name                string               `json:"name"`
	Team                string               `json:"team"`
	Position            Position             `json:"position"`
	Stats               map[StatName]float64 `json:"stats"`
	AdvancedStats       map[StatName]float64 `json:"advanced_stats,omitempty"`
	ActualFantasyPoints float64              `json:"actual_fantasy_points"`
	Salary              int                  `json:"salary,omitempty"`
}

// GameContext holds the pre-game situational data captured alongside a
// historical game.
type GameContext struct {
	Injuries    []string                        `json:"injuries,omitempty"`
	BettingLine float64                         `json:"betting_line,omitempty"`
	OverUnder   float64                         `json:"over_under,omitempty"`
	TeamMetrics map[string]map[StatName]float64 `json:"team_metrics,omitempty"`
	Notes       string                          `json:"notes,omitempty"`
}

// HistoricalGame is a cached, immutable record of one completed game. Once
// written to the store it is treated as ground truth.
type HistoricalGame struct {
	GameID      string                   `json:"game_id"`
	Description string                   `json:"description"`
	Context     GameContext              `json:"context"`
	Players     []HistoricalPlayerRecord `json:"players"`
	CachedAt    time.Time                `json:"cached_at"`
}
