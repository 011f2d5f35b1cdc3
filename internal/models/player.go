package models

// Position is the closed vocabulary of showdown-eligible positions.
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionK   Position = "K"
	PositionDST Position = "DST"
)

// ValidPositions lists every position a pool player may carry.
var ValidPositions = map[Position]bool{
	PositionQB:  true,
	PositionRB:  true,
	PositionWR:  true,
	PositionTE:  true,
	PositionK:   true,
	PositionDST: true,
}

// ScoringMode selects which projection scenario the solver optimizes for.
type ScoringMode string

const (
	ScoringModeMean    ScoringMode = "mean"
	ScoringModeCeiling ScoringMode = "ceiling"
)

// Player is one pool entry for a single slate. Instances are built once per
// optimization or backtest run and never mutated during a solve.
type Player struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Team             string             `json:"team"`
	Opponent         string             `json:"opponent"`
	Position         Position           `json:"position"`
	Salary           int                `json:"salary"`
	MeanScore        float64            `json:"mean_score"`
	CeilingScore     float64            `json:"ceiling_score"`
	OwnershipFlex    float64            `json:"ownership_flex"`
	OwnershipCaptain float64            `json:"ownership_captain"`
	Correlations     map[string]float64 `json:"correlations,omitempty"`
}

// Score returns the projection for the requested scenario.
func (p Player) Score(mode ScoringMode) float64 {
	if mode == ScoringModeCeiling {
		return p.CeilingScore
	}
	return p.MeanScore
}

// CorrelationWith returns the signed correlation coefficient between this
// player and another, 0 when unknown.
func (p Player) CorrelationWith(otherID string) float64 {
	if p.Correlations == nil {
		return 0
	}
	return p.Correlations[otherID]
}
