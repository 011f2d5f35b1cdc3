package optimizer

import (
	"fmt"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
)

// DefaultRosterSize is the standard showdown format: one captain plus four
// flex players.
const DefaultRosterSize = 5

// ConstraintSet declares everything a single solve must honor. It is
// validated once, before any solver work begins.
type ConstraintSet struct {
	SalaryCap                int                     `json:"salary_cap"`
	RosterSize               int                     `json:"roster_size"`
	MaxPerPosition           map[models.Position]int `json:"max_per_position,omitempty"`
	LockedPlayerIDs          []string                `json:"locked_players,omitempty"`
	ExcludedPlayerIDs        []string                `json:"excluded_players,omitempty"`
	RequireCaptainStack      bool                    `json:"require_captain_stack"`
	RequireOpponentBringBack bool                    `json:"require_opponent_bring_back"`
}

// ValidationError is the hard-failure class for malformed inputs. Everything
// else the solver encounters (including infeasibility) is a normal return.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate fails fast on malformed constraints or a malformed pool.
func (c ConstraintSet) Validate(pool []models.Player) error {
	if c.SalaryCap <= 0 {
		return &ValidationError{Field: "salary_cap", Message: fmt.Sprintf("must be positive, got %d", c.SalaryCap)}
	}
	if c.RosterSize < 2 {
		return &ValidationError{Field: "roster_size", Message: fmt.Sprintf("must be at least 2, got %d", c.RosterSize)}
	}

	excluded := make(map[string]bool, len(c.ExcludedPlayerIDs))
	for _, id := range c.ExcludedPlayerIDs {
		excluded[id] = true
	}
	for _, id := range c.LockedPlayerIDs {
		if excluded[id] {
			return &ValidationError{Field: "locked_players", Message: fmt.Sprintf("player %s is both locked and excluded", id)}
		}
	}

	seen := make(map[string]bool, len(pool))
	byID := make(map[string]models.Player, len(pool))
	for _, p := range pool {
		if p.ID == "" {
			return &ValidationError{Field: "pool", Message: fmt.Sprintf("player %q has an empty id", p.Name)}
		}
		if seen[p.ID] {
			return &ValidationError{Field: "pool", Message: fmt.Sprintf("duplicate player id %s", p.ID)}
		}
		seen[p.ID] = true
		byID[p.ID] = p

		if p.Salary < 0 {
			return &ValidationError{Field: "pool", Message: fmt.Sprintf("player %s has negative salary %d", p.ID, p.Salary)}
		}
		if !models.ValidPositions[p.Position] {
			return &ValidationError{Field: "pool", Message: fmt.Sprintf("player %s has unknown position %q", p.ID, p.Position)}
		}
	}

	// Over-locked salary and over-locked roster counts are deliberately not
	// rejected here: they are infeasibility, which the solver reports as a
	// normal no-solution result.
	for _, id := range c.LockedPlayerIDs {
		if _, ok := byID[id]; !ok {
			return &ValidationError{Field: "locked_players", Message: fmt.Sprintf("player %s not present in pool", id)}
		}
	}

	return nil
}

// rosterSizeOrDefault lets callers leave RosterSize zero for the standard
// five-player format.
func (c ConstraintSet) rosterSizeOrDefault() int {
	if c.RosterSize == 0 {
		return DefaultRosterSize
	}
	return c.RosterSize
}
