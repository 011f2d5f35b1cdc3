package models

import (
	"fmt"
	"sort"
	"strings"
)

// CaptainMultiplier is the scoring multiplier applied to the captain slot.
const CaptainMultiplier = 1.5

// LineupSignature is the canonical (captain id, sorted other ids) identity of
// a roster, used to detect and forbid duplicates across a generation run.
type LineupSignature string

// Lineup is one completed showdown roster: exactly one captain plus the
// remaining roster slots.
type Lineup struct {
	Captain Player   `json:"captain"`
	Others  []Player `json:"others"`
}

// Players returns the captain followed by the other rostered players.
func (l Lineup) Players() []Player {
	players := make([]Player, 0, len(l.Others)+1)
	players = append(players, l.Captain)
	players = append(players, l.Others...)
	return players
}

// Size returns the total roster count including the captain.
func (l Lineup) Size() int {
	return len(l.Others) + 1
}

// TotalSalary sums the salaries of every rostered player.
func (l Lineup) TotalSalary() int {
	total := l.Captain.Salary
	for _, p := range l.Others {
		total += p.Salary
	}
	return total
}

// TotalScore returns the lineup's projected points for the given scenario,
// with the captain slot weighted at CaptainMultiplier.
func (l Lineup) TotalScore(mode ScoringMode) float64 {
	total := l.Captain.Score(mode) * CaptainMultiplier
	for _, p := range l.Others {
		total += p.Score(mode)
	}
	return total
}

// ContainsID reports whether the player id appears anywhere in the roster.
func (l Lineup) ContainsID(id string) bool {
	if l.Captain.ID == id {
		return true
	}
	for _, p := range l.Others {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Signature returns the order-independent roster identity.
func (l Lineup) Signature() LineupSignature {
	ids := make([]string, 0, len(l.Others))
	for _, p := range l.Others {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	return LineupSignature(l.Captain.ID + "|" + strings.Join(ids, ","))
}

// StackSignature returns a coarse per-team shape for the roster, e.g.
// "KC:4/BUF:1", with team counts sorted descending then by team name.
func (l Lineup) StackSignature() string {
	counts := make(map[string]int)
	for _, p := range l.Players() {
		counts[p.Team]++
	}

	teams := make([]string, 0, len(counts))
	for team := range counts {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool {
		if counts[teams[i]] != counts[teams[j]] {
			return counts[teams[i]] > counts[teams[j]]
		}
		return teams[i] < teams[j]
	})

	parts := make([]string, 0, len(teams))
	for _, team := range teams {
		parts = append(parts, fmt.Sprintf("%s:%d", team, counts[team]))
	}
	return strings.Join(parts, "/")
}
