package optimizer

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
)

// Solver finds the single highest-scoring feasible lineup for a pool under a
// ConstraintSet, excluding any previously forbidden roster signatures. The
// underlying integer program (binary in-roster and is-captain variables per
// player) is solved exactly by branch and bound: candidates are ordered by
// score and branches are cut when the best completion of a partial roster
// cannot beat the incumbent.
//
// A Solver is single-goroutine state; independent runs get their own
// instance.
type Solver struct {
	pool      []models.Player
	scores    []float64
	cs        ConstraintSet
	mode      models.ScoringMode
	forbidden map[models.LineupSignature]bool
	locked    map[string]bool
	// lockedSuffix[i] counts locked players in pool[i:], for feasibility cuts.
	lockedSuffix []int
	log          *logrus.Entry
}

// NewSolver prepares a solver for one generation run. Excluded players are
// dropped from consideration here; everything else is enforced per solve.
func NewSolver(pool []models.Player, cs ConstraintSet, mode models.ScoringMode) *Solver {
	excluded := make(map[string]bool, len(cs.ExcludedPlayerIDs))
	for _, id := range cs.ExcludedPlayerIDs {
		excluded[id] = true
	}

	eligible := make([]models.Player, 0, len(pool))
	for _, p := range pool {
		if !excluded[p.ID] {
			eligible = append(eligible, p)
		}
	}

	// Score-descending order makes the greedy completion bound tight early.
	// Ties break on salary then id so repeated solves are deterministic.
	sort.Slice(eligible, func(i, j int) bool {
		si, sj := eligible[i].Score(mode), eligible[j].Score(mode)
		if si != sj {
			return si > sj
		}
		if eligible[i].Salary != eligible[j].Salary {
			return eligible[i].Salary < eligible[j].Salary
		}
		return eligible[i].ID < eligible[j].ID
	})

	locked := make(map[string]bool, len(cs.LockedPlayerIDs))
	for _, id := range cs.LockedPlayerIDs {
		locked[id] = true
	}

	scores := make([]float64, len(eligible))
	lockedSuffix := make([]int, len(eligible)+1)
	for i := len(eligible) - 1; i >= 0; i-- {
		scores[i] = eligible[i].Score(mode)
		lockedSuffix[i] = lockedSuffix[i+1]
		if locked[eligible[i].ID] {
			lockedSuffix[i]++
		}
	}

	return &Solver{
		pool:         eligible,
		scores:       scores,
		cs:           cs,
		mode:         mode,
		forbidden:    make(map[models.LineupSignature]bool),
		locked:       locked,
		lockedSuffix: lockedSuffix,
		log:          logger.Get().WithField("component", "solver"),
	}
}

// Forbid cuts an exact roster from every subsequent solve.
func (s *Solver) Forbid(sig models.LineupSignature) {
	s.forbidden[sig] = true
}

// Solve returns the optimal feasible lineup, or ok=false when the program is
// infeasible. Infeasibility is a normal termination condition, never an
// error.
func (s *Solver) Solve() (models.Lineup, bool) {
	rosterSize := s.cs.rosterSizeOrDefault()
	if len(s.pool) < rosterSize {
		return models.Lineup{}, false
	}

	search := &captainSearch{
		solver:     s,
		rosterSize: rosterSize,
		bestScore:  math.Inf(-1),
	}

	for captainIdx := range s.pool {
		if !search.captainViable(captainIdx) {
			continue
		}
		search.run(captainIdx)
	}

	if search.best == nil {
		s.log.WithFields(logrus.Fields{
			"pool_size":     len(s.pool),
			"cuts_in_force": len(s.forbidden),
		}).Debug("No feasible lineup remains")
		return models.Lineup{}, false
	}

	captain := s.pool[search.bestCaptain]
	others := make([]models.Player, len(search.best))
	for i, idx := range search.best {
		others[i] = s.pool[idx]
	}
	return models.Lineup{Captain: captain, Others: others}, true
}

// captainSearch runs one branch-and-bound pass per candidate captain and
// keeps the incumbent across all of them.
type captainSearch struct {
	solver     *Solver
	rosterSize int

	captainIdx    int
	captainLocked bool
	lockedTarget  int

	chosen    []int
	salary    int
	score     float64
	posCounts map[models.Position]int
	lockedIn  int

	bestScore   float64
	best        []int
	bestCaptain int
}

// captainViable applies cheap per-captain cuts before any branching.
func (cs *captainSearch) captainViable(captainIdx int) bool {
	s := cs.solver
	captain := s.pool[captainIdx]

	if captain.Salary > s.cs.SalaryCap {
		return false
	}

	if s.cs.RequireCaptainStack {
		hasPartner := false
		for i, p := range s.pool {
			if i != captainIdx && p.Team == captain.Team {
				hasPartner = true
				break
			}
		}
		if !hasPartner {
			return false
		}
	}

	return true
}

func (cs *captainSearch) run(captainIdx int) {
	s := cs.solver
	captain := s.pool[captainIdx]

	cs.captainIdx = captainIdx
	cs.captainLocked = s.locked[captain.ID]
	// Distinct ids: a repeated lock entry must not inflate the target.
	cs.lockedTarget = len(s.locked)

	cs.chosen = cs.chosen[:0]
	cs.salary = captain.Salary
	cs.score = s.scores[captainIdx] * models.CaptainMultiplier
	cs.posCounts = map[models.Position]int{captain.Position: 1}
	cs.lockedIn = 0
	if cs.captainLocked {
		cs.lockedIn = 1
	}

	if limit, capped := s.cs.MaxPerPosition[captain.Position]; capped && limit < 1 {
		return
	}

	cs.branch(0)
}

// branch explores pool[idx:] for the remaining flex slots.
func (cs *captainSearch) branch(idx int) {
	s := cs.solver
	slotsLeft := (cs.rosterSize - 1) - len(cs.chosen)

	if slotsLeft == 0 {
		cs.accept()
		return
	}

	remaining := len(s.pool) - idx
	if cs.captainIdx >= idx {
		remaining--
	}
	if remaining < slotsLeft {
		return
	}

	lockedLeft := cs.lockedTarget - cs.lockedIn
	if lockedLeft > slotsLeft {
		return
	}
	lockedAhead := s.lockedSuffix[idx]
	if cs.captainLocked && cs.captainIdx >= idx {
		lockedAhead--
	}
	if lockedAhead < lockedLeft {
		return
	}

	if cs.score+cs.upperBound(idx, slotsLeft) <= cs.bestScore {
		return
	}

	if idx == cs.captainIdx {
		cs.branch(idx + 1)
		return
	}

	p := s.pool[idx]
	include := true

	if cs.salary+p.Salary > s.cs.SalaryCap {
		include = false
	}
	if limit, capped := s.cs.MaxPerPosition[p.Position]; include && capped && cs.posCounts[p.Position]+1 > limit {
		include = false
	}

	if include {
		cs.chosen = append(cs.chosen, idx)
		cs.salary += p.Salary
		cs.score += s.scores[idx]
		cs.posCounts[p.Position]++
		if s.locked[p.ID] {
			cs.lockedIn++
		}

		cs.branch(idx + 1)

		cs.chosen = cs.chosen[:len(cs.chosen)-1]
		cs.salary -= p.Salary
		cs.score -= s.scores[idx]
		cs.posCounts[p.Position]--
		if s.locked[p.ID] {
			cs.lockedIn--
		}
	}

	// A locked player can never be skipped.
	if s.locked[p.ID] {
		return
	}
	cs.branch(idx + 1)
}

// upperBound sums the top slotsLeft scores still reachable from idx; the pool
// is score-sorted, so the next eligible entries are the best possible
// completion regardless of salary or position feasibility.
func (cs *captainSearch) upperBound(idx, slotsLeft int) float64 {
	s := cs.solver
	bound := 0.0
	for i := idx; i < len(s.pool) && slotsLeft > 0; i++ {
		if i == cs.captainIdx {
			continue
		}
		bound += s.scores[i]
		slotsLeft--
	}
	return bound
}

// accept checks the leaf-level constraints (locks satisfied, stacking, cut
// rosters) and records a new incumbent when the score strictly improves.
func (cs *captainSearch) accept() {
	s := cs.solver

	if cs.lockedIn != cs.lockedTarget {
		return
	}

	captain := s.pool[cs.captainIdx]
	if s.cs.RequireCaptainStack {
		stacked := false
		broughtBack := false
		for _, idx := range cs.chosen {
			switch s.pool[idx].Team {
			case captain.Team:
				stacked = true
			case captain.Opponent:
				broughtBack = true
			}
		}
		if !stacked {
			return
		}
		// Bring-back only binds alongside an active stack requirement.
		if s.cs.RequireOpponentBringBack && !broughtBack {
			return
		}
	}

	if cs.score <= cs.bestScore {
		return
	}

	others := make([]models.Player, len(cs.chosen))
	for i, idx := range cs.chosen {
		others[i] = s.pool[idx]
	}
	lineup := models.Lineup{Captain: captain, Others: others}
	if s.forbidden[lineup.Signature()] {
		return
	}

	cs.bestScore = cs.score
	cs.bestCaptain = cs.captainIdx
	cs.best = append(cs.best[:0], cs.chosen...)
}
