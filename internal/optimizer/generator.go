package optimizer

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
)

// GenerateRequest describes one multi-lineup generation run.
type GenerateRequest struct {
	Pool        []models.Player    `json:"pool"`
	Constraints ConstraintSet      `json:"constraints"`
	NumLineups  int                `json:"num_lineups"`
	Mode        models.ScoringMode `json:"mode"`
}

// GenerateLineups produces up to NumLineups feasible, mutually unique
// lineups. Each accepted lineup's signature is cut from the next solve, so
// uniqueness is roster-level across the run. The run stops cleanly, without
// error, as soon as the solver reports infeasibility.
func GenerateLineups(req GenerateRequest) ([]models.Lineup, error) {
	cs := req.Constraints
	cs.RosterSize = cs.rosterSizeOrDefault()
	if err := cs.Validate(req.Pool); err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = models.ScoringModeMean
	}

	log := logger.WithOptimizationContext(uuid.New().String(), string(mode))
	log.WithFields(logrus.Fields{
		"pool_size":   len(req.Pool),
		"salary_cap":  cs.SalaryCap,
		"num_lineups": req.NumLineups,
	}).Info("Starting lineup generation")

	solver := NewSolver(req.Pool, cs, mode)
	lineups := make([]models.Lineup, 0, req.NumLineups)

	for len(lineups) < req.NumLineups {
		lineup, ok := solver.Solve()
		if !ok {
			break
		}
		lineups = append(lineups, lineup)
		solver.Forbid(lineup.Signature())

		log.WithFields(logrus.Fields{
			"lineup_rank":  len(lineups),
			"captain":      lineup.Captain.Name,
			"total_salary": lineup.TotalSalary(),
			"total_score":  lineup.TotalScore(mode),
			"stack_shape":  lineup.StackSignature(),
		}).Debug("Accepted lineup")
	}

	log.WithField("lineups_produced", len(lineups)).Info("Lineup generation completed")
	return lineups, nil
}
