package optimizer

import (
	"github.com/jstittsworth/showdown-optimizer/internal/models"
)

// Duplication-risk and EV constants are heuristic tuning knobs, not
// calibrated contest-payout parameters.
var (
	// evFieldScale approximates how strongly the field multiplies raw
	// duplication odds; it only needs to rank lineups, not price them.
	evFieldScale = 5000.0
)

// LineupMetrics is the evaluator's full derived view of one lineup.
type LineupMetrics struct {
	MeanScore        float64 `json:"mean_score"`
	CeilingScore     float64 `json:"ceiling_score"`
	TotalSalary      int     `json:"total_salary"`
	AverageOwnership float64 `json:"average_ownership"`
	OwnershipProduct float64 `json:"ownership_product"`
	CorrelationScore float64 `json:"correlation_score"`
	ExpectedValue    float64 `json:"expected_value"`
	StackSignature   string  `json:"stack_signature"`
}

// EvaluateLineup computes all derived metrics for a completed lineup. It is
// pure: the same lineup always yields identical metrics.
func EvaluateLineup(l models.Lineup) LineupMetrics {
	metrics := LineupMetrics{
		MeanScore:      l.TotalScore(models.ScoringModeMean),
		CeilingScore:   l.TotalScore(models.ScoringModeCeiling),
		TotalSalary:    l.TotalSalary(),
		StackSignature: l.StackSignature(),
	}

	// Captain slot uses captain-slot ownership; flex slots use flex
	// ownership. Percentages become fractions for the product.
	ownershipSum := l.Captain.OwnershipCaptain
	ownershipProduct := fraction(l.Captain.OwnershipCaptain)
	for _, p := range l.Others {
		ownershipSum += p.OwnershipFlex
		ownershipProduct *= fraction(p.OwnershipFlex)
	}
	metrics.AverageOwnership = ownershipSum / float64(l.Size())
	metrics.OwnershipProduct = ownershipProduct

	players := l.Players()
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			metrics.CorrelationScore += pairCorrelation(players[i], players[j])
		}
	}

	// Reward ceiling, discount by estimated duplication risk. The transform
	// is monotonically decreasing in the ownership product; the constant is
	// a ranking knob only.
	metrics.ExpectedValue = metrics.CeilingScore / (1.0 + evFieldScale*ownershipProduct)

	return metrics
}

func fraction(ownershipPct float64) float64 {
	if ownershipPct < 0 {
		return 0
	}
	return ownershipPct / 100.0
}

// pairCorrelation prefers an explicit coefficient from either side of the
// pair; the mapping is not required to be symmetric upstream.
func pairCorrelation(a, b models.Player) float64 {
	if c := a.CorrelationWith(b.ID); c != 0 {
		return c
	}
	return b.CorrelationWith(a.ID)
}
