package models

// StatName identifies one statistical feature a scoring model can weight.
type StatName string

// Raw box-score stats.
const (
	StatPassYards     StatName = "pass_yards"
	StatPassTDs       StatName = "pass_tds"
	StatInterceptions StatName = "interceptions"
	StatRushYards     StatName = "rush_yards"
	StatRushTDs       StatName = "rush_tds"
	StatReceptions    StatName = "receptions"
	StatRecYards      StatName = "rec_yards"
	StatRecTDs        StatName = "rec_tds"
	StatFumblesLost   StatName = "fumbles_lost"
	StatTwoPointConv  StatName = "two_point_conversions"
)

// Derived and advanced per-player features.
const (
	StatYardsPerAttempt StatName = "yards_per_attempt"
	StatYardsPerTarget  StatName = "yards_per_target"
	StatTargetShare     StatName = "target_share"
	StatAirYards        StatName = "air_yards"
	StatRedZoneTouches  StatName = "red_zone_touches"
	StatSnapShare       StatName = "snap_share"
)

// Teammate-correlation features: the same-game quarterback's production and
// the top-salaried teammate's production, attached to a skill player's row to
// capture shared game script.
const (
	StatQBPassYards          StatName = "qb_pass_yards"
	StatQBPassTDs            StatName = "qb_pass_tds"
	StatTopTeammateRecYards  StatName = "top_teammate_rec_yards"
	StatTopTeammateCatches   StatName = "top_teammate_receptions"
)

// StatIntercept is the regression intercept carried as a pseudo-feature with
// an implicit value of 1 on every row.
const StatIntercept StatName = "intercept"

// StatWeights maps features to signed coefficients. Keys left unset
// contribute zero, so sparse vectors compose cleanly.
type StatWeights map[StatName]float64

// DefaultWeights returns the standard showdown scoring vector that fitted
// coefficients are merged over.
func DefaultWeights() StatWeights {
	return StatWeights{
		StatPassYards:     0.04,
		StatPassTDs:       4.0,
		StatInterceptions: -1.0,
		StatRushYards:     0.1,
		StatRushTDs:       6.0,
		StatReceptions:    1.0,
		StatRecYards:      0.1,
		StatRecTDs:        6.0,
		StatFumblesLost:   -1.0,
		StatTwoPointConv:  2.0,
	}
}

// Score applies the weight vector to a feature map. The intercept weight, if
// present, always contributes once.
func (w StatWeights) Score(features map[StatName]float64) float64 {
	total := w[StatIntercept]
	for name, value := range features {
		if name == StatIntercept {
			continue
		}
		total += w[name] * value
	}
	return total
}

// Clone returns an independent copy of the weight vector.
func (w StatWeights) Clone() StatWeights {
	out := make(StatWeights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// MergeOver lays this vector's coefficients over a base vector, returning a
// new vector. Features the fit never saw keep their base weight.
func (w StatWeights) MergeOver(base StatWeights) StatWeights {
	merged := base.Clone()
	for k, v := range w {
		merged[k] = v
	}
	return merged
}

// AverageWeights returns the element-wise mean of the given vectors. Keys
// missing from a vector count as zero.
func AverageWeights(vectors []StatWeights) StatWeights {
	if len(vectors) == 0 {
		return StatWeights{}
	}

	sums := make(StatWeights)
	for _, v := range vectors {
		for k, val := range v {
			sums[k] += val
		}
	}

	n := float64(len(vectors))
	for k := range sums {
		sums[k] /= n
	}
	return sums
}
