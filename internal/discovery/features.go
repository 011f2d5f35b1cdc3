package discovery

import (
	"github.com/jstittsworth/showdown-optimizer/internal/models"
)

// featureSet is one candidate regression design: a name for the resulting
// model and the columns its matrix carries.
type featureSet struct {
	name     string
	source   string
	features []models.StatName
}

var rawFeatureNames = []models.StatName{
	models.StatPassYards,
	models.StatPassTDs,
	models.StatInterceptions,
	models.StatRushYards,
	models.StatRushTDs,
	models.StatReceptions,
	models.StatRecYards,
	models.StatRecTDs,
	models.StatFumblesLost,
	models.StatTwoPointConv,
}

var advancedFeatureNames = []models.StatName{
	models.StatYardsPerAttempt,
	models.StatYardsPerTarget,
	models.StatTargetShare,
	models.StatAirYards,
	models.StatRedZoneTouches,
	models.StatSnapShare,
}

var correlationFeatureNames = []models.StatName{
	models.StatQBPassYards,
	models.StatQBPassTDs,
	models.StatTopTeammateRecYards,
	models.StatTopTeammateCatches,
}

// candidateSets are the regression designs a discovery cycle attempts, in
// order: raw box score only, raw plus advanced metrics, raw plus teammate
// game-script features.
func candidateSets() []featureSet {
	extended := append(append([]models.StatName{}, rawFeatureNames...), advancedFeatureNames...)
	correlated := append(append([]models.StatName{}, rawFeatureNames...), correlationFeatureNames...)

	return []featureSet{
		{name: "raw-stats-ols", source: "ols regression over raw box-score stats", features: rawFeatureNames},
		{name: "advanced-stats-ols", source: "ols regression over raw plus advanced metrics", features: extended},
		{name: "game-script-ols", source: "ols regression with teammate correlation features", features: correlated},
	}
}

// PlayerFeatures builds the full feature map for one player-game: raw stats,
// advanced stats, per-team context metrics, and the teammate-correlation
// features derived from the same game's roster.
func PlayerFeatures(game *models.HistoricalGame, rec models.HistoricalPlayerRecord) map[models.StatName]float64 {
	features := make(map[models.StatName]float64, len(rec.Stats)+len(rec.AdvancedStats)+8)
	for k, v := range rec.Stats {
		features[k] = v
	}
	for k, v := range rec.AdvancedStats {
		features[k] = v
	}
	if game.Context.TeamMetrics != nil {
		for k, v := range game.Context.TeamMetrics[rec.Team] {
			if _, present := features[k]; !present {
				features[k] = v
			}
		}
	}

	if qb, ok := teamQuarterback(game, rec.Team); ok && qb.Name != rec.Name {
		features[models.StatQBPassYards] = qb.Stats[models.StatPassYards]
		features[models.StatQBPassTDs] = qb.Stats[models.StatPassTDs]
	}
	if mate, ok := topSalariedTeammate(game, rec); ok {
		features[models.StatTopTeammateRecYards] = mate.Stats[models.StatRecYards]
		features[models.StatTopTeammateCatches] = mate.Stats[models.StatReceptions]
	}

	return features
}

// PredictPoints applies a weight vector to one player-game.
func PredictPoints(w models.StatWeights, game *models.HistoricalGame, rec models.HistoricalPlayerRecord) float64 {
	return w.Score(PlayerFeatures(game, rec))
}

// teamQuarterback picks the team's primary passer: the QB with the most
// passing yards in this game.
func teamQuarterback(game *models.HistoricalGame, team string) (models.HistoricalPlayerRecord, bool) {
	best := models.HistoricalPlayerRecord{}
	found := false
	for _, rec := range game.Players {
		if rec.Team != team || rec.Position != models.PositionQB {
			continue
		}
		if !found || rec.Stats[models.StatPassYards] > best.Stats[models.StatPassYards] {
			best = rec
			found = true
		}
	}
	return best, found
}

// topSalariedTeammate picks the highest-salaried teammate other than the
// player, falling back on actual points when salaries are absent. The team's
// primary passer is skipped: it already feeds the qb features, and a passer
// here would zero the receiving columns for every skill player it outearns.
func topSalariedTeammate(game *models.HistoricalGame, rec models.HistoricalPlayerRecord) (models.HistoricalPlayerRecord, bool) {
	passer, hasPasser := teamQuarterback(game, rec.Team)

	best := models.HistoricalPlayerRecord{}
	found := false
	for _, other := range game.Players {
		if other.Team != rec.Team || other.Name == rec.Name {
			continue
		}
		if hasPasser && other.Name == passer.Name {
			continue
		}
		if !found || better(other, best) {
			best = other
			found = true
		}
	}
	return best, found
}

func better(a, b models.HistoricalPlayerRecord) bool {
	if a.Salary != b.Salary {
		return a.Salary > b.Salary
	}
	return a.ActualFantasyPoints > b.ActualFantasyPoints
}

// buildMatrix assembles the labeled design for one feature set. Rows are
// player-games with a nonzero actual score; columns follow set ordering.
func buildMatrix(games []models.HistoricalGame, set featureSet) (rows [][]float64, targets []float64) {
	for i := range games {
		game := &games[i]
		for _, rec := range game.Players {
			if rec.ActualFantasyPoints == 0 {
				continue
			}
			features := PlayerFeatures(game, rec)
			row := make([]float64, len(set.features))
			for j, name := range set.features {
				row[j] = features[name]
			}
			rows = append(rows, row)
			targets = append(targets, rec.ActualFantasyPoints)
		}
	}
	return rows, targets
}
