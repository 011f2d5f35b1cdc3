package validation

import (
	"math"
	"sort"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
)

const p50HalfWidth = 0.6744897501960817 // z at the 75th percentile

// BuildCalibrationReport derives accuracy and distributional-calibration
// metrics from paired predictions and actuals. The predictive distribution
// is Gaussian: each prediction is the mean, sigma the model's residual
// standard deviation. CRPS, the PIT KS statistic, and P50 coverage are all
// computed from that distribution directly.
func BuildCalibrationReport(predicted, actual []float64, sigma float64) models.CalibrationReport {
	report := models.CalibrationReport{SampleCount: len(predicted)}
	if len(predicted) == 0 {
		return report
	}

	absSum, sqSum := 0.0, 0.0
	for i := range predicted {
		diff := predicted[i] - actual[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
	}
	n := float64(len(predicted))
	report.MAE = absSum / n
	report.RMSE = math.Sqrt(sqSum / n)

	if sigma <= 0 {
		// Degenerate predictive spread; fall back on the empirical residual
		// scale so the distributional metrics stay defined.
		sigma = report.RMSE
		if sigma <= 0 {
			sigma = 1e-6
		}
	}

	crpsSum := 0.0
	pit := make([]float64, len(predicted))
	covered := 0
	for i := range predicted {
		z := (actual[i] - predicted[i]) / sigma
		crpsSum += gaussianCRPS(z, sigma)
		pit[i] = normCDF(z)
		if math.Abs(z) <= p50HalfWidth {
			covered++
		}
	}
	report.CRPS = crpsSum / n
	report.P50Coverage = float64(covered) / n
	report.PITKSStat = ksAgainstUniform(pit)

	return report
}

// gaussianCRPS is the closed-form continuous ranked probability score for a
// normal forecast, expressed via the standardized residual z.
func gaussianCRPS(z, sigma float64) float64 {
	return sigma * (z*(2*normCDF(z)-1) + 2*normPDF(z) - 1/math.Sqrt(math.Pi))
}

func normCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

func normPDF(z float64) float64 {
	return math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
}

// ksAgainstUniform is the Kolmogorov-Smirnov statistic of the PIT sample
// against Uniform(0,1); near zero means well calibrated.
func ksAgainstUniform(pit []float64) float64 {
	if len(pit) == 0 {
		return 0
	}
	sorted := make([]float64, len(pit))
	copy(sorted, pit)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	maxDist := 0.0
	for i, u := range sorted {
		upper := float64(i+1)/n - u
		lower := u - float64(i)/n
		if upper > maxDist {
			maxDist = upper
		}
		if lower > maxDist {
			maxDist = lower
		}
	}
	return maxDist
}
