package discovery

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// errInsufficientData marks a regression candidate with fewer usable rows
// than coefficients. Callers skip the candidate; the cycle continues.
var errInsufficientData = errors.New("insufficient training rows for regression")

// olsFit holds a fitted ordinary-least-squares model: intercept, one
// coefficient per design column, and the residual spread that seeds the
// model's Gaussian predictive distribution.
type olsFit struct {
	intercept      float64
	coefficients   []float64
	residualStdDev float64
	rows           int
}

// fitOLS solves the least-squares system via QR factorization. The design
// gains an implicit leading intercept column.
func fitOLS(rows [][]float64, targets []float64) (*olsFit, error) {
	n := len(rows)
	if n == 0 || n != len(targets) {
		return nil, errInsufficientData
	}
	p := len(rows[0]) + 1
	if n < p {
		return nil, errInsufficientData
	}

	design := mat.NewDense(n, p, nil)
	response := mat.NewDense(n, 1, nil)
	for i, row := range rows {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
		response.Set(i, 0, targets[i])
	}

	var qr mat.QR
	qr.Factorize(design)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, response); err != nil {
		return nil, fmt.Errorf("degenerate least-squares system: %w", err)
	}

	fit := &olsFit{
		intercept:    beta.At(0, 0),
		coefficients: make([]float64, p-1),
		rows:         n,
	}
	for j := 1; j < p; j++ {
		fit.coefficients[j-1] = beta.At(j, 0)
	}

	residuals := make([]float64, n)
	for i, row := range rows {
		pred := fit.intercept
		for j, v := range row {
			pred += fit.coefficients[j] * v
		}
		residuals[i] = targets[i] - pred
	}
	fit.residualStdDev = stat.StdDev(residuals, nil)
	if math.IsNaN(fit.residualStdDev) || fit.residualStdDev <= 0 {
		// A perfect or single-residual fit still needs a usable predictive
		// spread downstream.
		fit.residualStdDev = 1e-6
	}

	return fit, nil
}

// meanAbsoluteError over paired predictions and actuals.
func meanAbsoluteError(predicted, actual []float64) float64 {
	if len(predicted) == 0 {
		return 0
	}
	total := 0.0
	for i := range predicted {
		total += math.Abs(predicted[i] - actual[i])
	}
	return total / float64(len(predicted))
}
