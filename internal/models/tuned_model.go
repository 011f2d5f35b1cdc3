package models

import "time"

// CalibrationReport summarizes how a model's predictions relate to held-out
// actuals. Distributional metrics are computed from the model's Gaussian
// predictive distribution (point estimate plus residual standard deviation),
// not back-derived from MAE.
type CalibrationReport struct {
	MAE         float64 `json:"mae"`
	RMSE        float64 `json:"rmse"`
	CRPS        float64 `json:"crps"`
	PITKSStat   float64 `json:"pit_ks_stat"`
	P50Coverage float64 `json:"p50_coverage"`
	SampleCount int     `json:"sample_count"`
}

// ModelPerformance carries a model's training fit quality and, once
// validated, its held-out performance.
type ModelPerformance struct {
	TrainingMAE   float64            `json:"training_mae"`
	ValidationMAE *float64           `json:"validation_mae,omitempty"`
	Calibration   *CalibrationReport `json:"calibration,omitempty"`
}

// TunedModel is one candidate scoring model produced by a discovery cycle.
type TunedModel struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Weights        StatWeights      `json:"weights"`
	ResidualStdDev float64          `json:"residual_std_dev"`
	Source         string           `json:"source"`
	Performance    ModelPerformance `json:"performance"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ValidationReport is the outcome of one discovery-and-validation cycle.
// Models are ranked ascending by validation MAE, newest first on ties.
type ValidationReport struct {
	TrainingGames   int          `json:"training_games"`
	ValidationGames int          `json:"validation_games"`
	Models          []TunedModel `json:"models"`
	Warnings        []string     `json:"warnings,omitempty"`
}
