package domain

// ModelArtifact is the externally persisted model bundle written by the
// training pipeline and read once by the statistical predictor at startup.
type ModelArtifact struct {
	ModelType    string   `json:"modelType"`
	Version      string   `json:"version"`
	FeatureNames []string `json:"featureNames"`

	// Logistic regression parameters, one weight per feature.
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`

	// Standardization parameters fitted during training.
	Scaler ScalerParams `json:"scaler"`

	FeatureImportance map[string]float64 `json:"featureImportance,omitempty"`
	Metrics           TrainingMetrics    `json:"metrics"`
}

// ScalerParams holds per-feature z-score parameters.
type ScalerParams struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// TrainingMetrics records how the artifact was fitted.
type TrainingMetrics struct {
	TrainAccuracy   float64 `json:"trainAccuracy"`
	TestAccuracy    float64 `json:"testAccuracy"`
	AUC             float64 `json:"auc"`
	TrainingSamples int     `json:"trainingSamples"`
	TestSamples     int     `json:"testSamples"`
	TrainedAt       string  `json:"trainedAt"`
}

// TrainingRun is a persisted record of one trainer execution.
type TrainingRun struct {
	ID           string          `json:"id"`
	ArtifactPath string          `json:"artifactPath"`
	Samples      int             `json:"samples"`
	Metrics      TrainingMetrics `json:"metrics"`
	CreatedAt    string          `json:"createdAt"`
}
