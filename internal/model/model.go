package model

import (
	"math"

	"github.com/shouldibunk/bunkd/internal/domain"
	"github.com/shouldibunk/bunkd/internal/features"
)

// Probability thresholds mapping the classifier output to risk buckets.
const (
	safeThreshold     = 0.7
	moderateThreshold = 0.4
)

// No-exam adjustment parameters. "No upcoming exam" has no clean encoding
// in the trained feature set, so when the caller signals it explicitly the
// probability gets a bounded boost.
const (
	noExamBoostFloor = 0.3
	noExamBoost      = 0.2
	noExamBoostCap   = 0.9
)

// Predictor scores inputs with a trained logistic classifier.
// All fields are read-only after construction, so it is safe for
// concurrent use.
type Predictor struct {
	artifact *domain.ModelArtifact
}

// NewPredictor wraps a validated artifact.
func NewPredictor(artifact *domain.ModelArtifact) *Predictor {
	return &Predictor{artifact: artifact}
}

// Load reads the artifact at path and constructs a predictor.
// Returns domain.ErrModelUnavailable (wrapped) on any load failure.
func Load(path string) (*Predictor, error) {
	artifact, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	return NewPredictor(artifact), nil
}

// Artifact returns the loaded model bundle.
func (p *Predictor) Artifact() *domain.ModelArtifact {
	return p.artifact
}

// ProbabilitySafe scores the input and returns the probability that
// skipping is safe, in [0,1]. Pure: identical inputs yield identical
// probabilities for a given artifact.
func (p *Predictor) ProbabilitySafe(in domain.PredictionInput) float64 {
	vec := features.Normalize(in).Values()

	z := p.artifact.Intercept
	for i, v := range vec {
		scaled := (v - p.artifact.Scaler.Mean[i]) / p.artifact.Scaler.Std[i]
		z += p.artifact.Weights[i] * scaled
	}

	return sigmoid(z)
}

// Predict scores the input and maps the probability to the result triple.
func (p *Predictor) Predict(in domain.PredictionInput) *domain.PredictionResult {
	probSafe := p.ProbabilitySafe(in)

	if !in.HasUpcomingExam() && probSafe > noExamBoostFloor {
		probSafe = math.Min(probSafe+noExamBoost, noExamBoostCap)
	}

	rec := bucket(probSafe)
	probNotSafe := 1 - probSafe

	return &domain.PredictionResult{
		Recommendation:     rec,
		Confidence:         round4(math.Max(probSafe, probNotSafe)),
		RiskLevel:          domain.RiskForRecommendation(rec),
		ProbabilitySafe:    ptr(round4(probSafe)),
		ProbabilityNotSafe: ptr(round4(probNotSafe)),
		Engine:             domain.EngineStatistical,
		Factors: domain.Factors{
			Attendance:       in.AttendancePercentage,
			DaysUntilExam:    in.DaysUntilExam(),
			SyllabusProgress: in.SyllabusCompletion,
			PastPerformance:  in.PastPerformance,
		},
	}
}

// bucket maps probability_safe to the three-way recommendation.
func bucket(probSafe float64) domain.Recommendation {
	switch {
	case probSafe >= safeThreshold:
		return domain.RecommendationSafe
	case probSafe >= moderateThreshold:
		return domain.RecommendationModerate
	default:
		return domain.RecommendationNotSafe
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func ptr(v float64) *float64 {
	return &v
}
