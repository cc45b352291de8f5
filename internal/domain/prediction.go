// Package domain defines the core interfaces and types for bunkd.
package domain

import (
	"math"
	"time"
)

// Recommendation is the three-way bunk-safety decision.
type Recommendation string

const (
	RecommendationSafe     Recommendation = "Safe to Bunk"
	RecommendationModerate Recommendation = "Moderate Risk"
	RecommendationNotSafe  Recommendation = "Not Safe"
)

// RiskLevel is the coarse bucketing that corresponds 1:1 with Recommendation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskForRecommendation returns the risk level paired with a recommendation.
func RiskForRecommendation(rec Recommendation) RiskLevel {
	switch rec {
	case RecommendationSafe:
		return RiskLow
	case RecommendationModerate:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// NoExamSentinel is the exam_proximity value reserved to mean "no upcoming
// exam". All other values in [0,1) map to a day count via DaysUntilExam.
const NoExamSentinel = 1.0

// PredictionInput holds the four raw inputs for a prediction.
// Immutable once constructed; validate before handing to any backend.
type PredictionInput struct {
	AttendancePercentage float64 `json:"attendance_percentage"`
	ExamProximity        float64 `json:"exam_proximity"`
	SyllabusCompletion   float64 `json:"syllabus_completion"`
	PastPerformance      float64 `json:"past_performance"`
}

// Validate checks the documented input ranges.
// Returns a *ValidationError naming the offending field.
func (in PredictionInput) Validate() error {
	if in.AttendancePercentage < 0 || in.AttendancePercentage > 100 {
		return &ValidationError{Field: "attendance_percentage", Message: "must be between 0 and 100"}
	}
	if in.ExamProximity < 0 || in.ExamProximity > 1 {
		return &ValidationError{Field: "exam_proximity", Message: "must be between 0 and 1"}
	}
	if in.SyllabusCompletion < 0 || in.SyllabusCompletion > 100 {
		return &ValidationError{Field: "syllabus_completion", Message: "must be between 0 and 100"}
	}
	if in.PastPerformance < 0 || in.PastPerformance > 100 {
		return &ValidationError{Field: "past_performance", Message: "must be between 0 and 100"}
	}
	return nil
}

// HasUpcomingExam reports whether the input signals a real upcoming exam.
// Proximity 1.0 is the "no upcoming exam" sentinel.
func (in PredictionInput) HasUpcomingExam() bool {
	return in.ExamProximity != NoExamSentinel
}

// DaysUntilExam converts exam proximity to an approximate day count.
// Lower proximity means a closer exam: days = max(1, round(proximity*30)).
// The mapping is lossy and not invertible. Returns 0 when no exam is
// scheduled.
func (in PredictionInput) DaysUntilExam() int {
	if !in.HasUpcomingExam() {
		return 0
	}
	days := int(math.Round(in.ExamProximity * 30))
	if days < 1 {
		days = 1
	}
	return days
}

// Factors echoes the raw inputs back to the caller in day-count form.
type Factors struct {
	Attendance       float64 `json:"attendance"`
	DaysUntilExam    int     `json:"exam_proximity"`
	SyllabusProgress float64 `json:"syllabus_progress"`
	PastPerformance  float64 `json:"past_performance"`
}

// PredictionResult is the output of a single prediction.
// Constructed once per request, never mutated afterwards.
type PredictionResult struct {
	ID             string         `json:"id,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Factors        Factors        `json:"factors"`
	Explanation    string         `json:"explanation"`

	// Probabilities are only set by the statistical backend.
	ProbabilitySafe    *float64 `json:"probability_safe,omitempty"`
	ProbabilityNotSafe *float64 `json:"probability_not_safe,omitempty"`

	// Engine identifies which backend produced the result.
	Engine string `json:"engine"`

	Timestamp time.Time `json:"timestamp"`
}

// Engine name constants.
const (
	EngineStatistical = "statistical"
	EngineRuleCascade = "rule_cascade"
)

// StoredPrediction is a persisted prediction with request metadata.
type StoredPrediction struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Subject   string           `json:"subject"`
	Input     PredictionInput  `json:"input"`
	Result    PredictionResult `json:"result"`
	CreatedAt time.Time        `json:"createdAt"`
}
