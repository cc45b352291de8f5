// Package features converts raw prediction inputs into the normalized
// feature vector consumed by the statistical model. The trainer and the
// predictor both go through Normalize so the engineering can never drift
// between training and inference.
package features

import (
	"github.com/shouldibunk/bunkd/internal/domain"
)

// FeatureCount is the fixed width of the feature vector.
const FeatureCount = 6

// Names lists the features in canonical order. Model artifacts must declare
// exactly this list.
var Names = []string{
	"attendance_normalized",
	"exam_urgency",
	"syllabus_normalized",
	"performance_normalized",
	"attendance_syllabus_interaction",
	"exam_preparation_score",
}

// Vector is the strongly-typed normalized representation of one input.
// Computed fresh per prediction, never persisted.
type Vector struct {
	AttendanceNormalized          float64
	ExamUrgency                   float64
	SyllabusNormalized            float64
	PerformanceNormalized         float64
	AttendanceSyllabusInteraction float64
	ExamPreparationScore          float64
}

// Normalize derives the feature vector from raw inputs.
// Pure and total over the documented input domain: the same input always
// yields the same vector.
func Normalize(in domain.PredictionInput) Vector {
	days := float64(in.DaysUntilExam())

	att := in.AttendancePercentage / 100
	syl := in.SyllabusCompletion / 100
	perf := in.PastPerformance / 100

	return Vector{
		AttendanceNormalized:          att,
		ExamUrgency:                   1 / (days + 1),
		SyllabusNormalized:            syl,
		PerformanceNormalized:         perf,
		AttendanceSyllabusInteraction: att * syl,
		ExamPreparationScore:          syl * days / 30,
	}
}

// Values returns the vector in canonical feature order.
func (v Vector) Values() []float64 {
	return []float64{
		v.AttendanceNormalized,
		v.ExamUrgency,
		v.SyllabusNormalized,
		v.PerformanceNormalized,
		v.AttendanceSyllabusInteraction,
		v.ExamPreparationScore,
	}
}
