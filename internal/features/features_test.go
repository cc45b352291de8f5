package features

import (
	"math"
	"testing"

	"github.com/shouldibunk/bunkd/internal/domain"
)

const eps = 1e-9

func TestNormalize(t *testing.T) {
	// attendance 89, proximity 0.1 -> 3 days, syllabus 100, performance 85
	in := domain.PredictionInput{
		AttendancePercentage: 89,
		ExamProximity:        0.1,
		SyllabusCompletion:   100,
		PastPerformance:      85,
	}

	v := Normalize(in)

	if math.Abs(v.AttendanceNormalized-0.89) > eps {
		t.Errorf("attendance_normalized = %v, want 0.89", v.AttendanceNormalized)
	}
	if math.Abs(v.ExamUrgency-0.25) > eps {
		t.Errorf("exam_urgency = %v, want 0.25 (1/(3+1))", v.ExamUrgency)
	}
	if math.Abs(v.SyllabusNormalized-1.0) > eps {
		t.Errorf("syllabus_normalized = %v, want 1.0", v.SyllabusNormalized)
	}
	if math.Abs(v.PerformanceNormalized-0.85) > eps {
		t.Errorf("performance_normalized = %v, want 0.85", v.PerformanceNormalized)
	}
	if math.Abs(v.AttendanceSyllabusInteraction-0.89) > eps {
		t.Errorf("interaction = %v, want 0.89", v.AttendanceSyllabusInteraction)
	}
	if math.Abs(v.ExamPreparationScore-0.1) > eps {
		t.Errorf("exam_preparation_score = %v, want 0.1 (1.0*3/30)", v.ExamPreparationScore)
	}
}

func TestNormalizeNoExamSentinel(t *testing.T) {
	in := domain.PredictionInput{
		AttendancePercentage: 80,
		ExamProximity:        domain.NoExamSentinel,
		SyllabusCompletion:   50,
		PastPerformance:      70,
	}

	v := Normalize(in)

	// No exam maps to 0 days: urgency collapses to 1, prep score to 0.
	if math.Abs(v.ExamUrgency-1.0) > eps {
		t.Errorf("exam_urgency = %v, want 1.0 for no-exam sentinel", v.ExamUrgency)
	}
	if v.ExamPreparationScore != 0 {
		t.Errorf("exam_preparation_score = %v, want 0 for no-exam sentinel", v.ExamPreparationScore)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	in := domain.PredictionInput{
		AttendancePercentage: 72.5,
		ExamProximity:        0.42,
		SyllabusCompletion:   61,
		PastPerformance:      78,
	}

	a := Normalize(in)
	b := Normalize(in)
	if a != b {
		t.Errorf("Normalize is not deterministic: %+v vs %+v", a, b)
	}
}

func TestValuesOrderMatchesNames(t *testing.T) {
	if len(Names) != FeatureCount {
		t.Fatalf("expected %d feature names, got %d", FeatureCount, len(Names))
	}

	v := Normalize(domain.PredictionInput{
		AttendancePercentage: 50,
		ExamProximity:        0.5,
		SyllabusCompletion:   50,
		PastPerformance:      50,
	})

	vals := v.Values()
	if len(vals) != FeatureCount {
		t.Fatalf("expected %d values, got %d", FeatureCount, len(vals))
	}
	if vals[0] != v.AttendanceNormalized || vals[5] != v.ExamPreparationScore {
		t.Error("Values() order does not match canonical feature order")
	}
}

func TestDaysUntilExamMapping(t *testing.T) {
	tests := []struct {
		proximity float64
		wantDays  int
		wantExam  bool
	}{
		{0.01, 1, true}, // rounds to 0, floored to 1
		{0.1, 3, true},
		{0.5, 15, true},
		{0.9, 27, true},
		{1.0, 0, false}, // sentinel
	}

	for _, tt := range tests {
		in := domain.PredictionInput{ExamProximity: tt.proximity}
		if got := in.DaysUntilExam(); got != tt.wantDays {
			t.Errorf("proximity %v: days = %d, want %d", tt.proximity, got, tt.wantDays)
		}
		if got := in.HasUpcomingExam(); got != tt.wantExam {
			t.Errorf("proximity %v: hasExam = %v, want %v", tt.proximity, got, tt.wantExam)
		}
	}
}
