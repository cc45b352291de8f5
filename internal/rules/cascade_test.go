package rules

import (
	"testing"

	"github.com/shouldibunk/bunkd/internal/domain"
)

func newBuiltinCascade(t *testing.T) *Cascade {
	t.Helper()
	c, err := NewCascade()
	if err != nil {
		t.Fatalf("failed to create cascade: %v", err)
	}
	if err := c.LoadRules(BuiltinCascade()); err != nil {
		t.Fatalf("failed to load builtin cascade: %v", err)
	}
	return c
}

func TestCascadeCreation(t *testing.T) {
	c, err := NewCascade()
	if err != nil {
		t.Fatalf("failed to create cascade: %v", err)
	}
	defer c.Close()

	if c.RulesCount() != 0 {
		t.Errorf("expected 0 rules, got %d", c.RulesCount())
	}
}

func TestLoadInvalidRule(t *testing.T) {
	c, _ := NewCascade()
	defer c.Close()

	rule := &domain.CascadeRule{
		ID:         "invalid-rule",
		Name:       "Invalid Rule",
		Expression: "this is not valid CEL !!!",
		Enabled:    true,
	}

	if err := c.LoadRules([]*domain.CascadeRule{rule}); err == nil {
		t.Error("expected error for invalid CEL expression")
	}
}

func TestLoadNonBooleanGuard(t *testing.T) {
	c, _ := NewCascade()
	defer c.Close()

	rule := &domain.CascadeRule{
		ID:         "numeric-rule",
		Name:       "Numeric Rule",
		Expression: "attendance + 1.0",
		Enabled:    true,
	}

	if err := c.ValidateRule(rule); err == nil {
		t.Error("expected error for non-boolean guard expression")
	}
}

func TestBuiltinCascadeTable(t *testing.T) {
	c := newBuiltinCascade(t)
	defer c.Close()

	tests := []struct {
		name           string
		in             Input
		recommendation domain.Recommendation
		confidence     float64
		risk           domain.RiskLevel
	}{
		{
			name:           "NoExamHighAttendance",
			in:             Input{Attendance: 89, SyllabusCompletion: 100, PastPerformance: 85, HasUpcomingExam: false},
			recommendation: domain.RecommendationSafe,
			confidence:     0.85,
			risk:           domain.RiskLow,
		},
		{
			name:           "NoExamModerateAttendance",
			in:             Input{Attendance: 78, SyllabusCompletion: 40, HasUpcomingExam: false},
			recommendation: domain.RecommendationModerate,
			confidence:     0.65,
			risk:           domain.RiskMedium,
		},
		{
			name:           "NoExamLowAttendance",
			in:             Input{Attendance: 60, HasUpcomingExam: false},
			recommendation: domain.RecommendationNotSafe,
			confidence:     0.70,
			risk:           domain.RiskHigh,
		},
		{
			name:           "ExamInTwoDaysOverridesEverything",
			in:             Input{Attendance: 100, DaysUntilExam: 2, SyllabusCompletion: 100, PastPerformance: 100, HasUpcomingExam: true},
			recommendation: domain.RecommendationNotSafe,
			confidence:     0.95,
			risk:           domain.RiskHigh,
		},
		{
			name:           "ExamInThreeDaysPerfectStanding",
			in:             Input{Attendance: 90, DaysUntilExam: 3, SyllabusCompletion: 95, HasUpcomingExam: true},
			recommendation: domain.RecommendationModerate,
			confidence:     0.70,
			risk:           domain.RiskMedium,
		},
		{
			name:           "ExamInThreeDaysAttendanceJustBelow",
			in:             Input{Attendance: 89, DaysUntilExam: 3, SyllabusCompletion: 100, HasUpcomingExam: true},
			recommendation: domain.RecommendationNotSafe,
			confidence:     0.85,
			risk:           domain.RiskHigh,
		},
		{
			name:           "ExamInSevenDaysGoodStanding",
			in:             Input{Attendance: 85, DaysUntilExam: 7, SyllabusCompletion: 80, HasUpcomingExam: true},
			recommendation: domain.RecommendationModerate,
			confidence:     0.65,
			risk:           domain.RiskMedium,
		},
		{
			name:           "ExamInSevenDaysWeakSyllabus",
			in:             Input{Attendance: 85, DaysUntilExam: 7, SyllabusCompletion: 79, HasUpcomingExam: true},
			recommendation: domain.RecommendationNotSafe,
			confidence:     0.75,
			risk:           domain.RiskHigh,
		},
		{
			name:           "DistantExamGoodStanding",
			in:             Input{Attendance: 85, DaysUntilExam: 15, SyllabusCompletion: 70, HasUpcomingExam: true},
			recommendation: domain.RecommendationSafe,
			confidence:     0.80,
			risk:           domain.RiskLow,
		},
		{
			name:           "DistantExamFairStanding",
			in:             Input{Attendance: 75, DaysUntilExam: 15, SyllabusCompletion: 60, HasUpcomingExam: true},
			recommendation: domain.RecommendationModerate,
			confidence:     0.60,
			risk:           domain.RiskMedium,
		},
		{
			name:           "DistantExamPoorStanding",
			in:             Input{Attendance: 60, DaysUntilExam: 20, SyllabusCompletion: 30, HasUpcomingExam: true},
			recommendation: domain.RecommendationNotSafe,
			confidence:     0.70,
			risk:           domain.RiskHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.Evaluate(tt.in)
			if err != nil {
				t.Fatalf("evaluation failed: %v", err)
			}
			if v.Recommendation != tt.recommendation {
				t.Errorf("recommendation = %q, want %q", v.Recommendation, tt.recommendation)
			}
			if v.Confidence != tt.confidence {
				t.Errorf("confidence = %v, want %v", v.Confidence, tt.confidence)
			}
			if v.RiskLevel != tt.risk {
				t.Errorf("risk = %q, want %q", v.RiskLevel, tt.risk)
			}
			if v.RiskLevel != domain.RiskForRecommendation(v.Recommendation) {
				t.Errorf("risk %q inconsistent with recommendation %q", v.RiskLevel, v.Recommendation)
			}
		})
	}
}

func TestCascadeIgnoresPastPerformance(t *testing.T) {
	c := newBuiltinCascade(t)
	defer c.Close()

	base := Input{Attendance: 85, DaysUntilExam: 15, SyllabusCompletion: 70, HasUpcomingExam: true}

	low := base
	low.PastPerformance = 10
	high := base
	high.PastPerformance = 99

	a, _ := c.Evaluate(low)
	b, _ := c.Evaluate(high)

	if a != b {
		t.Errorf("past_performance changed the cascade verdict: %+v vs %+v", a, b)
	}
}

func TestCascadeIdempotent(t *testing.T) {
	c := newBuiltinCascade(t)
	defer c.Close()

	in := Input{Attendance: 82, DaysUntilExam: 4, SyllabusCompletion: 55, PastPerformance: 61, HasUpcomingExam: true}
	first, err := c.Evaluate(in)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := c.Evaluate(in)
		if err != nil {
			t.Fatalf("evaluation failed: %v", err)
		}
		if got != first {
			t.Fatalf("verdict changed between identical calls: %+v vs %+v", got, first)
		}
	}
}

func TestCascadeAlwaysMatches(t *testing.T) {
	c := newBuiltinCascade(t)
	defer c.Close()

	inputs := []Input{
		{},
		{Attendance: 100, DaysUntilExam: 60, SyllabusCompletion: 100, PastPerformance: 100, HasUpcomingExam: true},
		{Attendance: 0, DaysUntilExam: 1, HasUpcomingExam: true},
	}
	for _, in := range inputs {
		if _, err := c.Evaluate(in); err != nil {
			t.Errorf("expected a verdict for %+v, got error: %v", in, err)
		}
	}
}

func TestReloadReplacesRules(t *testing.T) {
	c := newBuiltinCascade(t)
	defer c.Close()

	custom := []*domain.CascadeRule{
		{
			ID:             "always-safe",
			Name:           "Always Safe",
			Priority:       1,
			Expression:     "true",
			Recommendation: domain.RecommendationSafe,
			Confidence:     0.99,
			RiskLevel:      domain.RiskLow,
			Enabled:        true,
		},
	}

	if err := c.ReloadRules(custom); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if c.RulesCount() != 1 {
		t.Fatalf("expected 1 rule after reload, got %d", c.RulesCount())
	}

	v, err := c.Evaluate(Input{Attendance: 10, DaysUntilExam: 1, HasUpcomingExam: true})
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if v.Recommendation != domain.RecommendationSafe {
		t.Errorf("expected custom rule to win, got %q", v.Recommendation)
	}
}
