package rules

import "github.com/shouldibunk/bunkd/internal/domain"

// BuiltinCascade returns the default decision cascade. It is loaded at
// startup when the database holds no operator-authored rules.
//
// Priorities group the tiers: 1x no-exam branch, 2x immediate exams,
// 3x very close, 4x close, 5x distant, 60 the unconditional floor.
// past_performance is bound in the CEL environment but deliberately unused
// by the built-ins; operator rules may reference it.
func BuiltinCascade() []*domain.CascadeRule {
	return []*domain.CascadeRule{
		{
			ID:             "no-exam-safe",
			Name:           "No exam, strong attendance",
			Description:    "No upcoming exam and attendance at or above 85%",
			Version:        "1.0.0",
			Priority:       10,
			Expression:     "!has_upcoming_exam && attendance >= 85.0",
			Recommendation: domain.RecommendationSafe,
			Confidence:     0.85,
			RiskLevel:      domain.RiskLow,
			Enabled:        true,
		},
		{
			ID:             "no-exam-moderate",
			Name:           "No exam, borderline attendance",
			Description:    "No upcoming exam and attendance at or above 75%",
			Version:        "1.0.0",
			Priority:       11,
			Expression:     "!has_upcoming_exam && attendance >= 75.0",
			Recommendation: domain.RecommendationModerate,
			Confidence:     0.65,
			RiskLevel:      domain.RiskMedium,
			Enabled:        true,
		},
		{
			ID:             "no-exam-unsafe",
			Name:           "No exam, low attendance",
			Version:        "1.0.0",
			Priority:       12,
			Expression:     "!has_upcoming_exam",
			Recommendation: domain.RecommendationNotSafe,
			Confidence:     0.70,
			RiskLevel:      domain.RiskHigh,
			Enabled:        true,
		},
		{
			ID:             "exam-immediate",
			Name:           "Exam within 2 days",
			Description:    "Non-negotiable floor: overrides all other factors",
			Version:        "1.0.0",
			Priority:       20,
			Expression:     "has_upcoming_exam && days_until_exam <= 2.0",
			Recommendation: domain.RecommendationNotSafe,
			Confidence:     0.95,
			RiskLevel:      domain.RiskHigh,
			Enabled:        true,
		},
		{
			ID:             "exam-very-close-prepared",
			Name:           "Exam within 5 days, near-perfect standing",
			Version:        "1.0.0",
			Priority:       30,
			Expression:     "has_upcoming_exam && days_until_exam <= 5.0 && attendance >= 90.0 && syllabus_completion >= 95.0",
			Recommendation: domain.RecommendationModerate,
			Confidence:     0.70,
			RiskLevel:      domain.RiskMedium,
			Enabled:        true,
		},
		{
			ID:             "exam-very-close",
			Name:           "Exam within 5 days",
			Version:        "1.0.0",
			Priority:       31,
			Expression:     "has_upcoming_exam && days_until_exam <= 5.0",
			Recommendation: domain.RecommendationNotSafe,
			Confidence:     0.85,
			RiskLevel:      domain.RiskHigh,
			Enabled:        true,
		},
		{
			ID:             "exam-close-prepared",
			Name:           "Exam within 10 days, good standing",
			Version:        "1.0.0",
			Priority:       40,
			Expression:     "has_upcoming_exam && days_until_exam <= 10.0 && attendance >= 85.0 && syllabus_completion >= 80.0",
			Recommendation: domain.RecommendationModerate,
			Confidence:     0.65,
			RiskLevel:      domain.RiskMedium,
			Enabled:        true,
		},
		{
			ID:             "exam-close",
			Name:           "Exam within 10 days",
			Version:        "1.0.0",
			Priority:       41,
			Expression:     "has_upcoming_exam && days_until_exam <= 10.0",
			Recommendation: domain.RecommendationNotSafe,
			Confidence:     0.75,
			RiskLevel:      domain.RiskHigh,
			Enabled:        true,
		},
		{
			ID:             "exam-distant-safe",
			Name:           "Distant exam, good standing",
			Version:        "1.0.0",
			Priority:       50,
			Expression:     "has_upcoming_exam && attendance >= 85.0 && syllabus_completion >= 70.0",
			Recommendation: domain.RecommendationSafe,
			Confidence:     0.80,
			RiskLevel:      domain.RiskLow,
			Enabled:        true,
		},
		{
			ID:             "exam-distant-moderate",
			Name:           "Distant exam, fair standing",
			Version:        "1.0.0",
			Priority:       51,
			Expression:     "has_upcoming_exam && attendance >= 75.0 && syllabus_completion >= 60.0",
			Recommendation: domain.RecommendationModerate,
			Confidence:     0.60,
			RiskLevel:      domain.RiskMedium,
			Enabled:        true,
		},
		{
			ID:             "default-unsafe",
			Name:           "Default",
			Description:    "Unconditional floor so every input gets a verdict",
			Version:        "1.0.0",
			Priority:       60,
			Expression:     "true",
			Recommendation: domain.RecommendationNotSafe,
			Confidence:     0.70,
			RiskLevel:      domain.RiskHigh,
			Enabled:        true,
		},
	}
}
