// Package explain produces the human-readable narrative attached to every
// prediction. Purely descriptive: it never affects the decision and is
// identical regardless of which backend scored the input.
package explain

import (
	"fmt"
	"strings"

	"github.com/shouldibunk/bunkd/internal/domain"
)

// Generate builds the three-clause explanation (attendance tier,
// exam-proximity tier, syllabus tier) joined with "; ".
// Deterministic for identical input.
func Generate(in domain.PredictionInput) string {
	clauses := []string{
		attendanceClause(in.AttendancePercentage),
		examClause(in.DaysUntilExam(), in.HasUpcomingExam()),
		syllabusClause(in.SyllabusCompletion),
	}
	return strings.Join(clauses, "; ")
}

func attendanceClause(attendance float64) string {
	switch {
	case attendance >= 85:
		return fmt.Sprintf("good attendance (%.0f%%)", attendance)
	case attendance >= 75:
		return fmt.Sprintf("moderate attendance (%.0f%%)", attendance)
	default:
		return fmt.Sprintf("low attendance (%.0f%%)", attendance)
	}
}

func examClause(days int, hasExam bool) string {
	switch {
	case !hasExam:
		return "no upcoming exams scheduled"
	case days <= 1:
		return "exam is today or tomorrow - critical"
	case days <= 2:
		return fmt.Sprintf("exam is only %d days away - urgent", days)
	case days <= 5:
		return fmt.Sprintf("exam is only %d days away - high risk", days)
	case days <= 10:
		return fmt.Sprintf("exam is %d days away - moderate risk", days)
	default:
		return fmt.Sprintf("exam is %d days away - safe distance", days)
	}
}

func syllabusClause(syllabus float64) string {
	switch {
	case syllabus >= 80:
		return fmt.Sprintf("good syllabus progress (%.0f%%)", syllabus)
	case syllabus >= 60:
		return fmt.Sprintf("moderate syllabus progress (%.0f%%)", syllabus)
	default:
		return fmt.Sprintf("low syllabus progress (%.0f%%)", syllabus)
	}
}
