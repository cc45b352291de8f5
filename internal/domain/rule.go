package domain

// CascadeRule defines one tier of the decision cascade.
// Rules are evaluated in ascending Priority order; the first rule whose CEL
// guard expression returns true decides the outcome.
type CascadeRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	// Priority orders the cascade; lower runs first.
	Priority int `json:"priority"`

	// Expression is a CEL guard over attendance, days_until_exam,
	// syllabus_completion, past_performance and has_upcoming_exam.
	// Must evaluate to bool.
	Expression string `json:"expression"`

	// Outcome when the guard matches.
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"`
	RiskLevel      RiskLevel      `json:"riskLevel"`

	Enabled bool `json:"enabled"`
}

// Verdict is the outcome of a cascade evaluation.
type Verdict struct {
	RuleID         string         `json:"ruleId"`
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"`
	RiskLevel      RiskLevel      `json:"riskLevel"`
}
