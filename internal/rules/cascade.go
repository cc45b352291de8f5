// Package rules provides the CEL-Go based decision cascade.
package rules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/shouldibunk/bunkd/internal/domain"
)

// Cascade is the deterministic, priority-ordered rule engine.
// Rules are compiled once and evaluated top to bottom; the first guard
// returning true decides the outcome. All state is read-only after load,
// so evaluation is safe for concurrent use.
type Cascade struct {
	mu    sync.RWMutex
	env   *cel.Env
	rules []*compiledRule // sorted by ascending priority
}

type compiledRule struct {
	config  *domain.CascadeRule
	program cel.Program
}

// NewCascade creates a cascade engine with the CEL environment for
// bunk-decision variables.
func NewCascade() (*Cascade, error) {
	env, err := cel.NewEnv(
		cel.Variable("attendance", cel.DoubleType),
		cel.Variable("days_until_exam", cel.DoubleType),
		cel.Variable("syllabus_completion", cel.DoubleType),
		cel.Variable("past_performance", cel.DoubleType),
		cel.Variable("has_upcoming_exam", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Cascade{env: env}, nil
}

// ValidateRule compiles a rule without loading it into the cascade.
func (c *Cascade) ValidateRule(cfg *domain.CascadeRule) error {
	if cfg == nil {
		return fmt.Errorf("rule config is required")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	_, err := c.compileRule(cfg)
	return err
}

// LoadRules compiles and installs the enabled rules, replacing any
// previously loaded set. Rules are ordered by ascending priority.
func (c *Cascade) LoadRules(configs []*domain.CascadeRule) error {
	compiled := make([]*compiledRule, 0, len(configs))
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		cr, err := c.compileRule(cfg)
		if err != nil {
			return err
		}
		compiled = append(compiled, cr)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].config.Priority < compiled[j].config.Priority
	})

	c.mu.Lock()
	c.rules = compiled
	c.mu.Unlock()

	return nil
}

// ReloadRules is an alias for LoadRules used by the hot-reload endpoint.
func (c *Cascade) ReloadRules(configs []*domain.CascadeRule) error {
	return c.LoadRules(configs)
}

// Input holds the raw values the cascade evaluates.
type Input struct {
	Attendance         float64
	DaysUntilExam      int
	SyllabusCompletion float64
	PastPerformance    float64
	HasUpcomingExam    bool
}

// Evaluate walks the cascade in priority order and returns the verdict of
// the first matching rule. Returns an error only if no rule matches, which
// cannot happen with the built-in set (its last guard is unconditional).
func (c *Cascade) Evaluate(in Input) (domain.Verdict, error) {
	c.mu.RLock()
	rules := c.rules
	c.mu.RUnlock()

	activation := map[string]any{
		"attendance":          in.Attendance,
		"days_until_exam":     float64(in.DaysUntilExam),
		"syllabus_completion": in.SyllabusCompletion,
		"past_performance":    in.PastPerformance,
		"has_upcoming_exam":   in.HasUpcomingExam,
	}

	for _, rule := range rules {
		out, _, err := rule.program.Eval(activation)
		if err != nil {
			// A broken guard must not decide anything; fall through.
			continue
		}
		matched, ok := out.(types.Bool)
		if !ok || !bool(matched) {
			continue
		}
		return domain.Verdict{
			RuleID:         rule.config.ID,
			Recommendation: rule.config.Recommendation,
			Confidence:     rule.config.Confidence,
			RiskLevel:      rule.config.RiskLevel,
		}, nil
	}

	return domain.Verdict{}, fmt.Errorf("no cascade rule matched")
}

// RulesCount returns the number of loaded rules.
func (c *Cascade) RulesCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rules)
}

// GetLoadedRules returns the currently loaded rule configurations in
// cascade order.
func (c *Cascade) GetLoadedRules() []*domain.CascadeRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.CascadeRule, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r.config)
	}
	return out
}

// Close cleans up the engine.
func (c *Cascade) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = nil
	return nil
}

func (c *Cascade) compileRule(cfg *domain.CascadeRule) (*compiledRule, error) {
	ast, issues := c.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", cfg.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: guard expression must return bool, got %s", cfg.ID, ast.OutputType())
	}

	program, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", cfg.ID, err)
	}

	return &compiledRule{config: cfg, program: program}, nil
}
