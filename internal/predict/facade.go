// Package predict provides the prediction facade: one uniform predict
// contract over the statistical backend and the rule cascade, with
// permanent fallback when the model artifact cannot be loaded.
package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouldibunk/bunkd/internal/domain"
	"github.com/shouldibunk/bunkd/internal/explain"
	"github.com/shouldibunk/bunkd/internal/features"
	"github.com/shouldibunk/bunkd/internal/model"
	"github.com/shouldibunk/bunkd/internal/rules"
)

// State is the facade's backend selection, fixed at construction.
type State string

const (
	// StateMLActive means the statistical backend serves predictions.
	StateMLActive State = "ml_active"

	// StateRuleOnly means the artifact failed to load and the rule
	// cascade serves every prediction until the process restarts.
	StateRuleOnly State = "rule_only"
)

// Facade selects a backend once at construction and exposes the uniform
// predict contract. Immutable after construction; safe for concurrent use.
type Facade struct {
	state       State
	statistical *model.Predictor // nil in rule_only
	cascade     *rules.Cascade
	cache       domain.Cache // optional result cache
	cacheTTL    time.Duration
	version     string
}

// New constructs the facade. The model artifact is loaded exactly once
// here; any failure selects rule-only mode for the process lifetime and
// is logged, never surfaced to callers.
func New(cfg domain.PredictorConfig, cascade *rules.Cascade, cache domain.Cache, version string) *Facade {
	f := &Facade{
		state:    StateRuleOnly,
		cascade:  cascade,
		cache:    cache,
		cacheTTL: time.Duration(cfg.ResultCacheTTLSecs) * time.Second,
		version:  version,
	}

	predictor, err := model.Load(cfg.ModelPath)
	if err != nil {
		slog.Warn("model artifact unavailable, running in rule-only mode",
			"path", cfg.ModelPath,
			"error", err,
		)
		return f
	}

	f.state = StateMLActive
	f.statistical = predictor
	slog.Info("statistical model loaded",
		"path", cfg.ModelPath,
		"model_version", predictor.Artifact().Version,
	)
	return f
}

// State returns the backend selection made at construction.
func (f *Facade) State() State {
	return f.state
}

// Predict runs one prediction. It never returns an error: any backend
// failure, including a panic, is converted into the conservative degraded
// result so the caller always gets a decision.
func (f *Facade) Predict(ctx context.Context, in domain.PredictionInput) (res *domain.PredictionResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("prediction backend panicked", "panic", r, "state", f.state)
			res = degradedResult(in)
		}
	}()

	if cached := f.cacheGet(ctx, in); cached != nil {
		cached.Timestamp = time.Now().UTC()
		return cached
	}

	switch f.state {
	case StateMLActive:
		res = f.statistical.Predict(in)
	default:
		verdict, err := f.cascade.Evaluate(cascadeInput(in))
		if err != nil {
			slog.Error("cascade evaluation failed", "error", err)
			return degradedResult(in)
		}
		res = resultFromVerdict(in, verdict)
	}

	res.Explanation = explain.Generate(in)
	res.Timestamp = time.Now().UTC()

	f.cacheSet(ctx, in, res)
	return res
}

// BatchError records a per-item failure inside a batch.
type BatchError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// PredictBatch runs independent predictions for each item. Items that fail
// validation are recorded as errors and excluded from the results; one bad
// item never aborts the batch. Result order matches the input order of the
// well-formed items.
func (f *Facade) PredictBatch(ctx context.Context, items []domain.PredictionInput) ([]*domain.PredictionResult, []BatchError) {
	results := make([]*domain.PredictionResult, 0, len(items))
	batchErrors := make([]BatchError, 0)

	for i, in := range items {
		if err := in.Validate(); err != nil {
			batchErrors = append(batchErrors, BatchError{Index: i, Error: err.Error()})
			continue
		}
		results = append(results, f.Predict(ctx, in))
	}

	return results, batchErrors
}

// Info describes the active prediction backend for GET /model-info.
type Info struct {
	ModelType         string                  `json:"modelType"`
	Version           string                  `json:"version"`
	Engine            string                  `json:"engine"`
	Features          []string                `json:"features"`
	FeatureImportance map[string]float64      `json:"featureImportance,omitempty"`
	Metrics           *domain.TrainingMetrics `json:"metrics,omitempty"`
	RulesLoaded       int                     `json:"rulesLoaded"`
	Description       string                  `json:"description"`
	InputRanges       map[string]string       `json:"inputRanges"`
	OutputClasses     []string                `json:"outputClasses"`
}

// ModelInfo returns static metadata about the active backend.
func (f *Facade) ModelInfo() *Info {
	info := &Info{
		Version:     f.version,
		Features:    append([]string(nil), features.Names...),
		RulesLoaded: f.cascade.RulesCount(),
		Description: "Binary classifier for predicting whether it is safe to skip a class",
		InputRanges: map[string]string{
			"attendance_percentage": "0-100",
			"exam_proximity":        "0-1 (lower = closer exam, 1.0 = no upcoming exam)",
			"syllabus_completion":   "0-100",
			"past_performance":      "0-100",
		},
		OutputClasses: []string{
			string(domain.RecommendationSafe),
			string(domain.RecommendationModerate),
			string(domain.RecommendationNotSafe),
		},
	}

	if f.state == StateMLActive {
		artifact := f.statistical.Artifact()
		info.ModelType = artifact.ModelType
		info.Engine = domain.EngineStatistical
		info.FeatureImportance = artifact.FeatureImportance
		metrics := artifact.Metrics
		info.Metrics = &metrics
	} else {
		info.ModelType = "rule_cascade"
		info.Engine = domain.EngineRuleCascade
	}

	return info
}

func cascadeInput(in domain.PredictionInput) rules.Input {
	return rules.Input{
		Attendance:         in.AttendancePercentage,
		DaysUntilExam:      in.DaysUntilExam(),
		SyllabusCompletion: in.SyllabusCompletion,
		PastPerformance:    in.PastPerformance,
		HasUpcomingExam:    in.HasUpcomingExam(),
	}
}

func resultFromVerdict(in domain.PredictionInput, v domain.Verdict) *domain.PredictionResult {
	return &domain.PredictionResult{
		Recommendation: v.Recommendation,
		Confidence:     v.Confidence,
		RiskLevel:      v.RiskLevel,
		Engine:         domain.EngineRuleCascade,
		Factors: domain.Factors{
			Attendance:       in.AttendancePercentage,
			DaysUntilExam:    in.DaysUntilExam(),
			SyllabusProgress: in.SyllabusCompletion,
			PastPerformance:  in.PastPerformance,
		},
	}
}

// degradedResult is the conservative answer returned when a backend fails:
// never propagate a raw failure, always return a decision.
func degradedResult(in domain.PredictionInput) *domain.PredictionResult {
	return &domain.PredictionResult{
		Recommendation: domain.RecommendationNotSafe,
		Confidence:     0.5,
		RiskLevel:      domain.RiskHigh,
		Explanation:    domain.DegradedExplanation,
		Engine:         domain.EngineRuleCascade,
		Factors: domain.Factors{
			Attendance:       in.AttendancePercentage,
			DaysUntilExam:    in.DaysUntilExam(),
			SyllabusProgress: in.SyllabusCompletion,
			PastPerformance:  in.PastPerformance,
		},
		Timestamp: time.Now().UTC(),
	}
}

// cacheKey derives a stable key from the four raw inputs. Predictions are
// pure per process, so identical inputs can share a cached result.
func cacheKey(in domain.PredictionInput) string {
	return fmt.Sprintf("predict:%g:%g:%g:%g",
		in.AttendancePercentage, in.ExamProximity, in.SyllabusCompletion, in.PastPerformance)
}

func (f *Facade) cacheGet(ctx context.Context, in domain.PredictionInput) *domain.PredictionResult {
	if f.cache == nil || f.cacheTTL <= 0 {
		return nil
	}

	data, err := f.cache.Get(ctx, cacheKey(in))
	if err != nil || data == nil {
		return nil
	}

	var res domain.PredictionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil
	}
	return &res
}

func (f *Facade) cacheSet(ctx context.Context, in domain.PredictionInput, res *domain.PredictionResult) {
	if f.cache == nil || f.cacheTTL <= 0 {
		return
	}

	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	_ = f.cache.Set(ctx, cacheKey(in), data, f.cacheTTL)
}
