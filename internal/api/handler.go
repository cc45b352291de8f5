package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shouldibunk/bunkd/internal/domain"
	"github.com/shouldibunk/bunkd/internal/predict"
	"github.com/shouldibunk/bunkd/internal/rules"
	"github.com/shouldibunk/bunkd/internal/stats"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo         domain.Repository
	cache        domain.Cache
	bus          domain.EventBus
	facade       *predict.Facade
	cascade      *rules.Cascade
	stats        *stats.Service
	maxBatchSize int
	version      string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, facade *predict.Facade, cascade *rules.Cascade, maxBatchSize int, version string) *Handler {
	if maxBatchSize <= 0 {
		maxBatchSize = 100
	}
	return &Handler{
		repo:         repo,
		cache:        cache,
		bus:          bus,
		facade:       facade,
		cascade:      cascade,
		stats:        stats.NewService(repo, cache),
		maxBatchSize: maxBatchSize,
		version:      version,
	}
}

// PredictRequest is the request body for POST /predict. The numeric fields
// are pointers so that absent and zero can be told apart during validation.
type PredictRequest struct {
	AttendancePercentage *float64 `json:"attendance_percentage"`
	ExamProximity        *float64 `json:"exam_proximity"`
	SyllabusCompletion   *float64 `json:"syllabus_completion"`
	PastPerformance      *float64 `json:"past_performance"`

	Subject string `json:"subject,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// missingFields lists the required numeric fields absent from the request.
func (r *PredictRequest) missingFields() []string {
	var missing []string
	if r.AttendancePercentage == nil {
		missing = append(missing, "attendance_percentage")
	}
	if r.ExamProximity == nil {
		missing = append(missing, "exam_proximity")
	}
	if r.SyllabusCompletion == nil {
		missing = append(missing, "syllabus_completion")
	}
	if r.PastPerformance == nil {
		missing = append(missing, "past_performance")
	}
	return missing
}

func (r *PredictRequest) input() domain.PredictionInput {
	return domain.PredictionInput{
		AttendancePercentage: *r.AttendancePercentage,
		ExamProximity:        *r.ExamProximity,
		SyllabusCompletion:   *r.SyllabusCompletion,
		PastPerformance:      *r.PastPerformance,
	}
}

// PredictResponse is the response for POST /predict.
type PredictResponse struct {
	domain.PredictionResult
	Metadata struct {
		Subject      string `json:"subject,omitempty"`
		UserID       string `json:"user_id,omitempty"`
		UserLastHour int64  `json:"user_predictions_last_hour,omitempty"`
		ModelVersion string `json:"model_version"`
		TraceID      string `json:"trace_id"`
		TotalMs      int64  `json:"total_ms"`
	} `json:"metadata"`
}

// Predict handles POST /predict requests.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	traceID := GetTraceID(ctx)

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if missing := req.missingFields(); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":          "missing required fields",
			"missing_fields": missing,
		})
		return
	}

	in := req.input()
	if err := in.Validate(); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": verr.Error(),
				"field": verr.Field,
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	if h.facade == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "prediction core not initialized",
		})
		return
	}

	result := h.facade.Predict(ctx, in)
	result.ID = uuid.New().String()

	stored := &domain.StoredPrediction{
		ID:        result.ID,
		UserID:    req.UserID,
		Subject:   req.Subject,
		Input:     in,
		Result:    *result,
		CreatedAt: time.Now().UTC(),
	}

	if h.repo != nil {
		if err := h.repo.SavePrediction(ctx, stored); err != nil {
			slog.Error("failed to save prediction", "id", result.ID, "error", err)
			// The answer matters more than the audit trail; keep going.
		}
	}

	h.publishPredictionEvents(ctx, stored)

	resp := PredictResponse{PredictionResult: *result}
	resp.Metadata.Subject = req.Subject
	resp.Metadata.UserID = req.UserID
	if req.UserID != "" {
		if count, err := h.stats.RecordPrediction(ctx, req.UserID, time.Hour); err == nil {
			resp.Metadata.UserLastHour = count
		}
	}
	resp.Metadata.ModelVersion = h.version
	resp.Metadata.TraceID = traceID
	resp.Metadata.TotalMs = time.Since(start).Milliseconds()

	writeJSON(w, http.StatusOK, resp)
}

// BatchPredictRequest is the request body for POST /batch-predict.
type BatchPredictRequest struct {
	Predictions []PredictRequest `json:"predictions"`
}

// BatchPredictResponse is the response for POST /batch-predict.
type BatchPredictResponse struct {
	Results        []*domain.PredictionResult `json:"results"`
	Errors         []predict.BatchError       `json:"errors"`
	TotalProcessed int                        `json:"total_processed"`
	TotalErrors    int                        `json:"total_errors"`
}

// BatchPredict handles POST /batch-predict requests. Items are independent:
// a malformed item yields a per-index error and never aborts the batch.
func (h *Handler) BatchPredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BatchPredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if len(req.Predictions) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "predictions array is required and must not be empty",
		})
		return
	}
	if len(req.Predictions) > h.maxBatchSize {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":     "batch size exceeds the maximum",
			"max_items": h.maxBatchSize,
		})
		return
	}

	if h.facade == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "prediction core not initialized",
		})
		return
	}

	resp := BatchPredictResponse{
		Results: make([]*domain.PredictionResult, 0, len(req.Predictions)),
		Errors:  make([]predict.BatchError, 0),
	}

	for i, item := range req.Predictions {
		if missing := item.missingFields(); len(missing) > 0 {
			resp.Errors = append(resp.Errors, predict.BatchError{
				Index: i,
				Error: "missing required fields: " + strings.Join(missing, ", "),
			})
			continue
		}

		in := item.input()
		if err := in.Validate(); err != nil {
			resp.Errors = append(resp.Errors, predict.BatchError{Index: i, Error: err.Error()})
			continue
		}

		result := h.facade.Predict(ctx, in)
		result.ID = uuid.New().String()
		resp.Results = append(resp.Results, result)
	}

	resp.TotalProcessed = len(resp.Results)
	resp.TotalErrors = len(resp.Errors)

	writeJSON(w, http.StatusOK, resp)
}

// ModelInfo handles GET /model-info requests.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	if h.facade == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "prediction core not initialized",
		})
		return
	}

	writeJSON(w, http.StatusOK, h.facade.ModelInfo())
}

// Retrain handles POST /retrain. Retraining is an offline concern handled by
// the trainer binary; the endpoint exists so callers get an explicit answer
// instead of a silent success.
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{
		"error": "retraining is not implemented; run the trainer binary and restart the service",
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	initialized := h.facade != nil
	engine := ""
	if initialized {
		engine = string(h.facade.State())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      status,
		"initialized": initialized,
		"engine":      engine,
		"version":     h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// Root returns the service banner.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "bunkd",
		"message": "Should I Bunk? decision service",
		"version": h.version,
		"endpoints": map[string]string{
			"POST /predict":         "single prediction",
			"POST /batch-predict":   "up to 100 predictions per request",
			"GET /model-info":       "active backend metadata",
			"GET /health":           "liveness and dependency status",
			"GET /predictions/{id}": "stored prediction lookup",
			"GET /rules":            "loaded cascade rules",
			"POST /rules":           "create a cascade rule",
			"POST /rules/reload":    "hot-reload rules from the database",
			"POST /retrain":         "not implemented",
		},
	})
}

// GetPrediction retrieves a stored prediction by ID.
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	predID := chi.URLParam(r, "id")

	if predID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "prediction id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	stored, err := h.repo.GetPrediction(ctx, predID)
	if err != nil {
		slog.Error("failed to get prediction", "id", predID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "prediction not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, stored)
}

// ListRules returns all rules currently loaded in the cascade.
// Rules are loaded from the database at startup (built-in set when the
// database has none) and can be reloaded via POST /rules/reload.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	loadedRules := h.cascade.GetLoadedRules()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": loadedRules,
		"count": len(loadedRules),
	})
}

// GetRule retrieves a rule by ID from the loaded cascade.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	for _, rule := range h.cascade.GetLoadedRules() {
		if rule.ID == ruleID {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// CreateRuleRequest is the request body for creating a cascade rule.
type CreateRuleRequest struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Description    string                `json:"description,omitempty"`
	Priority       int                   `json:"priority"`
	Expression     string                `json:"expression"`
	Recommendation domain.Recommendation `json:"recommendation"`
	Confidence     float64               `json:"confidence"`
	RiskLevel      domain.RiskLevel      `json:"riskLevel,omitempty"`
	Enabled        bool                  `json:"enabled"`
}

// CreateRule validates and saves a cascade rule to the database.
// After saving, call POST /rules/reload to hot-reload into the cascade.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, and expression are required",
		})
		return
	}

	switch req.Recommendation {
	case domain.RecommendationSafe, domain.RecommendationModerate, domain.RecommendationNotSafe:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "recommendation must be one of: Safe to Bunk, Moderate Risk, Not Safe",
		})
		return
	}

	if req.Confidence <= 0 || req.Confidence > 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "confidence must be between 0 (exclusive) and 1",
		})
		return
	}

	riskLevel := req.RiskLevel
	if riskLevel == "" {
		riskLevel = domain.RiskForRecommendation(req.Recommendation)
	}

	rule := &domain.CascadeRule{
		ID:             req.ID,
		Name:           req.Name,
		Description:    req.Description,
		Version:        "1.0.0",
		Priority:       req.Priority,
		Expression:     req.Expression,
		Recommendation: req.Recommendation,
		Confidence:     req.Confidence,
		RiskLevel:      riskLevel,
		Enabled:        req.Enabled,
	}

	// Compile the guard before persisting anything.
	if err := h.cascade.ValidateRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveCascadeRule(ctx, rule); err != nil {
			slog.Error("failed to save cascade rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	slog.Info("cascade rule created", "id", rule.ID, "name", rule.Name, "priority", rule.Priority)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"rule":    rule,
		"message": "Rule created. Call POST /rules/reload to apply changes.",
	})
}

// ReloadRules reloads all rules from the database into the cascade.
// Falls back to the built-in set when the database holds no rules, so a
// reload can never leave the cascade empty.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbRules, err := h.repo.ListCascadeRules(ctx)
	if err != nil {
		slog.Error("failed to list rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from database",
		})
		return
	}

	source := "database"
	if len(dbRules) == 0 {
		dbRules = rules.BuiltinCascade()
		source = "builtin"
	}

	if err := h.cascade.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload rules into cascade", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("cascade rules reloaded", "count", len(dbRules), "source", source)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
		"source":  source,
	})
}

// publishPredictionEvents emits the completed event, plus the high-risk
// event when the decision came back high risk. Events are advisory:
// publish failures are logged and swallowed.
func (h *Handler) publishPredictionEvents(ctx context.Context, stored *domain.StoredPrediction) {
	if h.bus == nil {
		return
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		slog.Error("failed to marshal prediction event", "id", stored.ID, "error", err)
		return
	}

	if err := h.bus.Publish(ctx, domain.TopicPredictionCompleted, payload); err != nil {
		slog.Error("failed to publish prediction event", "id", stored.ID, "error", err)
	}

	if stored.Result.RiskLevel == domain.RiskHigh {
		if err := h.bus.Publish(ctx, domain.TopicPredictionHighRisk, payload); err != nil {
			slog.Error("failed to publish high-risk event", "id", stored.ID, "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
