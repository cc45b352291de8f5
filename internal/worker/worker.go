// Package worker provides async prediction processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouldibunk/bunkd/internal/domain"
	"github.com/shouldibunk/bunkd/internal/predict"
)

// Worker processes prediction requests asynchronously from the EventBus.
type Worker struct {
	bus    domain.EventBus
	repo   domain.Repository
	facade *predict.Facade

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, facade *predict.Facade) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		facade: facade,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the prediction request topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicPredictionRequested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started",
		"topic", domain.TopicPredictionRequested,
	)

	return nil
}

// PredictionMessage is the message payload for async prediction requests.
type PredictionMessage struct {
	RequestID            string  `json:"requestId"`
	UserID               string  `json:"userId"`
	Subject              string  `json:"subject"`
	TraceID              string  `json:"traceId"`
	AttendancePercentage float64 `json:"attendance_percentage"`
	ExamProximity        float64 `json:"exam_proximity"`
	SyllabusCompletion   float64 `json:"syllabus_completion"`
	PastPerformance      float64 `json:"past_performance"`
}

// handleMessage evaluates a prediction request through the pipeline.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	// Parse message
	var req PredictionMessage
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		slog.Error("failed to parse prediction message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	traceID := req.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("processing prediction request",
		"request_id", req.RequestID,
		"user_id", req.UserID,
		"trace_id", traceID,
	)

	in := domain.PredictionInput{
		AttendancePercentage: req.AttendancePercentage,
		ExamProximity:        req.ExamProximity,
		SyllabusCompletion:   req.SyllabusCompletion,
		PastPerformance:      req.PastPerformance,
	}

	if err := in.Validate(); err != nil {
		slog.Error("invalid prediction request",
			"request_id", req.RequestID,
			"error", err,
		)
		return err
	}

	// 1. Evaluate through the facade
	result := w.facade.Predict(ctx, in)
	result.ID = req.RequestID
	if result.ID == "" {
		result.ID = uuid.New().String()
	}

	stored := &domain.StoredPrediction{
		ID:        result.ID,
		UserID:    req.UserID,
		Subject:   req.Subject,
		Input:     in,
		Result:    *result,
		CreatedAt: time.Now().UTC(),
	}

	// 2. Save prediction
	if w.repo != nil {
		if err := w.repo.SavePrediction(ctx, stored); err != nil {
			slog.Error("failed to save prediction",
				"request_id", req.RequestID,
				"error", err,
			)
		}
	}

	// 3. Publish result to completed topic
	resultPayload, _ := json.Marshal(stored)
	if err := w.bus.Publish(ctx, domain.TopicPredictionCompleted, resultPayload); err != nil {
		slog.Error("failed to publish prediction result",
			"request_id", req.RequestID,
			"error", err,
		)
	}

	// 4. If high risk, publish to the high-risk topic
	if result.RiskLevel == domain.RiskHigh {
		if err := w.bus.Publish(ctx, domain.TopicPredictionHighRisk, resultPayload); err != nil {
			slog.Error("failed to publish high-risk event",
				"request_id", req.RequestID,
				"error", err,
			)
		}
	}

	slog.Info("prediction request processed",
		"request_id", req.RequestID,
		"user_id", req.UserID,
		"recommendation", result.Recommendation,
		"risk_level", result.RiskLevel,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
