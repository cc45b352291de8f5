// Package stats provides per-user prediction activity tracking.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/shouldibunk/bunkd/internal/domain"
)

// Service tracks how often users request predictions.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
}

// NewService creates a new stats service.
func NewService(repo domain.Repository, cache domain.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// RecordPrediction bumps the rolling request counter for a user and returns
// the count within the window. Backed by the cache counter so it stays cheap
// on the request path; falls back to a repository count when no cache is
// configured.
func (s *Service) RecordPrediction(ctx context.Context, userID string, window time.Duration) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("userID is required")
	}

	if s.cache != nil {
		return s.cache.IncrementCounter(ctx, "predictions:"+userID, window)
	}

	count, err := s.PredictionCount(ctx, userID, window)
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

// PredictionCount returns the number of stored predictions for a user within
// a time window.
func (s *Service) PredictionCount(ctx context.Context, userID string, window time.Duration) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("userID is required")
	}
	if s.repo == nil {
		return 0, fmt.Errorf("no data source available")
	}

	since := time.Now().UTC().Add(-window)
	preds, err := s.repo.ListPredictionsByUser(ctx, userID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list predictions: %w", err)
	}
	return int64(len(preds)), nil
}

// RiskBreakdown returns prediction counts per risk level for a user within
// a time window.
func (s *Service) RiskBreakdown(ctx context.Context, userID string, window time.Duration) (map[domain.RiskLevel]int64, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is required")
	}
	if s.repo == nil {
		return nil, fmt.Errorf("no data source available")
	}

	since := time.Now().UTC().Add(-window)
	preds, err := s.repo.ListPredictionsByUser(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	breakdown := make(map[domain.RiskLevel]int64)
	for _, p := range preds {
		breakdown[p.Result.RiskLevel]++
	}
	return breakdown, nil
}
