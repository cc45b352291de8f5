package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Prediction history
	SavePrediction(ctx context.Context, p *StoredPrediction) error
	GetPrediction(ctx context.Context, id string) (*StoredPrediction, error)
	ListPredictionsByUser(ctx context.Context, userID string, since time.Time) ([]*StoredPrediction, error)

	// Cascade rule configuration
	SaveCascadeRule(ctx context.Context, rule *CascadeRule) error
	GetCascadeRule(ctx context.Context, ruleID string) (*CascadeRule, error)
	ListCascadeRules(ctx context.Context) ([]*CascadeRule, error)

	// Training run bookkeeping
	SaveTrainingRun(ctx context.Context, run *TrainingRun) error
	GetLatestTrainingRun(ctx context.Context) (*TrainingRun, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
