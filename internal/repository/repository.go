// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shouldibunk/bunkd/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SavePrediction stores a prediction with its request metadata. The full
// result is stored as JSON next to a few promoted columns for querying.
func (r *SQLRepository) SavePrediction(ctx context.Context, p *domain.StoredPrediction) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: prediction id is required", ErrInvalidInput)
	}

	result, err := json.Marshal(p.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		INSERT INTO predictions (
			id, user_id, subject,
			attendance_percentage, exam_proximity, syllabus_completion, past_performance,
			recommendation, risk_level, engine, result, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		p.ID, p.UserID, p.Subject,
		p.Input.AttendancePercentage, p.Input.ExamProximity,
		p.Input.SyllabusCompletion, p.Input.PastPerformance,
		string(p.Result.Recommendation), string(p.Result.RiskLevel), p.Result.Engine,
		string(result), p.CreatedAt,
	)
	return err
}

// GetPrediction retrieves a stored prediction by ID.
func (r *SQLRepository) GetPrediction(ctx context.Context, id string) (*domain.StoredPrediction, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: prediction id is required", ErrInvalidInput)
	}

	query := `
		SELECT id, user_id, subject,
			   attendance_percentage, exam_proximity, syllabus_completion, past_performance,
			   result, created_at
		FROM predictions
		WHERE id = ?
	`

	var p domain.StoredPrediction
	var result string

	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&p.ID, &p.UserID, &p.Subject,
		&p.Input.AttendancePercentage, &p.Input.ExamProximity,
		&p.Input.SyllabusCompletion, &p.Input.PastPerformance,
		&result, &p.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(result), &p.Result); err != nil {
		return nil, fmt.Errorf("failed to parse stored result: %w", err)
	}

	return &p, nil
}

// ListPredictionsByUser retrieves a user's predictions since a point in time,
// newest first.
func (r *SQLRepository) ListPredictionsByUser(ctx context.Context, userID string, since time.Time) ([]*domain.StoredPrediction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, user_id, subject,
			   attendance_percentage, exam_proximity, syllabus_completion, past_performance,
			   result, created_at
		FROM predictions
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []*domain.StoredPrediction
	for rows.Next() {
		var p domain.StoredPrediction
		var result string

		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Subject,
			&p.Input.AttendancePercentage, &p.Input.ExamProximity,
			&p.Input.SyllabusCompletion, &p.Input.PastPerformance,
			&result, &p.CreatedAt,
		); err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(result), &p.Result); err != nil {
			return nil, fmt.Errorf("failed to parse stored result for %s: %w", p.ID, err)
		}
		predictions = append(predictions, &p)
	}

	return predictions, rows.Err()
}

// SaveCascadeRule stores a cascade rule configuration, upserting on
// (id, version).
func (r *SQLRepository) SaveCascadeRule(ctx context.Context, rule *domain.CascadeRule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO cascade_rules (
			id, name, description, version, priority, expression,
			recommendation, confidence, risk_level, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, version) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			priority = excluded.priority,
			expression = excluded.expression,
			recommendation = excluded.recommendation,
			confidence = excluded.confidence,
			risk_level = excluded.risk_level,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.Name, rule.Description, rule.Version,
		rule.Priority, rule.Expression,
		string(rule.Recommendation), rule.Confidence, string(rule.RiskLevel),
		enabled, now, now,
	)
	return err
}

// GetCascadeRule retrieves the latest enabled version of a rule.
func (r *SQLRepository) GetCascadeRule(ctx context.Context, ruleID string) (*domain.CascadeRule, error) {
	if ruleID == "" {
		return nil, fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	query := `
		SELECT id, name, description, version, priority, expression,
			   recommendation, confidence, risk_level, enabled
		FROM cascade_rules
		WHERE id = ? AND enabled = 1
		ORDER BY version DESC
		LIMIT 1
	`

	var rule domain.CascadeRule
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), ruleID).Scan(
		&rule.ID, &rule.Name, &rule.Description, &rule.Version,
		&rule.Priority, &rule.Expression,
		&rule.Recommendation, &rule.Confidence, &rule.RiskLevel, &enabled,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled == 1
	return &rule, nil
}

// ListCascadeRules retrieves all enabled rules in cascade order.
func (r *SQLRepository) ListCascadeRules(ctx context.Context) ([]*domain.CascadeRule, error) {
	query := `
		SELECT id, name, description, version, priority, expression,
			   recommendation, confidence, risk_level, enabled
		FROM cascade_rules
		WHERE enabled = 1
		ORDER BY priority
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.CascadeRule
	for rows.Next() {
		var rule domain.CascadeRule
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Description, &rule.Version,
			&rule.Priority, &rule.Expression,
			&rule.Recommendation, &rule.Confidence, &rule.RiskLevel, &enabled,
		); err != nil {
			return nil, err
		}

		rule.Enabled = enabled == 1
		configs = append(configs, &rule)
	}

	return configs, rows.Err()
}

// SaveTrainingRun records one trainer execution.
func (r *SQLRepository) SaveTrainingRun(ctx context.Context, run *domain.TrainingRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("%w: training run id is required", ErrInvalidInput)
	}

	metrics, err := json.Marshal(run.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	query := `
		INSERT INTO training_runs (id, artifact_path, samples, metrics, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		run.ID, run.ArtifactPath, run.Samples, string(metrics), run.CreatedAt,
	)
	return err
}

// GetLatestTrainingRun retrieves the most recent training run.
func (r *SQLRepository) GetLatestTrainingRun(ctx context.Context) (*domain.TrainingRun, error) {
	query := `
		SELECT id, artifact_path, samples, metrics, created_at
		FROM training_runs
		ORDER BY created_at DESC
		LIMIT 1
	`

	var run domain.TrainingRun
	var metrics string

	err := r.db.QueryRowContext(ctx, r.rebind(query)).Scan(
		&run.ID, &run.ArtifactPath, &run.Samples, &metrics, &run.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(metrics), &run.Metrics); err != nil {
		return nil, fmt.Errorf("failed to parse training metrics: %w", err)
	}

	return &run, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
