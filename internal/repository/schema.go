package repository

// Schema definitions for the bunkd database.
// Compatible with both SQLite and PostgreSQL.

const schemaPredictions = `
CREATE TABLE IF NOT EXISTS predictions (
    id TEXT PRIMARY KEY,
    user_id TEXT,
    subject TEXT,
    attendance_percentage REAL NOT NULL,
    exam_proximity REAL NOT NULL,
    syllabus_completion REAL NOT NULL,
    past_performance REAL NOT NULL,
    recommendation TEXT NOT NULL,
    risk_level TEXT NOT NULL,
    engine TEXT NOT NULL,
    result TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions(user_id);
CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
CREATE INDEX IF NOT EXISTS idx_predictions_risk ON predictions(risk_level);
`

const schemaCascadeRules = `
CREATE TABLE IF NOT EXISTS cascade_rules (
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT NOT NULL,
    priority INTEGER NOT NULL,
    expression TEXT NOT NULL,
    recommendation TEXT NOT NULL,
    confidence REAL NOT NULL,
    risk_level TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, version)
);

CREATE INDEX IF NOT EXISTS idx_cascade_rules_enabled ON cascade_rules(enabled);
CREATE INDEX IF NOT EXISTS idx_cascade_rules_priority ON cascade_rules(priority);
`

const schemaTrainingRuns = `
CREATE TABLE IF NOT EXISTS training_runs (
    id TEXT PRIMARY KEY,
    artifact_path TEXT NOT NULL,
    samples INTEGER NOT NULL,
    metrics TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_training_runs_created ON training_runs(created_at);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaPredictions,
		schemaCascadeRules,
		schemaTrainingRuns,
	}
}
