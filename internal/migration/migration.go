package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"gounc/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// step is one idempotent schema statement
type step struct {
	name string
	sql  string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	steps   []step
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		steps: []step{
			{"create uncertainty_runs table", createRunsTable},
			{"create run_frames table", createFramesTable},
			{"create indexes", createIndexes},
		},
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement can be
// applied repeatedly.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range r.steps {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.DatabaseError("failed to "+s.name, err)
		}
	}
	return nil
}

const createRunsTable = `
	CREATE TABLE IF NOT EXISTS uncertainty_runs (
		id UUID PRIMARY KEY,
		model VARCHAR(255) NOT NULL,
		scheme VARCHAR(32) NOT NULL,
		row_count INTEGER NOT NULL,
		failed_rows INTEGER NOT NULL DEFAULT 0,
		fingerprint VARCHAR(64) NOT NULL,
		record JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`

const createFramesTable = `
	CREATE TABLE IF NOT EXISTS run_frames (
		run_id UUID NOT NULL REFERENCES uncertainty_runs(id) ON DELETE CASCADE,
		name VARCHAR(64) NOT NULL,
		frame JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (run_id, name)
	)`

const createIndexes = `
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON uncertainty_runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_model ON uncertainty_runs(model);
	CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON uncertainty_runs(fingerprint)`
