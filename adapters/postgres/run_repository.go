package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gounc/domain/core"
	"gounc/domain/run"
	"gounc/domain/uncertainty"
	"gounc/ports"
)

// runRepository implements ports.RunStore on the uncertainty_runs table
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new Postgres run store
func NewRunRepository(db *sqlx.DB) ports.Repository {
	return &runRepository{db: db}
}

// runRow is the listing projection of a stored run
type runRow struct {
	ID          string    `db:"id"`
	Model       string    `db:"model"`
	Scheme      string    `db:"scheme"`
	Rows        int       `db:"row_count"`
	Failed      int       `db:"failed_rows"`
	Fingerprint string    `db:"fingerprint"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r runRow) summary() run.Summary {
	return run.Summary{
		RunID:       core.RunID(r.ID),
		Model:       r.Model,
		Scheme:      uncertainty.Scheme(r.Scheme),
		Rows:        r.Rows,
		Failed:      r.Failed,
		Fingerprint: core.Hash(r.Fingerprint),
		CreatedAt:   core.NewTimestamp(r.CreatedAt.UTC()),
	}
}

// Save upserts rec by run ID
func (r *runRepository) Save(ctx context.Context, rec *run.Record) error {
	if err := rec.Manifest.Validate(); err != nil {
		return err
	}
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}
	sum := rec.Summarize()

	query := `INSERT INTO uncertainty_runs (
		id, model, scheme, row_count, failed_rows, fingerprint, record, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8
	)
	ON CONFLICT (id) DO UPDATE SET
		model = EXCLUDED.model,
		scheme = EXCLUDED.scheme,
		row_count = EXCLUDED.row_count,
		failed_rows = EXCLUDED.failed_rows,
		fingerprint = EXCLUDED.fingerprint,
		record = EXCLUDED.record,
		updated_at = NOW()`

	_, err = r.db.ExecContext(ctx, query,
		sum.RunID.String(), sum.Model, string(sum.Scheme), sum.Rows, sum.Failed,
		sum.Fingerprint.String(), recordJSON, sum.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", sum.RunID, err)
	}
	return nil
}

// Get loads the full record of id
func (r *runRepository) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	var recordJSON []byte
	err := r.db.QueryRowContext(ctx, `SELECT record FROM uncertainty_runs WHERE id = $1`, id.String()).Scan(&recordJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	var rec run.Record
	if err := json.Unmarshal(recordJSON, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}
	return &rec, nil
}

// List returns run summaries, newest first
func (r *runRepository) List(ctx context.Context, limit int) ([]run.Summary, error) {
	query := `SELECT id, model, scheme, row_count, failed_rows, fingerprint, created_at
		FROM uncertainty_runs
		ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	out := make([]run.Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.summary())
	}
	return out, nil
}

// Delete removes the run with id
func (r *runRepository) Delete(ctx context.Context, id core.RunID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM uncertainty_runs WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	return nil
}

// SaveFrames upserts frames of id in one transaction
func (r *runRepository) SaveFrames(ctx context.Context, id core.RunID, frames []uncertainty.Frame) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO run_frames (run_id, name, frame) VALUES ($1, $2, $3)
	ON CONFLICT (run_id, name) DO UPDATE SET frame = EXCLUDED.frame, created_at = NOW()`
	for _, f := range frames {
		frameJSON, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to marshal frame %s: %w", f.Name, err)
		}
		if _, err := tx.ExecContext(ctx, query, id.String(), f.Name, frameJSON); err != nil {
			return fmt.Errorf("failed to save frame %s of run %s: %w", f.Name, id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit frames of run %s: %w", id, err)
	}
	return nil
}

// Frames loads every frame of id
func (r *runRepository) Frames(ctx context.Context, id core.RunID) ([]uncertainty.Frame, error) {
	var blobs [][]byte
	err := r.db.SelectContext(ctx, &blobs, `SELECT frame FROM run_frames WHERE run_id = $1 ORDER BY name`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get frames of run %s: %w", id, err)
	}
	if len(blobs) == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	frames := make([]uncertainty.Frame, 0, len(blobs))
	for _, b := range blobs {
		var f uncertainty.Frame
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("failed to unmarshal frame of run %s: %w", id, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}
