package ports

import (
	"context"

	"gounc/domain/core"
	"gounc/domain/run"
	"gounc/domain/uncertainty"
)

// RunStore persists run records
type RunStore interface {
	// Save stores rec, replacing any record with the same run ID
	Save(ctx context.Context, rec *run.Record) error

	// Get returns the record of id, or core.ErrRunNotFound
	Get(ctx context.Context, id core.RunID) (*run.Record, error)

	// List returns summaries, newest first, at most limit when limit > 0
	List(ctx context.Context, limit int) ([]run.Summary, error)

	// Delete removes the record of id, or returns core.ErrRunNotFound
	Delete(ctx context.Context, id core.RunID) error
}

// FrameStore persists the tabular stage exports of a run
type FrameStore interface {
	// SaveFrames replaces the frames of id with the same names
	SaveFrames(ctx context.Context, id core.RunID, frames []uncertainty.Frame) error

	// Frames returns every frame of id ordered by name
	Frames(ctx context.Context, id core.RunID) ([]uncertainty.Frame, error)
}

// Repository is a store for both records and frames
type Repository interface {
	RunStore
	FrameStore
}
