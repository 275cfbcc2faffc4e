package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"gounc/domain/core"
	"gounc/domain/run"
	"gounc/domain/uncertainty"
	"gounc/ports"
)

// RunStore keeps run records in memory. Records are stored as JSON so
// callers never share state with the store.
type RunStore struct {
	mu   sync.RWMutex
	runs map[core.RunID][]byte
	sums map[core.RunID]run.Summary
	// frames[id][name] holds the encoded frame
	frames map[core.RunID]map[string][]byte
}

var _ ports.Repository = (*RunStore)(nil)

// NewRunStore creates an empty store
func NewRunStore() *RunStore {
	return &RunStore{
		runs:   make(map[core.RunID][]byte),
		sums:   make(map[core.RunID]run.Summary),
		frames: make(map[core.RunID]map[string][]byte),
	}
}

// Save validates and stores rec
func (s *RunStore) Save(ctx context.Context, rec *run.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Manifest.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", rec.ID(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[rec.ID()] = b
	s.sums[rec.ID()] = rec.Summarize()
	return nil
}

// Get decodes a fresh copy of the stored record
func (s *RunStore) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	b, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}

	var rec run.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &rec, nil
}

// List returns summaries newest first, ties broken by run ID
func (s *RunStore) List(ctx context.Context, limit int) ([]run.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]run.Summary, 0, len(s.sums))
	for _, sum := range s.sums {
		out = append(out, sum)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt.Time(), out[j].CreatedAt.Time()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].RunID > out[j].RunID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes the record of id
func (s *RunStore) Delete(ctx context.Context, id core.RunID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	delete(s.runs, id)
	delete(s.sums, id)
	delete(s.frames, id)
	return nil
}

// SaveFrames stores frames of an existing run
func (s *RunStore) SaveFrames(ctx context.Context, id core.RunID, frames []uncertainty.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded := make(map[string][]byte, len(frames))
	for _, f := range frames {
		b, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to encode frame %s: %w", f.Name, err)
		}
		encoded[f.Name] = b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if s.frames[id] == nil {
		s.frames[id] = make(map[string][]byte)
	}
	for name, b := range encoded {
		s.frames[id][name] = b
	}
	return nil
}

// Frames decodes every frame of id, ordered by name
func (s *RunStore) Frames(ctx context.Context, id core.RunID) ([]uncertainty.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.runs[id]; !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}

	names := make([]string, 0, len(s.frames[id]))
	for name := range s.frames[id] {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]uncertainty.Frame, 0, len(names))
	for _, name := range names {
		var f uncertainty.Frame
		if err := json.Unmarshal(s.frames[id][name], &f); err != nil {
			return nil, fmt.Errorf("failed to decode frame %s: %w", name, err)
		}
		out = append(out, f)
	}
	return out, nil
}
