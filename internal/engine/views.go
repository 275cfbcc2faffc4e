package engine

import (
	"gounc/domain/core"
	"gounc/domain/run"
	"gounc/domain/stage"
	"gounc/domain/uncertainty"
)

// Design returns the cached sample design, or nil
func (e *Engine) Design() *uncertainty.SampleDesign {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.design
}

// Results returns the cached result table, or nil
func (e *Engine) Results() *uncertainty.ResultTable {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.results
}

// DistributionResult returns the cached output distributions, or nil
func (e *Engine) DistributionResult() []uncertainty.OutputDistribution {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.distribution
}

// SensitivityResult returns the cached sensitivity indices, or nil
func (e *Engine) SensitivityResult() *uncertainty.Sensitivity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sensitivity
}

// Status reports every stage in order
func (e *Engine) Status() []stage.Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]stage.Status, 0, len(stage.Order))
	for _, s := range stage.Order {
		out = append(out, *e.status[s])
	}
	return out
}

// Frames exports every available stage output as tables
func (e *Engine) Frames() []uncertainty.Frame {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var frames []uncertainty.Frame
	if e.design != nil {
		frames = append(frames, e.design.Frame())
	}
	if e.results != nil {
		frames = append(frames, e.results.Frame(), e.results.FailureFrame())
	}
	if e.distribution != nil {
		frames = append(frames, uncertainty.DistributionFrame(e.distribution))
	}
	if e.sensitivity != nil {
		frames = append(frames, e.sensitivity.Frame())
		if e.sensitivity.SecondOrder {
			frames = append(frames, e.sensitivity.SecondOrderFrame())
		}
	}
	return frames
}

// Record snapshots the run for persistence. It needs at least a design.
func (e *Engine) Record() (*run.Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.design == nil {
		return nil, core.ErrNoDesign
	}
	rec := &run.Record{
		Manifest:     *run.NewManifest(e.id, e.name, e.design, CodeVersion),
		Distribution: e.distribution,
		Sensitivity:  e.sensitivity,
	}
	for _, s := range stage.Order {
		rec.Stages = append(rec.Stages, *e.status[s])
	}
	if e.results != nil {
		rec.Failures = e.results.Failures()
	}
	return rec, nil
}
