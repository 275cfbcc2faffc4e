// Package engine is the staged uncertainty workflow: sample, evaluate, then
// summarize distributions and decompose variance, caching each stage and
// invalidating downstream stages when an upstream one is recomputed.
package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"gounc/domain/core"
	"gounc/domain/stage"
	"gounc/domain/uncertainty"
	"gounc/internal/analysis"
	"gounc/internal/evaluation"
	"gounc/internal/sampling"
)

// CodeVersion is recorded in run manifests
const CodeVersion = "0.1.0"

// Options configure an Engine
type Options struct {
	// Name identifies the model in manifests and logs
	Name     string
	Workers  int
	Progress evaluation.ProgressFunc
	Logger   *zap.Logger
}

// sobolKey is the part of analysis.SobolOptions that affects the result
type sobolKey struct {
	secondOrder bool
	resamples   int
	confLevel   float64
	seed        uint64
}

// Engine owns one model, its uncertain inputs and the cached output of every
// stage. Stage operations are serialized; views may be read concurrently.
type Engine struct {
	id     core.RunID
	name   string
	model  uncertainty.Model
	inputs []uncertainty.Parameters
	orch   *evaluation.Orchestrator
	logger *zap.Logger

	runMu sync.Mutex   // serializes stage operations
	mu    sync.RWMutex // guards cached state below

	sampleOpts   sampling.Options
	design       *uncertainty.SampleDesign
	results      *uncertainty.ResultTable
	percentiles  []float64
	distribution []uncertainty.OutputDistribution
	sensKey      sobolKey
	sensitivity  *uncertainty.Sensitivity
	status       map[stage.Name]*stage.Status
}

// New creates an engine for model over inputs. Duplicate parameter names
// across inputs are rejected here.
func New(model uncertainty.Model, opts Options, inputs ...uncertainty.Parameters) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("engine requires a model")
	}
	if _, err := uncertainty.NewParamSpace(inputs...); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := opts.Name
	if name == "" {
		name = "model"
	}

	id := core.NewRunID()
	logger = logger.With(zap.String("run_id", id.String()), zap.String("model", name))

	status := make(map[stage.Name]*stage.Status, len(stage.Order))
	for _, s := range stage.Order {
		status[s] = &stage.Status{Name: s}
	}

	return &Engine{
		id:     id,
		name:   name,
		model:  model,
		inputs: inputs,
		orch: evaluation.New(evaluation.Options{
			Workers:  opts.Workers,
			Progress: opts.Progress,
			Logger:   logger,
		}),
		logger: logger.Named("engine"),
		status: status,
	}, nil
}

// ID identifies this run
func (e *Engine) ID() core.RunID { return e.id }

// Name is the model name
func (e *Engine) Name() string { return e.name }

// MakeSample builds the sample design. Calling it again with the same
// options returns the cached design; different options replace it and drop
// every downstream result.
func (e *Engine) MakeSample(opts sampling.Options) (*uncertainty.SampleDesign, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	opts = opts.WithDefaults()
	e.mu.RLock()
	cached := e.design
	same := cached != nil && opts == e.sampleOpts
	e.mu.RUnlock()
	if same {
		e.logger.Debug("sample design cached", zap.String("design", cached.Fingerprint().Short()))
		return cached, nil
	}

	design, err := sampling.Build(opts, e.inputs...)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.sampleOpts = opts
	e.design = design
	e.complete(stage.Sample, design.Fingerprint())
	e.mu.Unlock()

	e.logger.Info("sample design built",
		zap.String("scheme", string(opts.Scheme)),
		zap.Int("n_base", opts.NSamples),
		zap.Bool("second_order", opts.SecondOrder),
		zap.Int("rows", design.Rows()),
		zap.String("design", design.Fingerprint().Short()))
	return design, nil
}

// Evaluate runs the model on every design row. It always recomputes and
// drops cached distribution and sensitivity results. On failure the
// previous result table, if any, is kept.
func (e *Engine) Evaluate(ctx context.Context) (*uncertainty.ResultTable, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.mu.RLock()
	design := e.design
	e.mu.RUnlock()
	if design == nil {
		return nil, fmt.Errorf("evaluate: %w", core.ErrNoDesign)
	}

	table, err := e.orch.Run(ctx, design, e.model)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.results = table
	e.complete(stage.Evaluate, table.DesignFingerprint())
	e.mu.Unlock()
	return table, nil
}

// AttachResults installs a result table computed elsewhere, e.g. loaded
// from a run store. It is checked against the design only when sensitivity
// is requested.
func (e *Engine) AttachResults(table *uncertainty.ResultTable) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if table == nil {
		return core.ErrNoResults
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.design == nil {
		return fmt.Errorf("attach results: %w", core.ErrNoDesign)
	}
	e.results = table
	e.complete(stage.Evaluate, table.DesignFingerprint())
	return nil
}

// Distribution summarizes every result column, cached per percentile set
func (e *Engine) Distribution(percentiles ...float64) ([]uncertainty.OutputDistribution, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if len(percentiles) == 0 {
		percentiles = analysis.DefaultPercentiles
	}

	e.mu.RLock()
	table := e.results
	cached := e.distribution
	same := cached != nil && slices.Equal(percentiles, e.percentiles)
	e.mu.RUnlock()
	if table == nil {
		return nil, fmt.Errorf("distribution: %w", core.ErrNoResults)
	}
	if same {
		return cached, nil
	}

	dists, err := analysis.Distribution(table, percentiles...)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.percentiles = slices.Clone(percentiles)
	e.distribution = dists
	e.complete(stage.Distribution, table.DesignFingerprint())
	e.mu.Unlock()
	return dists, nil
}

// Sensitivity computes Sobol indices, cached per option set. A result table
// that was not computed on the current design yields core.ErrStaleSensitivity.
func (e *Engine) Sensitivity(opts analysis.SobolOptions) (*uncertainty.Sensitivity, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if opts.Logger == nil {
		opts.Logger = e.logger
	}
	key := sobolKey{opts.SecondOrder, opts.Resamples, opts.ConfLevel, opts.Seed}

	e.mu.RLock()
	design, table := e.design, e.results
	cached := e.sensitivity
	same := cached != nil && key == e.sensKey
	e.mu.RUnlock()
	if design == nil {
		return nil, fmt.Errorf("sensitivity: %w", core.ErrNoDesign)
	}
	if table == nil {
		return nil, fmt.Errorf("sensitivity: %w", core.ErrNoResults)
	}
	if same {
		return cached, nil
	}

	sens, err := analysis.Sobol(design, table, opts)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.sensKey = key
	e.sensitivity = sens
	e.complete(stage.Sensitivity, design.Fingerprint())
	e.mu.Unlock()

	e.logger.Info("sensitivity computed",
		zap.Int("components", len(sens.Components)),
		zap.Int("skipped", len(sens.Skipped)),
		zap.Bool("second_order", sens.SecondOrder))
	return sens, nil
}

// complete marks s recomputed and drops every downstream stage. Callers
// hold e.mu.
func (e *Engine) complete(s stage.Name, fp core.Hash) {
	st := e.status[s]
	st.Ready = true
	st.Version++
	st.Fingerprint = fp
	st.UpdatedAt = core.Now()

	for _, down := range s.Downstream() {
		e.status[down].Ready = false
		switch down {
		case stage.Evaluate:
			e.results = nil
		case stage.Distribution:
			e.distribution = nil
			e.percentiles = nil
		case stage.Sensitivity:
			e.sensitivity = nil
		}
	}
}
