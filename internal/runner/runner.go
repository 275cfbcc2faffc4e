// Package runner executes declared uncertainty runs end to end and stores
// their records.
package runner

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"gounc/adapters/runspec"
	"gounc/domain/core"
	"gounc/domain/run"
	"gounc/domain/uncertainty"
	"gounc/internal/analysis"
	"gounc/internal/config"
	"gounc/internal/engine"
	"gounc/internal/errors"
	"gounc/internal/evaluation"
	"gounc/internal/sampling"
	"gounc/ports"
)

// Runner builds, executes and persists runs
type Runner struct {
	store    ports.Repository
	defaults config.RunConfig
	logger   *zap.Logger
}

// New creates a runner. store may be nil to skip persistence.
func New(store ports.Repository, defaults config.RunConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{store: store, defaults: defaults, logger: logger.Named("runner")}
}

// Result is a finished run
type Result struct {
	Engine *engine.Engine
	Record *run.Record
}

// Options resolves the sampling and Sobol options of spec against the
// configured defaults
func (r *Runner) Options(spec *runspec.Spec) engine.RunOptions {
	s := spec.Sampling
	opts := engine.RunOptions{
		Sample: sampling.Options{
			NSamples:    firstPositive(s.NSamples, r.defaults.NSamples),
			SecondOrder: s.SecondOrder || r.defaults.SecondOrder,
			Seed:        s.Seed,
			Scheme:      uncertainty.Scheme(s.Scheme),
		},
		Sobol: analysis.SobolOptions{
			Resamples: firstPositive(spec.Sensitivity.Resamples, r.defaults.Resamples),
			ConfLevel: spec.Sensitivity.ConfLevel,
			Logger:    r.logger,
		},
	}
	if opts.Sample.Seed == 0 {
		opts.Sample.Seed = r.defaults.Seed
	}
	if opts.Sobol.ConfLevel == 0 {
		opts.Sobol.ConfLevel = r.defaults.ConfLevel
	}
	return opts
}

// Execute runs every stage of spec and saves the record and frames
func (r *Runner) Execute(ctx context.Context, spec *runspec.Spec, progress evaluation.ProgressFunc) (*Result, error) {
	build, ok := registry[spec.Model]
	if !ok {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown model %q, expected one of %v", spec.Model, Models()))
	}
	dists, err := spec.Distributions()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	model, inputs, err := build(spec, dists)
	if err != nil {
		return nil, err
	}
	if err := checkDeclared(dists, inputs); err != nil {
		return nil, err
	}

	name := spec.Name
	if name == "" {
		name = spec.Model
	}
	e, err := engine.New(model, engine.Options{
		Name:     name,
		Workers:  firstPositive(spec.Workers, r.defaults.Workers),
		Progress: progress,
		Logger:   r.logger,
	}, inputs...)
	if err != nil {
		return nil, err
	}

	if err := e.Run(ctx, r.Options(spec)); err != nil {
		return nil, err
	}
	rec, err := e.Record()
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		if err := r.store.Save(ctx, rec); err != nil {
			return nil, err
		}
		if err := r.store.SaveFrames(ctx, rec.ID(), e.Frames()); err != nil {
			return nil, err
		}
		r.logger.Info("run stored", zap.String("run_id", rec.ID().String()))
	}
	return &Result{Engine: e, Record: rec}, nil
}

// checkDeclared rejects distributions for parameters no input declares
func checkDeclared(dists map[string]uncertainty.Distribution, inputs []uncertainty.Parameters) error {
	declared := make(map[string]bool)
	for _, in := range inputs {
		for _, p := range in.Params() {
			declared[p.Name] = true
		}
	}
	var extra []string
	for name := range dists {
		if !declared[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return fmt.Errorf("%w: run spec declares unknown parameters %v", core.ErrParameterMismatch, extra)
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
