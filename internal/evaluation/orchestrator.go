// Package evaluation runs a model once per sample-design row, sequentially or
// on a fixed-size worker pool, isolating row failures.
package evaluation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gounc/domain/core"
	"gounc/domain/uncertainty"
)

// Options configure an Orchestrator
type Options struct {
	// Workers is the pool size; 0 or 1 evaluates sequentially in row order
	Workers int
	// Progress, if set, is called from a single goroutine as rows complete
	Progress ProgressFunc
	Logger   *zap.Logger
}

// Orchestrator evaluates a model over a sample design
type Orchestrator struct {
	workers  int
	progress ProgressFunc
	logger   *zap.Logger
}

// New creates an orchestrator
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		workers:  workers,
		progress: opts.Progress,
		logger:   logger.Named("evaluation"),
	}
}

// Workers is the configured pool size
func (o *Orchestrator) Workers() int { return o.workers }

// Run evaluates model on every row of design and returns the result table in
// row order. Row failures are recorded in the table; Run itself fails only
// when every row failed (core.ErrAllRowsFailed) or ctx was cancelled, in
// which case rows already in flight are allowed to finish first.
func (o *Orchestrator) Run(ctx context.Context, design *uncertainty.SampleDesign, model uncertainty.Model) (*uncertainty.ResultTable, error) {
	if design == nil {
		return nil, core.ErrNoDesign
	}
	metrics := model.Metrics()
	if len(metrics) == 0 {
		return nil, fmt.Errorf("%w: model declares no metrics", core.ErrMetricShape)
	}

	total := design.Rows()
	outputs := make([]uncertainty.Outputs, total)
	rowErrs := make([]error, total)
	tracker := newTracker(total, o.progress)

	// Rows are never cancelled once started.
	rowCtx := context.WithoutCancel(ctx)
	evalRow := func(i int) {
		out, err := evaluateRow(rowCtx, design, model, metrics, i)
		if err != nil {
			rowErrs[i] = &core.EvaluationError{Row: i, Err: err}
			o.logger.Debug("row failed", zap.Int("row", i), zap.Error(err))
		} else {
			outputs[i] = out
		}
		tracker.done(err != nil)
	}

	start := time.Now()
	o.logger.Info("evaluation started",
		zap.Int("rows", total),
		zap.Int("workers", o.workers),
		zap.String("design", design.Fingerprint().Short()))

	if o.workers == 1 {
		for i := 0; i < total && ctx.Err() == nil; i++ {
			evalRow(i)
		}
	} else {
		o.runPool(ctx, total, evalRow)
	}
	progress := tracker.close()

	if err := ctx.Err(); err != nil {
		o.logger.Warn("evaluation cancelled", zap.Int("done", progress.Done), zap.Int("rows", total))
		return nil, fmt.Errorf("evaluation cancelled after %d of %d rows: %w", progress.Done, total, err)
	}

	failed := make(map[int]error)
	var last error
	for i, err := range rowErrs {
		if err != nil {
			failed[i] = err
			last = err
		}
	}
	if total > 0 && len(failed) == total {
		o.logger.Error("every row failed", zap.Int("rows", total), zap.Error(last))
		return nil, core.NewAllRowsFailedError(total, last)
	}

	table := uncertainty.NewResultTable(metrics, outputs, failed, design.Fingerprint())
	fields := []zap.Field{
		zap.Int("rows", total),
		zap.Int("failed", len(failed)),
		zap.Duration("elapsed", time.Since(start)),
	}
	for _, r := range table.Failures().Reasons {
		o.logger.Warn("row failures", zap.String("reason", r.Reason), zap.Int("count", r.Count), zap.Int("last_row", r.LastRow))
	}
	o.logger.Info("evaluation finished", fields...)
	return table, nil
}

// runPool feeds row indices to a fixed number of workers. Each row index is
// handed to exactly one worker, so writes into the per-row slots never
// overlap. The feeder stops on cancellation; workers drain what they hold.
func (o *Orchestrator) runPool(ctx context.Context, total int, evalRow func(int)) {
	rows := make(chan int)
	var g errgroup.Group

	g.Go(func() error {
		defer close(rows)
		for i := 0; i < total; i++ {
			select {
			case rows <- i:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < o.workers; w++ {
		g.Go(func() error {
			for i := range rows {
				evalRow(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func evaluateRow(ctx context.Context, design *uncertainty.SampleDesign, model uncertainty.Model, metrics []uncertainty.MetricSpec, i int) (out uncertainty.Outputs, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", core.ErrModelPanic, r)
		}
	}()

	out, err = model.Evaluate(ctx, design.Assignment(i))
	if err != nil {
		return nil, err
	}
	if err := uncertainty.ValidateOutputs(metrics, out); err != nil {
		return nil, err
	}
	return clone(out), nil
}

func clone(out uncertainty.Outputs) uncertainty.Outputs {
	c := make(uncertainty.Outputs, len(out))
	for k, v := range out {
		c[k] = append([]float64(nil), v...)
	}
	return c
}
