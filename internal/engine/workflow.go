package engine

import (
	"context"

	"go.uber.org/zap"

	"gounc/domain/uncertainty"
	"gounc/internal/analysis"
	"gounc/internal/sampling"
)

// RunOptions configure a complete pass over every stage
type RunOptions struct {
	Sample      sampling.Options
	Percentiles []float64
	Sobol       analysis.SobolOptions
}

// Run executes sample, evaluate, distribution and, for Saltelli designs,
// sensitivity. Sobol second order follows the sample options.
func (e *Engine) Run(ctx context.Context, opts RunOptions) error {
	design, err := e.MakeSample(opts.Sample)
	if err != nil {
		return err
	}
	if _, err := e.Evaluate(ctx); err != nil {
		return err
	}
	if _, err := e.Distribution(opts.Percentiles...); err != nil {
		return err
	}
	if design.Meta().Scheme != uncertainty.SchemeSaltelli {
		e.logger.Info("sensitivity skipped", zap.String("scheme", string(design.Meta().Scheme)))
		return nil
	}
	sobol := opts.Sobol
	sobol.SecondOrder = design.Meta().SecondOrder
	_, err = e.Sensitivity(sobol)
	return err
}
