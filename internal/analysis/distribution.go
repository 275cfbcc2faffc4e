package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"gounc/domain/core"
	"gounc/domain/uncertainty"
)

// DefaultPercentiles are reported for every output distribution
var DefaultPercentiles = []float64{5, 25, 50, 75, 95}

// Distribution summarizes every result column over its non-failed, finite
// values. Columns with no usable value get Count 0 and NaN statistics.
func Distribution(table *uncertainty.ResultTable, percentiles ...float64) ([]uncertainty.OutputDistribution, error) {
	if table == nil {
		return nil, core.ErrNoResults
	}
	if len(percentiles) == 0 {
		percentiles = DefaultPercentiles
	}
	for _, p := range percentiles {
		if p <= 0 || p > 100 {
			return nil, fmt.Errorf("percentile %g outside (0, 100]", p)
		}
	}

	comps := table.Components()
	out := make([]uncertainty.OutputDistribution, len(comps))
	for j, c := range comps {
		values := finite(table.Column(j))
		d, err := summarize(values, percentiles)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %s: %w", c.Name(), err)
		}
		d.Component = c
		out[j] = d
	}
	return out, nil
}

func summarize(values []float64, percentiles []float64) (uncertainty.OutputDistribution, error) {
	d := uncertainty.OutputDistribution{Values: values, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		d.Mean, d.StdDev, d.Min, d.Max, d.Median = nan, nan, nan, nan, nan
		for _, p := range percentiles {
			d.Percentiles = append(d.Percentiles, uncertainty.Percentile{P: p, Value: nan})
		}
		return d, nil
	}

	data := stats.Float64Data(values)
	var err error
	if d.Mean, err = data.Mean(); err != nil {
		return d, err
	}
	if len(values) > 1 {
		if d.StdDev, err = data.StandardDeviationSample(); err != nil {
			return d, err
		}
	}
	if d.Min, err = data.Min(); err != nil {
		return d, err
	}
	if d.Max, err = data.Max(); err != nil {
		return d, err
	}
	if d.Median, err = data.Median(); err != nil {
		return d, err
	}
	for _, p := range percentiles {
		v, err := data.PercentileNearestRank(p)
		if err != nil {
			return d, err
		}
		d.Percentiles = append(d.Percentiles, uncertainty.Percentile{P: p, Value: v})
	}
	return d, nil
}

func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}
