package uncertainty

import (
	"strconv"
)

// Percentile is one percentile of an output distribution
type Percentile struct {
	P     float64 `json:"p"`
	Value float64 `json:"value"`
}

// OutputDistribution is the empirical distribution of one result column
// over the non-failed rows
type OutputDistribution struct {
	Component   Component    `json:"component"`
	Values      []float64    `json:"values"`
	Count       int          `json:"count"`
	Mean        float64      `json:"mean"`
	StdDev      float64      `json:"std_dev"`
	Min         float64      `json:"min"`
	Max         float64      `json:"max"`
	Median      float64      `json:"median"`
	Percentiles []Percentile `json:"percentiles"`
}

// Percentile returns the stored value for p
func (d OutputDistribution) Percentile(p float64) (float64, bool) {
	for _, pc := range d.Percentiles {
		if pc.P == p {
			return pc.Value, true
		}
	}
	return 0, false
}

// DistributionFrame exports summary statistics, one row per column
func DistributionFrame(dists []OutputDistribution) Frame {
	cols := []string{"metric", "label", "count", "mean", "std", "min", "max", "median"}
	if len(dists) > 0 {
		for _, pc := range dists[0].Percentiles {
			cols = append(cols, percentileColumn(pc.P))
		}
	}
	rows := make([][]any, 0, len(dists))
	for _, d := range dists {
		r := []any{d.Component.Metric, d.Component.Label, d.Count, d.Mean, d.StdDev, d.Min, d.Max, d.Median}
		for _, pc := range d.Percentiles {
			r = append(r, pc.Value)
		}
		rows = append(rows, r)
	}
	return Frame{Name: "distribution", Columns: cols, Rows: rows}
}

func percentileColumn(p float64) string {
	return "p" + strconv.FormatFloat(p, 'g', -1, 64)
}
