package uncertainty

import (
	"context"
	"fmt"

	"gounc/domain/core"
)

// MetricSpec declares one output metric. A metric without labels is a
// scalar; a labelled metric is a fixed-length vector, e.g. a frequency curve
// evaluated at fixed return periods.
type MetricSpec struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels,omitempty"`
}

// Scalar declares a scalar metric
func Scalar(name string) MetricSpec {
	return MetricSpec{Name: name}
}

// Vector declares a vector metric with one labelled component per entry
func Vector(name string, labels ...string) MetricSpec {
	return MetricSpec{Name: name, Labels: labels}
}

// Size is the number of components of the metric
func (m MetricSpec) Size() int {
	if len(m.Labels) == 0 {
		return 1
	}
	return len(m.Labels)
}

// Component addresses one scalar column of the result table
type Component struct {
	Metric string `json:"metric"`
	Label  string `json:"label,omitempty"`
}

// Name is the flattened column name: "aai_agg" or "freq_curve_rp100"
func (c Component) Name() string {
	if c.Label == "" {
		return c.Metric
	}
	return c.Metric + "_" + c.Label
}

// Components flattens a metric schema into result-table columns
func Components(metrics []MetricSpec) []Component {
	var out []Component
	for _, m := range metrics {
		if len(m.Labels) == 0 {
			out = append(out, Component{Metric: m.Name})
			continue
		}
		for _, l := range m.Labels {
			out = append(out, Component{Metric: m.Name, Label: l})
		}
	}
	return out
}

// Outputs is one row's model result: metric name -> component values.
// Scalars are single-element slices.
type Outputs map[string][]float64

// Set stores a scalar metric value
func (o Outputs) Set(name string, v float64) {
	o[name] = []float64{v}
}

// Model is the evaluation contract of the orchestrator. Evaluate must be
// safe to call concurrently with different assignments.
type Model interface {
	Metrics() []MetricSpec
	Evaluate(ctx context.Context, a Assignment) (Outputs, error)
}

// ModelFunc is a bare evaluation closure
type ModelFunc func(ctx context.Context, a Assignment) (Outputs, error)

type funcModel struct {
	metrics []MetricSpec
	fn      ModelFunc
}

// NewModel pairs an evaluation closure with its metric schema
func NewModel(metrics []MetricSpec, fn ModelFunc) Model {
	return &funcModel{metrics: metrics, fn: fn}
}

func (m *funcModel) Metrics() []MetricSpec { return m.metrics }

func (m *funcModel) Evaluate(ctx context.Context, a Assignment) (Outputs, error) {
	return m.fn(ctx, a)
}

// ValidateOutputs checks a row result against the schema: every metric
// present with the declared length and nothing else.
func ValidateOutputs(metrics []MetricSpec, out Outputs) error {
	if len(out) != len(metrics) {
		return fmt.Errorf("%w: got %d metrics, want %d", core.ErrMetricShape, len(out), len(metrics))
	}
	for _, m := range metrics {
		v, ok := out[m.Name]
		if !ok {
			return fmt.Errorf("%w: metric %q missing", core.ErrMetricShape, m.Name)
		}
		if len(v) != m.Size() {
			return fmt.Errorf("%w: metric %q has %d values, want %d", core.ErrMetricShape, m.Name, len(v), m.Size())
		}
	}
	return nil
}
