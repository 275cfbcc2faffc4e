// Package impact adapts the impact calculation to an uncertainty model:
// exposures, impact functions and hazard are each an uncertain input, and
// every sample yields the average annual impact and the impact frequency
// curve, optionally with per-point and per-event impacts.
package impact

import (
	"context"
	"fmt"
	"strconv"

	"gounc/domain/risk"
	"gounc/domain/uncertainty"
	"gounc/internal/riskcalc"
)

// Metric names
const (
	MetricAAIAgg    = "aai_agg"
	MetricFreqCurve = "freq_curve"
	MetricEAIExp    = "eai_exp"
	MetricAtEvent   = "at_event"
)

// DefaultReturnPeriods of the frequency curve, in years
var DefaultReturnPeriods = []float64{5, 10, 20, 50, 100, 250}

// Options select the reported metrics
type Options struct {
	ReturnPeriods []float64
	// EAIExp adds the expected annual impact of every exposure point
	EAIExp bool
	// AtEvent adds the impact of every hazard event
	AtEvent bool
}

// Model evaluates impacts for one sample of the three inputs
type Model struct {
	exp     *uncertainty.Input[*risk.Exposures]
	impf    *uncertainty.Input[*risk.ImpactFuncSet]
	haz     *uncertainty.Input[*risk.Hazard]
	opts    Options
	metrics []uncertainty.MetricSpec
}

// New builds the model. The vector metric labels (exposure points, events)
// are taken from the inputs at their median, so every sample must keep the
// same number of points and events.
func New(exp *uncertainty.Input[*risk.Exposures], impf *uncertainty.Input[*risk.ImpactFuncSet], haz *uncertainty.Input[*risk.Hazard], opts Options) (*Model, error) {
	if len(opts.ReturnPeriods) == 0 {
		opts.ReturnPeriods = DefaultReturnPeriods
	}
	m := &Model{exp: exp, impf: impf, haz: haz, opts: opts}

	metrics := []uncertainty.MetricSpec{
		uncertainty.Scalar(MetricAAIAgg),
		uncertainty.Vector(MetricFreqCurve, ReturnPeriodLabels(opts.ReturnPeriods)...),
	}
	if opts.EAIExp {
		e, err := exp.DrawDefault(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to draw baseline exposures: %w", err)
		}
		metrics = append(metrics, uncertainty.Vector(MetricEAIExp, indexLabels(e.Len())...))
	}
	if opts.AtEvent {
		h, err := haz.DrawDefault(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to draw baseline hazard: %w", err)
		}
		labels := make([]string, len(h.EventIDs))
		for i, id := range h.EventIDs {
			labels[i] = strconv.Itoa(id)
		}
		metrics = append(metrics, uncertainty.Vector(MetricAtEvent, labels...))
	}
	m.metrics = metrics
	return m, nil
}

// Inputs returns the uncertain inputs in sampling order
func (m *Model) Inputs() []uncertainty.Parameters {
	return []uncertainty.Parameters{m.exp, m.impf, m.haz}
}

// Metrics implements uncertainty.Model
func (m *Model) Metrics() []uncertainty.MetricSpec { return m.metrics }

// Evaluate implements uncertainty.Model
func (m *Model) Evaluate(_ context.Context, a uncertainty.Assignment) (uncertainty.Outputs, error) {
	exp, err := m.exp.EvaluateFrom(a)
	if err != nil {
		return nil, err
	}
	impf, err := m.impf.EvaluateFrom(a)
	if err != nil {
		return nil, err
	}
	haz, err := m.haz.EvaluateFrom(a)
	if err != nil {
		return nil, err
	}

	imp, err := riskcalc.CalcImpact(exp, impf, haz)
	if err != nil {
		return nil, err
	}
	curve, err := imp.FreqCurve(m.opts.ReturnPeriods)
	if err != nil {
		return nil, err
	}

	out := uncertainty.Outputs{
		MetricAAIAgg:    {imp.AAIAgg},
		MetricFreqCurve: curve,
	}
	if m.opts.EAIExp {
		out[MetricEAIExp] = imp.EAIExp
	}
	if m.opts.AtEvent {
		out[MetricAtEvent] = imp.AtEvent
	}
	return out, nil
}

// ReturnPeriodLabels names frequency curve components, e.g. "rp100"
func ReturnPeriodLabels(rps []float64) []string {
	out := make([]string, len(rps))
	for i, rp := range rps {
		out[i] = "rp" + strconv.FormatFloat(rp, 'g', -1, 64)
	}
	return out
}

func indexLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}
