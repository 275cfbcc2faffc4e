// Package costben adapts the cost-benefit appraisal to an uncertainty model
// over present and, optionally, future hazard and entity inputs.
package costben

import (
	"context"
	"fmt"

	"gounc/domain/risk"
	"gounc/domain/uncertainty"
	"gounc/internal/riskcalc"
)

// Metric names
const (
	MetricTotClimateRisk = "tot_climate_risk"
	MetricBenefit        = "benefit"
	MetricCostBenRatio   = "cost_ben_ratio"
	MetricImpMeasPresent = "imp_meas_present"
	MetricImpMeasFuture  = "imp_meas_future"
)

// NoMeasure labels the baseline risk in the imp_meas metrics
const NoMeasure = "no_measure"

// Inputs are the uncertain ingredients of the appraisal. The future inputs
// are optional; when only one of them is set the other falls back to its
// present counterpart.
type Inputs struct {
	Hazard       *uncertainty.Input[*risk.Hazard]
	Entity       *uncertainty.Input[*risk.Entity]
	HazardFuture *uncertainty.Input[*risk.Hazard]
	EntityFuture *uncertainty.Input[*risk.Entity]
}

// Model evaluates the appraisal for one sample
type Model struct {
	in       Inputs
	opts     riskcalc.CostBenefitOptions
	measures []string
	metrics  []uncertainty.MetricSpec
}

// New builds the model. Measure names come from the entity at its median,
// so every sample must carry the same measures.
func New(in Inputs, opts riskcalc.CostBenefitOptions) (*Model, error) {
	if in.Hazard == nil || in.Entity == nil {
		return nil, fmt.Errorf("cost-benefit model requires hazard and entity inputs")
	}
	ent, err := in.Entity.DrawDefault(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to draw baseline entity: %w", err)
	}
	measures := ent.MeasureNames()
	withBase := append([]string{NoMeasure}, measures...)

	return &Model{
		in:       in,
		opts:     opts,
		measures: measures,
		metrics: []uncertainty.MetricSpec{
			uncertainty.Scalar(MetricTotClimateRisk),
			uncertainty.Vector(MetricBenefit, measures...),
			uncertainty.Vector(MetricCostBenRatio, measures...),
			uncertainty.Vector(MetricImpMeasPresent, withBase...),
			uncertainty.Vector(MetricImpMeasFuture, withBase...),
		},
	}, nil
}

// Inputs returns the uncertain inputs in sampling order
func (m *Model) Inputs() []uncertainty.Parameters {
	out := []uncertainty.Parameters{m.in.Hazard, m.in.Entity}
	if m.in.HazardFuture != nil {
		out = append(out, m.in.HazardFuture)
	}
	if m.in.EntityFuture != nil {
		out = append(out, m.in.EntityFuture)
	}
	return out
}

// Metrics implements uncertainty.Model
func (m *Model) Metrics() []uncertainty.MetricSpec { return m.metrics }

// Evaluate implements uncertainty.Model
func (m *Model) Evaluate(_ context.Context, a uncertainty.Assignment) (uncertainty.Outputs, error) {
	present, err := scenario(m.in.Hazard, m.in.Entity, a)
	if err != nil {
		return nil, err
	}

	var future *riskcalc.Scenario
	if m.in.HazardFuture != nil || m.in.EntityFuture != nil {
		hf, ef := m.in.HazardFuture, m.in.EntityFuture
		if hf == nil {
			hf = m.in.Hazard
		}
		if ef == nil {
			ef = m.in.Entity
		}
		s, err := scenario(hf, ef, a)
		if err != nil {
			return nil, err
		}
		future = &s
	}

	cb, err := riskcalc.CalcCostBenefit(present, future, m.opts)
	if err != nil {
		return nil, err
	}
	if len(cb.Measures) != len(m.measures) {
		return nil, fmt.Errorf("%d measures evaluated, model declares %d", len(cb.Measures), len(m.measures))
	}

	n := len(cb.Measures)
	benefit := make([]float64, n)
	ratio := make([]float64, n)
	pres := make([]float64, n+1)
	fut := make([]float64, n+1)
	pres[0], fut[0] = cb.RiskPresent, cb.RiskFuture
	for i, ma := range cb.Measures {
		benefit[i] = ma.Benefit
		ratio[i] = ma.CostBenRatio
		pres[i+1] = ma.RiskPresent
		fut[i+1] = ma.RiskFuture
	}
	return uncertainty.Outputs{
		MetricTotClimateRisk: {cb.TotClimateRisk},
		MetricBenefit:        benefit,
		MetricCostBenRatio:   ratio,
		MetricImpMeasPresent: pres,
		MetricImpMeasFuture:  fut,
	}, nil
}

func scenario(haz *uncertainty.Input[*risk.Hazard], ent *uncertainty.Input[*risk.Entity], a uncertainty.Assignment) (riskcalc.Scenario, error) {
	h, err := haz.EvaluateFrom(a)
	if err != nil {
		return riskcalc.Scenario{}, err
	}
	e, err := ent.EvaluateFrom(a)
	if err != nil {
		return riskcalc.Scenario{}, err
	}
	return riskcalc.Scenario{Hazard: h, Entity: e}, nil
}
