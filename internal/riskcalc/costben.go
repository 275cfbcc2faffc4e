package riskcalc

import (
	"fmt"
	"math"

	"gounc/domain/risk"
)

// Scenario is the hazard and entity at one point in time
type Scenario struct {
	Hazard *risk.Hazard
	Entity *risk.Entity
}

// CostBenefitOptions tune the appraisal
type CostBenefitOptions struct {
	// ImpTimeDepen is the exponent of the present-to-future risk
	// interpolation; zero means 1, a linear change
	ImpTimeDepen float64
}

// MeasureAppraisal is the outcome of one measure
type MeasureAppraisal struct {
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
	// RiskPresent and RiskFuture are the average annual impacts with the
	// measure in place
	RiskPresent  float64 `json:"risk_present"`
	RiskFuture   float64 `json:"risk_future"`
	Benefit      float64 `json:"benefit"`
	CostBenRatio float64 `json:"cost_ben_ratio"`
}

// CostBenefit is the appraisal of every measure of an entity over the
// horizon PresentYear..FutureYear
type CostBenefit struct {
	PresentYear int `json:"present_year"`
	FutureYear  int `json:"future_year"`
	// RiskPresent and RiskFuture are the average annual impacts without
	// any measure
	RiskPresent    float64            `json:"risk_present"`
	RiskFuture     float64            `json:"risk_future"`
	TotClimateRisk float64            `json:"tot_climate_risk"`
	Measures       []MeasureAppraisal `json:"measures"`
}

// CalcCostBenefit appraises the measures of present.Entity. Risk is
// interpolated between the present and the future scenario over the horizon
// and discounted at the present entity's rate; without a future scenario
// the present risk is held constant. A measure with zero benefit has an
// infinite cost-benefit ratio.
func CalcCostBenefit(present Scenario, future *Scenario, opts CostBenefitOptions) (*CostBenefit, error) {
	if present.Hazard == nil || present.Entity == nil {
		return nil, fmt.Errorf("cost-benefit: present hazard and entity are required")
	}
	if err := present.Entity.Validate(); err != nil {
		return nil, err
	}
	if future != nil {
		if future.Hazard == nil || future.Entity == nil {
			return nil, fmt.Errorf("cost-benefit: future scenario needs hazard and entity")
		}
		if err := future.Entity.Validate(); err != nil {
			return nil, err
		}
	} else {
		future = &present
	}
	if opts.ImpTimeDepen == 0 {
		opts.ImpTimeDepen = 1
	}

	ent := present.Entity
	cb := &CostBenefit{PresentYear: ent.PresentYear, FutureYear: ent.FutureYear}
	timeDep := timeDependency(ent.FutureYear-ent.PresentYear+1, opts.ImpTimeDepen)

	var err error
	if cb.RiskPresent, err = aai(present, nil); err != nil {
		return nil, fmt.Errorf("present risk: %w", err)
	}
	if cb.RiskFuture, err = aai(*future, nil); err != nil {
		return nil, fmt.Errorf("future risk: %w", err)
	}
	cb.TotClimateRisk = npv(ent.DiscountRate, interpolate(cb.RiskPresent, cb.RiskFuture, timeDep))

	for _, m := range ent.Measures {
		fm, ok := findMeasure(future.Entity, m.Name)
		if !ok {
			return nil, fmt.Errorf("cost-benefit: measure %q missing from future entity", m.Name)
		}
		a := MeasureAppraisal{Name: m.Name, Cost: m.Cost}
		if a.RiskPresent, err = aai(present, &m); err != nil {
			return nil, fmt.Errorf("measure %s present risk: %w", m.Name, err)
		}
		if a.RiskFuture, err = aai(*future, &fm); err != nil {
			return nil, fmt.Errorf("measure %s future risk: %w", m.Name, err)
		}
		presBen := cb.RiskPresent - a.RiskPresent
		futBen := cb.RiskFuture - a.RiskFuture
		a.Benefit = npv(ent.DiscountRate, interpolate(presBen, futBen, timeDep))
		a.CostBenRatio = ratio(a.Cost, a.Benefit)
		cb.Measures = append(cb.Measures, a)
	}
	return cb, nil
}

func aai(s Scenario, m *risk.Measure) (float64, error) {
	impfs := s.Entity.ImpactFuncs
	if m != nil {
		var err error
		if impfs, err = m.Apply(impfs); err != nil {
			return 0, err
		}
	}
	imp, err := CalcImpact(s.Entity.Exposures, impfs, s.Hazard)
	if err != nil {
		return 0, err
	}
	return imp.AAIAgg, nil
}

func findMeasure(ent *risk.Entity, name string) (risk.Measure, bool) {
	for _, m := range ent.Measures {
		if m.Name == name {
			return m, true
		}
	}
	return risk.Measure{}, false
}

// timeDependency weights the change from present to future for each year
// of an n-year horizon: (k/(n-1))^p, or a single 1 for a one-year horizon
func timeDependency(n int, p float64) []float64 {
	if n <= 1 {
		return []float64{1}
	}
	out := make([]float64, n)
	for k := range out {
		out[k] = math.Pow(float64(k)/float64(n-1), p)
	}
	return out
}

func interpolate(present, future float64, timeDep []float64) []float64 {
	out := make([]float64, len(timeDep))
	for k, w := range timeDep {
		out[k] = present + (future-present)*w
	}
	return out
}

// npv discounts yearly values to the first year at a constant rate
func npv(rate float64, values []float64) float64 {
	var sum, factor float64 = 0, 1
	for _, v := range values {
		sum += v / factor
		factor *= 1 + rate
	}
	return sum
}

func ratio(cost, benefit float64) float64 {
	if benefit == 0 {
		if cost == 0 {
			return math.NaN()
		}
		return math.Inf(1)
	}
	return cost / benefit
}
