// Package testkit provides synthetic scenarios and reference models for
// tests and demo runs.
package testkit

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"gounc/domain/risk"
	"gounc/domain/uncertainty"
	"gounc/internal/riskcalc"
)

// Scenario is a synthetic tropical cyclone setup: exposures sitting one per
// centroid along a coast, and an event set whose wind field decays away
// from each landfall point.
type Scenario struct {
	Exposures *risk.Exposures
	Hazard    *risk.Hazard
}

// ScenarioConfig sizes a synthetic scenario
type ScenarioConfig struct {
	Points int
	Events int
	Seed   uint64
}

// DefaultScenario is small enough for unit tests
var DefaultScenario = ScenarioConfig{Points: 50, Events: 40, Seed: 7}

// NewScenario builds a reproducible scenario
func NewScenario(cfg ScenarioConfig) *Scenario {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	values := distuv.LogNormal{Mu: math.Log(1e6), Sigma: 0.8, Src: rng}

	exp := &risk.Exposures{
		Values:    make([]float64, cfg.Points),
		Centroids: make([]int, cfg.Points),
		ValueUnit: "USD",
	}
	for i := range exp.Values {
		exp.Values[i] = values.Rand()
		exp.Centroids[i] = i
	}

	haz := &risk.Hazard{
		Type:          riskcalc.HazardTC,
		IntensityUnit: "m/s",
		EventIDs:      make([]int, cfg.Events),
		Frequency:     make([]float64, cfg.Events),
		Intensity:     make([][]float64, cfg.Events),
	}
	peak := distuv.Uniform{Min: 20, Max: 95, Src: rng}
	for e := range haz.EventIDs {
		haz.EventIDs[e] = e + 1
		haz.Frequency[e] = 1 / float64(cfg.Events) * 0.5
		landfall := rng.IntN(cfg.Points)
		vmax := peak.Rand()
		row := make([]float64, cfg.Points)
		for c := range row {
			d := math.Abs(float64(c - landfall))
			row[c] = vmax * math.Exp(-d/8)
			if row[c] < 10 {
				row[c] = 0
			}
		}
		haz.Intensity[e] = row
	}
	return &Scenario{Exposures: exp, Hazard: haz}
}

// Entity wraps the scenario exposures with a Knutson impact function and
// two adaptation measures
func (s *Scenario) Entity() *risk.Entity {
	impfs, err := riskcalc.KnutsonImpactFuncSet(riskcalc.DefaultKnutson, risk.DefaultImpactFuncID)
	if err != nil {
		panic(err)
	}
	return &risk.Entity{
		Exposures:   s.Exposures,
		ImpactFuncs: impfs,
		Measures: []risk.Measure{
			{Name: "mangroves", HazardType: riskcalc.HazardTC, Cost: 1.3e6, Intensity: risk.Modifier{A: 1, B: -4}},
			{Name: "building_code", HazardType: riskcalc.HazardTC, Cost: 8e6, MDD: risk.Modifier{A: 0.75, B: 0}},
		},
		DiscountRate: 0.02,
		PresentYear:  2020,
		FutureYear:   2050,
	}
}

// KnutsonDistributions are the uncertain impact-function parameters of the
// reference TC study
func KnutsonDistributions() []uncertainty.Param {
	return []uncertainty.Param{
		uncertainty.P("G", distuv.Uniform{Min: 0.8, Max: 1.8}),
		uncertainty.P("v_half", distuv.Uniform{Min: 50, Max: 150}),
		uncertainty.P("vmin", distuv.Uniform{Min: 15, Max: 45}),
		uncertainty.P("k", distuv.Uniform{Min: 1, Max: 6}),
	}
}

// KnutsonInput is the uncertain impact function set
func KnutsonInput() *uncertainty.Input[*risk.ImpactFuncSet] {
	return uncertainty.MustInput("impf", func(a uncertainty.Assignment) (*risk.ImpactFuncSet, error) {
		return riskcalc.KnutsonImpactFuncSet(riskcalc.KnutsonParams{
			G: a["G"], VHalf: a["v_half"], VMin: a["vmin"], K: a["k"],
		}, risk.DefaultImpactFuncID)
	}, KnutsonDistributions()...)
}

// ExposuresInput scales the scenario values by x_exp
func (s *Scenario) ExposuresInput() *uncertainty.Input[*risk.Exposures] {
	return uncertainty.MustInput("exp", func(a uncertainty.Assignment) (*risk.Exposures, error) {
		return s.Exposures.Scaled(a["x_exp"]), nil
	}, uncertainty.P("x_exp", distuv.Uniform{Min: 0.9, Max: 1.1}))
}

// HazardInput scales the scenario intensity by x_haz
func (s *Scenario) HazardInput() *uncertainty.Input[*risk.Hazard] {
	return uncertainty.MustInput("haz", func(a uncertainty.Assignment) (*risk.Hazard, error) {
		return s.Hazard.ScaledIntensity(a["x_haz"]), nil
	}, uncertainty.P("x_haz", distuv.Uniform{Min: 0.95, Max: 1.05}))
}

// EntityInput varies the discount rate (disc) and scales every measure
// cost by x_cost
func (s *Scenario) EntityInput() *uncertainty.Input[*risk.Entity] {
	base := s.Entity()
	return uncertainty.MustInput("ent", func(a uncertainty.Assignment) (*risk.Entity, error) {
		ent := *base
		ent.DiscountRate = a["disc"]
		ent.Measures = make([]risk.Measure, len(base.Measures))
		for i, m := range base.Measures {
			m.Cost *= a["x_cost"]
			ent.Measures[i] = m
		}
		return &ent, nil
	},
		uncertainty.P("disc", distuv.Uniform{Min: 0, Max: 0.04}),
		uncertainty.P("x_cost", distuv.Uniform{Min: 0.8, Max: 1.2}),
	)
}

// FutureHazardInput scales the event frequencies by freq_growth
func (s *Scenario) FutureHazardInput() *uncertainty.Input[*risk.Hazard] {
	return uncertainty.MustInput("haz_fut", func(a uncertainty.Assignment) (*risk.Hazard, error) {
		return s.Hazard.ScaledFrequency(a["freq_growth"]), nil
	}, uncertainty.P("freq_growth", distuv.Uniform{Min: 1.5, Max: 2.5}))
}

// IshigamiInput declares x1..x3 uniform on [-pi, pi]
func IshigamiInput() *uncertainty.Input[[3]float64] {
	u := distuv.Uniform{Min: -math.Pi, Max: math.Pi}
	return uncertainty.MustInput("ishigami", func(a uncertainty.Assignment) ([3]float64, error) {
		return [3]float64{a["x1"], a["x2"], a["x3"]}, nil
	}, uncertainty.P("x1", u), uncertainty.P("x2", u), uncertainty.P("x3", u))
}

// IshigamiModel is the Ishigami function with a=7, b=0.1. Its indices are
// S1 = (0.314, 0.442, 0) and ST = (0.558, 0.442, 0.244).
func IshigamiModel(in *uncertainty.Input[[3]float64]) uncertainty.Model {
	return uncertainty.NewModel([]uncertainty.MetricSpec{uncertainty.Scalar("y")}, func(_ context.Context, a uncertainty.Assignment) (uncertainty.Outputs, error) {
		x, err := in.EvaluateFrom(a)
		if err != nil {
			return nil, err
		}
		y := math.Sin(x[0]) + 7*math.Pow(math.Sin(x[1]), 2) + 0.1*math.Pow(x[2], 4)*math.Sin(x[0])
		return uncertainty.Outputs{"y": {y}}, nil
	})
}
