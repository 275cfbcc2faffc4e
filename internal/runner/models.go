package runner

import (
	"fmt"
	"sort"

	"gounc/adapters/costben"
	"gounc/adapters/impact"
	"gounc/adapters/runspec"
	"gounc/domain/uncertainty"
	"gounc/internal/riskcalc"
	"gounc/internal/testkit"
)

// DemoScenario sizes the synthetic scenario of the impact and cost-benefit
// models
var DemoScenario = testkit.ScenarioConfig{Points: 120, Events: 80, Seed: 7}

// build constructs a model and its inputs with the declared distributions
// replacing the defaults
type build func(spec *runspec.Spec, dists map[string]uncertainty.Distribution) (uncertainty.Model, []uncertainty.Parameters, error)

var registry = map[string]build{
	"ishigami": buildIshigami,
	"impact":   buildImpact,
	"costben":  buildCostBenefit,
}

// Models lists the runnable model names
func Models() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildIshigami(_ *runspec.Spec, dists map[string]uncertainty.Distribution) (uncertainty.Model, []uncertainty.Parameters, error) {
	in := testkit.IshigamiInput().WithDistributions(dists)
	return testkit.IshigamiModel(in), []uncertainty.Parameters{in}, nil
}

func buildImpact(spec *runspec.Spec, dists map[string]uncertainty.Distribution) (uncertainty.Model, []uncertainty.Parameters, error) {
	scen := testkit.NewScenario(DemoScenario)
	m, err := impact.New(
		scen.ExposuresInput().WithDistributions(dists),
		testkit.KnutsonInput().WithDistributions(dists),
		scen.HazardInput().WithDistributions(dists),
		impact.Options{
			ReturnPeriods: spec.Impact.ReturnPeriods,
			EAIExp:        spec.Impact.EAIExp,
			AtEvent:       spec.Impact.AtEvent,
		})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build impact model: %w", err)
	}
	return m, m.Inputs(), nil
}

func buildCostBenefit(spec *runspec.Spec, dists map[string]uncertainty.Distribution) (uncertainty.Model, []uncertainty.Parameters, error) {
	scen := testkit.NewScenario(DemoScenario)
	in := costben.Inputs{
		Hazard: scen.HazardInput().WithDistributions(dists),
		Entity: scen.EntityInput().WithDistributions(dists),
	}
	if spec.CostBenefit.FutureGrowth {
		in.HazardFuture = scen.FutureHazardInput().WithDistributions(dists)
	}
	m, err := costben.New(in, riskcalc.CostBenefitOptions{ImpTimeDepen: spec.CostBenefit.ImpTimeDepen})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build cost-benefit model: %w", err)
	}
	return m, m.Inputs(), nil
}
