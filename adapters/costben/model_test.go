package costben

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"gounc/domain/risk"
	"gounc/domain/uncertainty"
	"gounc/internal/evaluation"
	"gounc/internal/riskcalc"
	"gounc/internal/sampling"
	"gounc/internal/testkit"
)

func inputs(scen *testkit.Scenario) Inputs {
	base := scen.Entity()
	return Inputs{
		Hazard: uncertainty.Fixed("haz", scen.Hazard),
		Entity: uncertainty.MustInput("ent", func(a uncertainty.Assignment) (*risk.Entity, error) {
			ent := *base
			ent.DiscountRate = a["disc"]
			return &ent, nil
		}, uncertainty.P("disc", distuv.Uniform{Min: 0, Max: 0.04})),
	}
}

func TestModel_PresentOnly(t *testing.T) {
	scen := testkit.NewScenario(testkit.DefaultScenario)
	m, err := New(inputs(scen), riskcalc.CostBenefitOptions{})
	require.NoError(t, err)

	metrics := m.Metrics()
	require.Len(t, metrics, 5)
	assert.Equal(t, []string{"mangroves", "building_code"}, metrics[1].Labels)
	assert.Equal(t, []string{NoMeasure, "mangroves", "building_code"}, metrics[3].Labels)

	out, err := m.Evaluate(context.Background(), uncertainty.Assignment{"disc": 0.02})
	require.NoError(t, err)
	require.NoError(t, uncertainty.ValidateOutputs(metrics, out))

	assert.Greater(t, out[MetricTotClimateRisk][0], 0.0)
	// without a future scenario present and future risks coincide
	assert.Equal(t, out[MetricImpMeasPresent], out[MetricImpMeasFuture])
	for i := range out[MetricBenefit] {
		assert.Greater(t, out[MetricBenefit][i], 0.0)
		assert.Less(t, out[MetricImpMeasPresent][i+1], out[MetricImpMeasPresent][0])
	}
}

func TestModel_FutureHazard(t *testing.T) {
	scen := testkit.NewScenario(testkit.DefaultScenario)
	in := inputs(scen)
	in.HazardFuture = uncertainty.MustInput("haz_fut", func(a uncertainty.Assignment) (*risk.Hazard, error) {
		return scen.Hazard.ScaledFrequency(a["freq_growth"]), nil
	}, uncertainty.P("freq_growth", distuv.Uniform{Min: 1.5, Max: 2.5}))

	m, err := New(in, riskcalc.CostBenefitOptions{})
	require.NoError(t, err)
	assert.Len(t, m.Inputs(), 3)

	out, err := m.Evaluate(context.Background(), uncertainty.Assignment{"disc": 0.02, "freq_growth": 2})
	require.NoError(t, err)
	assert.InDelta(t, 2*out[MetricImpMeasPresent][0], out[MetricImpMeasFuture][0], 1e-6)

	design, err := sampling.Build(sampling.Options{NSamples: 8}, m.Inputs()...)
	require.NoError(t, err)
	table, err := evaluation.New(evaluation.Options{Workers: 2}).Run(context.Background(), design, m)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Failures().Count)
	assert.Equal(t, 8*4, table.Rows())
}

func TestNew_RequiresInputs(t *testing.T) {
	_, err := New(Inputs{}, riskcalc.CostBenefitOptions{})
	assert.Error(t, err)
}
