package impact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gounc/domain/risk"
	"gounc/domain/uncertainty"
	"gounc/internal/analysis"
	"gounc/internal/engine"
	"gounc/internal/riskcalc"
	"gounc/internal/sampling"
	"gounc/internal/testkit"
)

func newModel(t *testing.T, opts Options) (*Model, *testkit.Scenario) {
	t.Helper()
	scen := testkit.NewScenario(testkit.DefaultScenario)
	m, err := New(
		uncertainty.Fixed("exp", scen.Exposures),
		testkit.KnutsonInput(),
		uncertainty.Fixed("haz", scen.Hazard),
		opts,
	)
	require.NoError(t, err)
	return m, scen
}

func TestModel_MetricSchema(t *testing.T) {
	m, scen := newModel(t, Options{EAIExp: true, AtEvent: true})

	metrics := m.Metrics()
	require.Len(t, metrics, 4)
	assert.Equal(t, MetricAAIAgg, metrics[0].Name)
	assert.Equal(t, []string{"rp5", "rp10", "rp20", "rp50", "rp100", "rp250"}, metrics[1].Labels)
	assert.Equal(t, scen.Exposures.Len(), metrics[2].Size())
	assert.Equal(t, scen.Hazard.Events(), metrics[3].Size())

	plain, _ := newModel(t, Options{ReturnPeriods: []float64{10, 100}})
	assert.Len(t, plain.Metrics(), 2)
	assert.Equal(t, []string{"rp10", "rp100"}, plain.Metrics()[1].Labels)
}

func TestModel_EvaluateMatchesDirectCalculation(t *testing.T) {
	m, scen := newModel(t, Options{EAIExp: true})
	a := uncertainty.Assignment{"G": 1, "v_half": 84.7, "vmin": 25.7, "k": 3}

	out, err := m.Evaluate(context.Background(), a)
	require.NoError(t, err)
	require.NoError(t, uncertainty.ValidateOutputs(m.Metrics(), out))

	impfs, err := riskcalc.KnutsonImpactFuncSet(riskcalc.DefaultKnutson, risk.DefaultImpactFuncID)
	require.NoError(t, err)
	imp, err := riskcalc.CalcImpact(scen.Exposures, impfs, scen.Hazard)
	require.NoError(t, err)

	assert.InDelta(t, imp.AAIAgg, out[MetricAAIAgg][0], 1e-6)
	assert.Greater(t, imp.AAIAgg, 0.0)
	assert.InDeltaSlice(t, imp.EAIExp, out[MetricEAIExp], 1e-6)
}

func TestModel_EvaluateRejectsMissingParameters(t *testing.T) {
	m, _ := newModel(t, Options{})
	_, err := m.Evaluate(context.Background(), uncertainty.Assignment{"G": 1})
	assert.Error(t, err)
}

func TestModel_UncertaintyWorkflow(t *testing.T) {
	m, _ := newModel(t, Options{})
	e, err := engine.New(m, engine.Options{Name: "impact", Workers: 4}, m.Inputs()...)
	require.NoError(t, err)

	design, err := e.MakeSample(sampling.Options{NSamples: 10})
	require.NoError(t, err)
	assert.Equal(t, 60, design.Rows())
	assert.Equal(t, []string{"G", "v_half", "vmin", "k"}, design.Columns())

	table, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, table.Failures().Count)

	dists, err := e.Distribution()
	require.NoError(t, err)
	require.Len(t, dists, 7)
	assert.Equal(t, "aai_agg", dists[0].Component.Name())
	assert.Greater(t, dists[0].Mean, 0.0)

	sens, err := e.Sensitivity(analysis.SobolOptions{})
	require.NoError(t, err)
	idx, ok := sens.Index("aai_agg", "G")
	require.True(t, ok)
	assert.Greater(t, idx.ST, 0.0)
}
