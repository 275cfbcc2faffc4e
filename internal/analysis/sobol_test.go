package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"gounc/domain/core"
	"gounc/domain/uncertainty"
	"gounc/internal/sampling"
)

// rowFunc computes one row of outputs, or nil for a failed row
type rowFunc func(a uncertainty.Assignment) uncertainty.Outputs

func evaluate(design *uncertainty.SampleDesign, metrics []uncertainty.MetricSpec, fn rowFunc) *uncertainty.ResultTable {
	rows := make([]uncertainty.Outputs, design.Rows())
	failed := make(map[int]error)
	for i := range rows {
		rows[i] = fn(design.Assignment(i))
		if rows[i] == nil {
			failed[i] = &core.EvaluationError{Row: i, Err: core.ErrEvaluation}
		}
	}
	return uncertainty.NewResultTable(metrics, rows, failed, design.Fingerprint())
}

func uniformInput(names ...string) *uncertainty.Input[uncertainty.Assignment] {
	var params []uncertainty.Param
	for _, n := range names {
		params = append(params, uncertainty.P(n, distuv.Uniform{Min: 0, Max: 1}))
	}
	return uncertainty.MustInput("x", func(a uncertainty.Assignment) (uncertainty.Assignment, error) { return a, nil }, params...)
}

func ishigamiInput() *uncertainty.Input[uncertainty.Assignment] {
	u := distuv.Uniform{Min: -math.Pi, Max: math.Pi}
	return uncertainty.MustInput("ishigami", func(a uncertainty.Assignment) (uncertainty.Assignment, error) { return a, nil },
		uncertainty.P("x1", u), uncertainty.P("x2", u), uncertainty.P("x3", u))
}

func ishigami(a uncertainty.Assignment) uncertainty.Outputs {
	x1, x2, x3 := a["x1"], a["x2"], a["x3"]
	y := math.Sin(x1) + 7*math.Pow(math.Sin(x2), 2) + 0.1*math.Pow(x3, 4)*math.Sin(x1)
	return uncertainty.Outputs{"y": {y}}
}

var scalarY = []uncertainty.MetricSpec{uncertainty.Scalar("y")}

func TestSobol_UnusedParametersAreZero(t *testing.T) {
	design, err := sampling.Build(sampling.Options{NSamples: 10}, uniformInput("p1", "p2", "p3", "p4"))
	require.NoError(t, err)
	require.Equal(t, 60, design.Rows())

	table := evaluate(design, scalarY, func(a uncertainty.Assignment) uncertainty.Outputs {
		return uncertainty.Outputs{"y": {a["p1"] + a["p2"]}}
	})

	sens, err := Sobol(design, table, SobolOptions{})
	require.NoError(t, err)
	require.Len(t, sens.Components, 1)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, sens.Params)

	for _, p := range []string{"p3", "p4"} {
		idx, ok := sens.Index("y", p)
		require.True(t, ok)
		assert.InDelta(t, 0, idx.S1, 1e-12, p)
		assert.InDelta(t, 0, idx.ST, 1e-12, p)
	}
	for _, p := range []string{"p1", "p2"} {
		idx, _ := sens.Index("y", p)
		assert.Greater(t, idx.ST, 0.0, p)
	}
}

func TestSobol_Ishigami(t *testing.T) {
	design, err := sampling.Build(sampling.Options{NSamples: 1024}, ishigamiInput())
	require.NoError(t, err)
	table := evaluate(design, scalarY, ishigami)

	sens, err := Sobol(design, table, SobolOptions{})
	require.NoError(t, err)

	want := map[string][2]float64{
		"x1": {0.314, 0.558},
		"x2": {0.442, 0.442},
		"x3": {0.0, 0.244},
	}
	for p, w := range want {
		idx, ok := sens.Index("y", p)
		require.True(t, ok)
		assert.InDelta(t, w[0], idx.S1, 0.1, "S1 %s", p)
		assert.InDelta(t, w[1], idx.ST, 0.1, "ST %s", p)
		assert.False(t, math.IsNaN(idx.S1Conf))
		assert.Greater(t, idx.STConf, 0.0)
	}
}

func TestSobol_SecondOrder(t *testing.T) {
	design, err := sampling.Build(sampling.Options{NSamples: 2048, SecondOrder: true}, ishigamiInput())
	require.NoError(t, err)
	table := evaluate(design, scalarY, ishigami)

	sens, err := Sobol(design, table, SobolOptions{SecondOrder: true})
	require.NoError(t, err)
	cs := sens.Components[0]
	require.Len(t, cs.S2, 3)

	assert.InDelta(t, 0.244, cs.S2[0][2], 0.15)
	assert.Greater(t, cs.S2[0][2], cs.S2[0][1])
	assert.True(t, math.IsNaN(cs.S2[2][0]))
	assert.True(t, math.IsNaN(cs.S2[1][1]))
	assert.False(t, math.IsNaN(cs.S2Conf[0][2]))

	frame := sens.SecondOrderFrame()
	assert.Len(t, frame.Rows, 3)

	// first-order only analysis of a second-order design is allowed
	first, err := Sobol(design, table, SobolOptions{})
	require.NoError(t, err)
	assert.Nil(t, first.Components[0].S2)
}

func TestSobol_Deterministic(t *testing.T) {
	design, err := sampling.Build(sampling.Options{NSamples: 64}, ishigamiInput())
	require.NoError(t, err)
	table := evaluate(design, scalarY, ishigami)

	a, err := Sobol(design, table, SobolOptions{Seed: 7})
	require.NoError(t, err)
	b, err := Sobol(design, table, SobolOptions{Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, a.Components[0].Indices, b.Components[0].Indices)
}

func TestSobol_StaleInputs(t *testing.T) {
	in := uniformInput("p1", "p2")
	saltelli, err := sampling.Build(sampling.Options{NSamples: 8}, in)
	require.NoError(t, err)
	other, err := sampling.Build(sampling.Options{NSamples: 8, Seed: 99}, in)
	require.NoError(t, err)
	latin, err := sampling.Build(sampling.Options{NSamples: 8, Scheme: uncertainty.SchemeLatin}, in)
	require.NoError(t, err)

	sum := func(a uncertainty.Assignment) uncertainty.Outputs {
		return uncertainty.Outputs{"y": {a["p1"] + a["p2"]}}
	}

	tests := []struct {
		name   string
		design *uncertainty.SampleDesign
		table  *uncertainty.ResultTable
		opts   SobolOptions
		want   error
	}{
		{"latin design", latin, evaluate(latin, scalarY, sum), SobolOptions{}, core.ErrStaleSensitivity},
		{"results from another design", saltelli, evaluate(other, scalarY, sum), SobolOptions{}, core.ErrStaleSensitivity},
		{"second order without BA rows", saltelli, evaluate(saltelli, scalarY, sum), SobolOptions{SecondOrder: true}, core.ErrStaleSensitivity},
		{"no design", nil, evaluate(saltelli, scalarY, sum), SobolOptions{}, core.ErrNoDesign},
		{"no results", saltelli, nil, SobolOptions{}, core.ErrNoResults},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sobol(tt.design, tt.table, tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSobol_FailedBlocksExcluded(t *testing.T) {
	design, err := sampling.Build(sampling.Options{NSamples: 64}, uniformInput("p1", "p2", "p3"))
	require.NoError(t, err)
	metrics := []uncertainty.MetricSpec{uncertainty.Vector("y", "sum", "prod")}
	table := evaluate(design, metrics, func(a uncertainty.Assignment) uncertainty.Outputs {
		if a["p1"] > 0.85 {
			return nil
		}
		return uncertainty.Outputs{"y": {a["p1"] + a["p2"], a["p1"] * a["p3"]}}
	})
	require.Greater(t, table.Failures().Count, 0)

	step := design.Layout().Step()
	complete := 0
	for b := 0; b < design.Meta().NBase; b++ {
		ok := true
		for i := b * step; i < (b+1)*step; i++ {
			ok = ok && !table.Failed(i)
		}
		if ok {
			complete++
		}
	}

	sens, err := Sobol(design, table, SobolOptions{})
	require.NoError(t, err)
	require.Len(t, sens.Components, 2)
	for _, cs := range sens.Components {
		assert.Equal(t, complete, cs.Blocks, cs.Component.Name())
		for _, idx := range cs.Indices {
			assert.False(t, math.IsNaN(idx.S1))
			assert.False(t, math.IsNaN(idx.ST))
		}
	}
	idx, _ := sens.Index("y_prod", "p2")
	assert.InDelta(t, 0, idx.ST, 1e-12)
}

func TestSobol_SkippedComponents(t *testing.T) {
	in := uniformInput("p1", "p2")

	t.Run("too few blocks", func(t *testing.T) {
		design, err := sampling.Build(sampling.Options{NSamples: 1}, in)
		require.NoError(t, err)
		table := evaluate(design, scalarY, func(a uncertainty.Assignment) uncertainty.Outputs {
			return uncertainty.Outputs{"y": {a["p1"]}}
		})
		sens, err := Sobol(design, table, SobolOptions{})
		require.NoError(t, err)
		assert.Empty(t, sens.Components)
		require.Len(t, sens.Skipped, 1)
		assert.Equal(t, ReasonTooFewBlocks, sens.Skipped[0].Reason)
	})

	t.Run("zero variance", func(t *testing.T) {
		design, err := sampling.Build(sampling.Options{NSamples: 16}, in)
		require.NoError(t, err)
		metrics := []uncertainty.MetricSpec{uncertainty.Scalar("flat"), uncertainty.Scalar("y")}
		table := evaluate(design, metrics, func(a uncertainty.Assignment) uncertainty.Outputs {
			return uncertainty.Outputs{"flat": {0.1}, "y": {a["p1"]}}
		})
		sens, err := Sobol(design, table, SobolOptions{})
		require.NoError(t, err)
		require.Len(t, sens.Skipped, 1)
		assert.Equal(t, "flat", sens.Skipped[0].Component.Name())
		assert.Equal(t, ReasonZeroVariance, sens.Skipped[0].Reason)
		_, ok := sens.Component("y")
		assert.True(t, ok)
	})
}

func TestSobol_InvalidConfLevel(t *testing.T) {
	design, err := sampling.Build(sampling.Options{NSamples: 4}, uniformInput("p1"))
	require.NoError(t, err)
	table := evaluate(design, scalarY, func(a uncertainty.Assignment) uncertainty.Outputs {
		return uncertainty.Outputs{"y": {a["p1"]}}
	})
	_, err = Sobol(design, table, SobolOptions{ConfLevel: 1.5})
	assert.Error(t, err)
}
