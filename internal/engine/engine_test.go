package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"gounc/domain/core"
	"gounc/domain/stage"
	"gounc/domain/uncertainty"
	"gounc/internal/analysis"
	"gounc/internal/evaluation"
	"gounc/internal/sampling"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	u := distuv.Uniform{Min: 0, Max: 1}
	in := uncertainty.MustInput("x", func(a uncertainty.Assignment) (uncertainty.Assignment, error) { return a, nil },
		uncertainty.P("p1", u), uncertainty.P("p2", u), uncertainty.P("p3", u), uncertainty.P("p4", u))
	model := uncertainty.NewModel([]uncertainty.MetricSpec{uncertainty.Scalar("y")}, func(_ context.Context, a uncertainty.Assignment) (uncertainty.Outputs, error) {
		x, err := in.EvaluateFrom(a)
		if err != nil {
			return nil, err
		}
		return uncertainty.Outputs{"y": {x["p1"] + x["p2"]}}, nil
	})
	e, err := New(model, Options{Name: "sum", Workers: 2}, in)
	require.NoError(t, err)
	return e
}

func TestEngine_FullWorkflow(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	design, err := e.MakeSample(sampling.Options{NSamples: 10})
	require.NoError(t, err)
	assert.Equal(t, 60, design.Rows())

	table, err := e.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, design.Fingerprint(), table.DesignFingerprint())

	dists, err := e.Distribution()
	require.NoError(t, err)
	require.Len(t, dists, 1)
	assert.Equal(t, 60, dists[0].Count)

	sens, err := e.Sensitivity(analysis.SobolOptions{})
	require.NoError(t, err)
	for _, p := range []string{"p3", "p4"} {
		idx, ok := sens.Index("y", p)
		require.True(t, ok)
		assert.InDelta(t, 0, idx.S1, 1e-12)
		assert.InDelta(t, 0, idx.ST, 1e-12)
	}

	names := make([]string, 0)
	for _, f := range e.Frames() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"samples", "results", "failures", "distribution", "sensitivity"}, names)

	for _, st := range e.Status() {
		assert.True(t, st.Ready, st.Name)
		assert.Equal(t, 1, st.Version, st.Name)
	}
}

func TestEngine_StageOrdering(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Evaluate(context.Background())
	assert.ErrorIs(t, err, core.ErrNoDesign)

	_, err = e.Sensitivity(analysis.SobolOptions{})
	assert.ErrorIs(t, err, core.ErrNoDesign)

	_, err = e.MakeSample(sampling.Options{NSamples: 4})
	require.NoError(t, err)

	_, err = e.Distribution()
	assert.ErrorIs(t, err, core.ErrNoResults)
	_, err = e.Sensitivity(analysis.SobolOptions{})
	assert.ErrorIs(t, err, core.ErrNoResults)
}

func TestEngine_SampleCaching(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first, err := e.MakeSample(sampling.Options{NSamples: 8})
	require.NoError(t, err)
	_, err = e.Evaluate(ctx)
	require.NoError(t, err)

	// Equivalent options after defaults keep everything cached
	again, err := e.MakeSample(sampling.Options{NSamples: 8, Seed: sampling.DefaultSeed, Scheme: uncertainty.SchemeSaltelli})
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.NotNil(t, e.Results())

	// New options replace the design and drop the results
	second, err := e.MakeSample(sampling.Options{NSamples: 8, Seed: 3})
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint(), second.Fingerprint())
	assert.Nil(t, e.Results())
	_, err = e.Sensitivity(analysis.SobolOptions{})
	assert.ErrorIs(t, err, core.ErrNoResults)

	status := e.Status()
	assert.Equal(t, stage.Sample, status[0].Name)
	assert.Equal(t, 2, status[0].Version)
	assert.False(t, status[1].Ready)
}

func TestEngine_SensitivityCachingAndInvalidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.MakeSample(sampling.Options{NSamples: 16})
	require.NoError(t, err)
	_, err = e.Evaluate(ctx)
	require.NoError(t, err)

	a, err := e.Sensitivity(analysis.SobolOptions{Resamples: 50})
	require.NoError(t, err)
	b, err := e.Sensitivity(analysis.SobolOptions{Resamples: 50})
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := e.Sensitivity(analysis.SobolOptions{Resamples: 60})
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	_, err = e.Evaluate(ctx)
	require.NoError(t, err)
	assert.Nil(t, e.SensitivityResult())
	assert.Nil(t, e.DistributionResult())
}

func TestEngine_StaleAttachedResults(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.MakeSample(sampling.Options{NSamples: 8})
	require.NoError(t, err)
	old, err := e.Evaluate(ctx)
	require.NoError(t, err)

	_, err = e.MakeSample(sampling.Options{NSamples: 8, Seed: 11})
	require.NoError(t, err)
	require.NoError(t, e.AttachResults(old))

	_, err = e.Sensitivity(analysis.SobolOptions{})
	assert.ErrorIs(t, err, core.ErrStaleSensitivity)

	_, err = e.MakeSample(sampling.Options{NSamples: 8, SecondOrder: false, Seed: 12})
	require.NoError(t, err)
	_, err = e.Evaluate(ctx)
	require.NoError(t, err)
	_, err = e.Sensitivity(analysis.SobolOptions{SecondOrder: true})
	assert.ErrorIs(t, err, core.ErrStaleSensitivity)
}

func TestEngine_ProgressAndRecord(t *testing.T) {
	var last evaluation.Progress
	u := distuv.Uniform{Min: 1, Max: 2}
	in := uncertainty.MustInput("x", func(a uncertainty.Assignment) (float64, error) { return a["a"], nil }, uncertainty.P("a", u))
	model := uncertainty.NewModel([]uncertainty.MetricSpec{uncertainty.Scalar("y")}, func(_ context.Context, a uncertainty.Assignment) (uncertainty.Outputs, error) {
		return uncertainty.Outputs{"y": {a["a"] * 2}}, nil
	})
	e, err := New(model, Options{Name: "double", Progress: func(p evaluation.Progress) { last = p }}, in)
	require.NoError(t, err)

	_, err = e.Record()
	assert.ErrorIs(t, err, core.ErrNoDesign)

	_, err = e.MakeSample(sampling.Options{NSamples: 5})
	require.NoError(t, err)
	_, err = e.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, evaluation.Progress{Done: 15, Total: 15}, last)

	rec, err := e.Record()
	require.NoError(t, err)
	assert.Equal(t, e.ID(), rec.ID())
	assert.Equal(t, "double", rec.Manifest.Model)
	assert.NoError(t, rec.Manifest.Validate())
	assert.Len(t, rec.Stages, len(stage.Order))
}

func TestNew_DuplicateParameters(t *testing.T) {
	u := distuv.Uniform{Min: 0, Max: 1}
	a := uncertainty.MustInput("a", func(x uncertainty.Assignment) (float64, error) { return 0, nil }, uncertainty.P("p", u))
	b := uncertainty.MustInput("b", func(x uncertainty.Assignment) (float64, error) { return 0, nil }, uncertainty.P("p", u))
	model := uncertainty.NewModel([]uncertainty.MetricSpec{uncertainty.Scalar("y")}, nil)

	_, err := New(model, Options{}, a, b)
	assert.ErrorIs(t, err, core.ErrParameterMismatch)
}

func TestEngine_Run(t *testing.T) {
	t.Run("saltelli runs every stage", func(t *testing.T) {
		e := newTestEngine(t)
		require.NoError(t, e.Run(context.Background(), RunOptions{Sample: sampling.Options{NSamples: 8, SecondOrder: true}}))

		for _, st := range e.Status() {
			assert.True(t, st.Ready, st.Name)
		}
		require.NotNil(t, e.SensitivityResult())
		assert.True(t, e.SensitivityResult().SecondOrder)
		assert.Len(t, e.Frames(), 6)
	})

	t.Run("latin stops before sensitivity", func(t *testing.T) {
		e := newTestEngine(t)
		opts := RunOptions{Sample: sampling.Options{NSamples: 20, Scheme: uncertainty.SchemeLatin}}
		require.NoError(t, e.Run(context.Background(), opts))

		assert.Nil(t, e.SensitivityResult())
		assert.NotNil(t, e.DistributionResult())
		assert.Equal(t, 20, e.Results().Rows())
	})
}
