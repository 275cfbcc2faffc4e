package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gounc/domain/run"
	"gounc/domain/uncertainty"
	"gounc/internal/testkit"
)

func ishigamiRecord(t *testing.T, secondOrder bool) *run.Record {
	t.Helper()
	e, err := testkit.IshigamiRun(context.Background(), 32, secondOrder)
	require.NoError(t, err)
	rec, err := e.Record()
	require.NoError(t, err)
	return rec
}

func TestMarkdown_Sections(t *testing.T) {
	rec := ishigamiRecord(t, true)
	md := Markdown(rec, DefaultOptions())

	assert.True(t, strings.HasPrefix(md, "# Uncertainty run "+rec.ID().String()))
	assert.Contains(t, md, "| Model | ishigami |")
	assert.Contains(t, md, "| Parameters | x1, x2, x3 |")
	assert.Contains(t, md, "No failed rows.")
	assert.Contains(t, md, "## Output distribution")
	assert.Contains(t, md, "| Metric | Unit | Count | Mean | Std | P5 | P25 | P50 | P75 | P95 |")
	assert.Contains(t, md, "## Sensitivity")
	assert.Contains(t, md, "### Second order")
	assert.Contains(t, md, "| y | x1, x3 |")
	assert.Contains(t, md, "- **y**: ")
}

func TestMarkdown_FailuresAndSkipped(t *testing.T) {
	rec := ishigamiRecord(t, false)
	rec.Failures = uncertainty.FailureSummary{
		Count:   2,
		Rows:    []int{3, 7},
		Reasons: []uncertainty.FailureReason{{Reason: "solver | diverged", Count: 2, LastRow: 7, LastErr: "row 7: solver | diverged"}},
	}
	rec.Sensitivity.Skipped = []uncertainty.SkippedComponent{{Component: uncertainty.Component{Metric: "z"}, Reason: "zero output variance"}}

	md := Markdown(rec, Options{})
	assert.Contains(t, md, "2 failed rows.")
	assert.Contains(t, md, `| solver \| diverged | 2 | 7 |`)
	assert.Contains(t, md, "- z: zero output variance")
	assert.NotContains(t, md, "### Second order")
}

func TestHTML_RendersTables(t *testing.T) {
	out := string(HTML(ishigamiRecord(t, false), DefaultOptions()))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>ishigami</td>")
}

func TestMetricUnits(t *testing.T) {
	dists := []uncertainty.OutputDistribution{
		{Component: uncertainty.Component{Metric: "aai_agg"}, Mean: 2.5e6},
		{Component: uncertainty.Component{Metric: "freq_curve", Label: "rp10"}, Mean: 4e8},
		{Component: uncertainty.Component{Metric: "freq_curve", Label: "rp100"}, Mean: 9e9},
	}
	u := metricUnits(dists, DefaultOptions())
	assert.Equal(t, "M", u["aai_agg"].name)
	assert.Equal(t, "Bn", u["freq_curve"].name)

	u = metricUnits(dists, Options{})
	assert.Equal(t, "", u["aai_agg"].name)
}
