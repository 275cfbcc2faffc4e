package uncertainty

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensitivityJSON_NonFiniteAsNull(t *testing.T) {
	nan := math.NaN()
	s := Sensitivity{
		Params:      []string{"a", "b"},
		SecondOrder: true,
		Components: []ComponentSensitivity{{
			Component: Component{Metric: "aai_agg"},
			Indices:   []Index{{Param: "a", S1: 0.5, S1Conf: 0.1, ST: 0.6, STConf: 0.1}, {Param: "b", S1: nan}},
			S2:        [][]float64{{nan, 0.2}, {nan, nan}},
			S2Conf:    [][]float64{{nan, 0.05}, {nan, nan}},
			Blocks:    16,
		}},
	}

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"s2":[[null,0.2],[null,null]]`)
	assert.Contains(t, string(b), `"s1":null`)

	var back Sensitivity
	require.NoError(t, json.Unmarshal(b, &back))
	c := back.Components[0]
	assert.Equal(t, 16, c.Blocks)
	assert.Equal(t, 0.2, c.S2[0][1])
	assert.True(t, math.IsNaN(c.S2[1][0]))
	assert.True(t, math.IsNaN(c.Indices[1].S1))
	assert.Equal(t, 0.6, c.Indices[0].ST)
}

func TestOutputDistributionJSON_EmptyColumn(t *testing.T) {
	nan := math.NaN()
	d := OutputDistribution{
		Component:   Component{Metric: "freq_curve", Label: "rp10"},
		Mean:        nan,
		StdDev:      nan,
		Min:         nan,
		Max:         nan,
		Median:      nan,
		Percentiles: []Percentile{{P: 50, Value: nan}},
	}

	b, err := json.Marshal(d)
	require.NoError(t, err)

	var back OutputDistribution
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d.Component, back.Component)
	assert.True(t, math.IsNaN(back.Mean))
	assert.True(t, math.IsNaN(back.Percentiles[0].Value))
	assert.Equal(t, 50.0, back.Percentiles[0].P)
}

func TestFrameJSON_NullCells(t *testing.T) {
	f := Frame{Name: "results", Columns: []string{"row", "y", "failed"}, Rows: [][]any{{0, 1.5, false}, {1, math.NaN(), true}}}

	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"results","columns":["row","y","failed"],"rows":[[0,1.5,false],[1,null,true]]}`, string(b))
}
