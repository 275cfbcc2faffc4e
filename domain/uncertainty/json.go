package uncertainty

import (
	"encoding/json"
	"math"
	"strconv"
)

// jsonFloat encodes NaN and infinities as null and decodes null as NaN.
// Infinities therefore come back as NaN.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = jsonFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

func toJSONMatrix(m [][]float64) [][]jsonFloat {
	if m == nil {
		return nil
	}
	out := make([][]jsonFloat, len(m))
	for i, row := range m {
		out[i] = make([]jsonFloat, len(row))
		for j, v := range row {
			out[i][j] = jsonFloat(v)
		}
	}
	return out
}

func fromJSONMatrix(m [][]jsonFloat) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = float64(v)
		}
	}
	return out
}

type indexJSON struct {
	Param  string    `json:"param"`
	S1     jsonFloat `json:"s1"`
	S1Conf jsonFloat `json:"s1_conf"`
	ST     jsonFloat `json:"st"`
	STConf jsonFloat `json:"st_conf"`
}

func (x Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(indexJSON{
		Param:  x.Param,
		S1:     jsonFloat(x.S1),
		S1Conf: jsonFloat(x.S1Conf),
		ST:     jsonFloat(x.ST),
		STConf: jsonFloat(x.STConf),
	})
}

func (x *Index) UnmarshalJSON(b []byte) error {
	var j indexJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*x = Index{Param: j.Param, S1: float64(j.S1), S1Conf: float64(j.S1Conf), ST: float64(j.ST), STConf: float64(j.STConf)}
	return nil
}

type componentSensitivityJSON struct {
	Component Component     `json:"component"`
	Indices   []Index       `json:"indices"`
	S2        [][]jsonFloat `json:"s2,omitempty"`
	S2Conf    [][]jsonFloat `json:"s2_conf,omitempty"`
	Blocks    int           `json:"blocks"`
}

func (c ComponentSensitivity) MarshalJSON() ([]byte, error) {
	return json.Marshal(componentSensitivityJSON{
		Component: c.Component,
		Indices:   c.Indices,
		S2:        toJSONMatrix(c.S2),
		S2Conf:    toJSONMatrix(c.S2Conf),
		Blocks:    c.Blocks,
	})
}

func (c *ComponentSensitivity) UnmarshalJSON(b []byte) error {
	var j componentSensitivityJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*c = ComponentSensitivity{
		Component: j.Component,
		Indices:   j.Indices,
		S2:        fromJSONMatrix(j.S2),
		S2Conf:    fromJSONMatrix(j.S2Conf),
		Blocks:    j.Blocks,
	}
	return nil
}

type percentileJSON struct {
	P     float64   `json:"p"`
	Value jsonFloat `json:"value"`
}

func (p Percentile) MarshalJSON() ([]byte, error) {
	return json.Marshal(percentileJSON{P: p.P, Value: jsonFloat(p.Value)})
}

func (p *Percentile) UnmarshalJSON(b []byte) error {
	var j percentileJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*p = Percentile{P: j.P, Value: float64(j.Value)}
	return nil
}

type outputDistributionJSON struct {
	Component   Component    `json:"component"`
	Values      []float64    `json:"values"`
	Count       int          `json:"count"`
	Mean        jsonFloat    `json:"mean"`
	StdDev      jsonFloat    `json:"std_dev"`
	Min         jsonFloat    `json:"min"`
	Max         jsonFloat    `json:"max"`
	Median      jsonFloat    `json:"median"`
	Percentiles []Percentile `json:"percentiles"`
}

// MarshalJSON keeps Values as plain numbers; they are finite by construction.
func (d OutputDistribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(outputDistributionJSON{
		Component:   d.Component,
		Values:      d.Values,
		Count:       d.Count,
		Mean:        jsonFloat(d.Mean),
		StdDev:      jsonFloat(d.StdDev),
		Min:         jsonFloat(d.Min),
		Max:         jsonFloat(d.Max),
		Median:      jsonFloat(d.Median),
		Percentiles: d.Percentiles,
	})
}

func (d *OutputDistribution) UnmarshalJSON(b []byte) error {
	var j outputDistributionJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*d = OutputDistribution{
		Component:   j.Component,
		Values:      j.Values,
		Count:       j.Count,
		Mean:        float64(j.Mean),
		StdDev:      float64(j.StdDev),
		Min:         float64(j.Min),
		Max:         float64(j.Max),
		Median:      float64(j.Median),
		Percentiles: j.Percentiles,
	}
	return nil
}

// MarshalJSON writes non-finite float cells as null
func (f Frame) MarshalJSON() ([]byte, error) {
	rows := make([][]any, len(f.Rows))
	for i, r := range f.Rows {
		rows[i] = make([]any, len(r))
		for j, cell := range r {
			if v, ok := cell.(float64); ok {
				rows[i][j] = jsonFloat(v)
				continue
			}
			rows[i][j] = cell
		}
	}
	type frameJSON Frame
	return json.Marshal(frameJSON{Name: f.Name, Columns: f.Columns, Rows: rows})
}
