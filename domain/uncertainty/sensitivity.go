package uncertainty

import (
	"gounc/domain/core"
)

// Index holds the first- and total-order Sobol indices of one parameter with
// their bootstrap confidence half-widths. Estimation noise can push values
// slightly outside [0, 1] for small samples.
type Index struct {
	Param  string  `json:"param"`
	S1     float64 `json:"s1"`
	S1Conf float64 `json:"s1_conf"`
	ST     float64 `json:"st"`
	STConf float64 `json:"st_conf"`
}

// ComponentSensitivity is the decomposition of one result column
type ComponentSensitivity struct {
	Component Component `json:"component"`
	Indices   []Index   `json:"indices"`
	// S2[i][j] for i < j, NaN elsewhere; nil without second order
	S2     [][]float64 `json:"s2,omitempty"`
	S2Conf [][]float64 `json:"s2_conf,omitempty"`
	// Blocks is the number of base samples that entered the estimate
	Blocks int `json:"blocks"`
}

// SkippedComponent is a column whose sensitivity was not computed
type SkippedComponent struct {
	Component Component `json:"component"`
	Reason    string    `json:"reason"`
}

// Sensitivity is the result of the sensitivity step
type Sensitivity struct {
	Params            []string               `json:"params"`
	SecondOrder       bool                   `json:"second_order"`
	Components        []ComponentSensitivity `json:"components"`
	Skipped           []SkippedComponent     `json:"skipped,omitempty"`
	DesignFingerprint core.Hash              `json:"design_fingerprint"`
}

// Component looks a column up by its flattened name
func (s *Sensitivity) Component(name string) (*ComponentSensitivity, bool) {
	for i := range s.Components {
		if s.Components[i].Component.Name() == name {
			return &s.Components[i], true
		}
	}
	return nil, false
}

// Index returns the indices of param for the named column
func (s *Sensitivity) Index(component, param string) (Index, bool) {
	c, ok := s.Component(component)
	if !ok {
		return Index{}, false
	}
	for _, idx := range c.Indices {
		if idx.Param == param {
			return idx, true
		}
	}
	return Index{}, false
}

// Frame exports first- and total-order indices, one row per column and parameter
func (s *Sensitivity) Frame() Frame {
	cols := []string{"metric", "label", "param", "S1", "S1_conf", "ST", "ST_conf"}
	var rows [][]any
	for _, c := range s.Components {
		for _, idx := range c.Indices {
			rows = append(rows, []any{c.Component.Metric, c.Component.Label, idx.Param, idx.S1, idx.S1Conf, idx.ST, idx.STConf})
		}
	}
	return Frame{Name: "sensitivity", Columns: cols, Rows: rows}
}

// SecondOrderFrame exports pairwise indices, one row per column and pair
func (s *Sensitivity) SecondOrderFrame() Frame {
	cols := []string{"metric", "label", "param_i", "param_j", "S2", "S2_conf"}
	var rows [][]any
	for _, c := range s.Components {
		if c.S2 == nil {
			continue
		}
		for i := range s.Params {
			for j := i + 1; j < len(s.Params); j++ {
				rows = append(rows, []any{c.Component.Metric, c.Component.Label, s.Params[i], s.Params[j], c.S2[i][j], c.S2Conf[i][j]})
			}
		}
	}
	return Frame{Name: "sensitivity_s2", Columns: cols, Rows: rows}
}
