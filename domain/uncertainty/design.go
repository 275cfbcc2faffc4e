package uncertainty

import (
	"fmt"

	"gounc/domain/core"
)

// Scheme names a sampling scheme
type Scheme string

const (
	// SchemeSaltelli is the cross-matrix design required by Sobol estimators
	SchemeSaltelli Scheme = "saltelli"
	// SchemeLatin is a Latin hypercube, for output distributions only
	SchemeLatin Scheme = "latin"
)

// DesignMeta records what the sensitivity analyzer needs to invert a design
type DesignMeta struct {
	Scheme      Scheme `json:"scheme"`
	NBase       int    `json:"n_base"`
	SecondOrder bool   `json:"second_order"`
	Seed        uint64 `json:"seed"`
}

// BlockSize is the number of rows generated per base sample
func (m DesignMeta) BlockSize(d int) int {
	if m.Scheme != SchemeSaltelli {
		return 1
	}
	if m.SecondOrder {
		return 2*d + 2
	}
	return d + 2
}

// SampleDesign is the table of concrete parameter values at which the model
// is evaluated. Values are already in each parameter's native domain. It is
// read-only once built.
type SampleDesign struct {
	meta        DesignMeta
	space       *ParamSpace
	values      []float64 // row-major, rows x d
	rows        int
	fingerprint core.Hash
}

// NewSampleDesign wraps row-major values laid out in space's column order
func NewSampleDesign(meta DesignMeta, space *ParamSpace, values []float64) (*SampleDesign, error) {
	d := space.Len()
	if d == 0 {
		return nil, fmt.Errorf("%w: design has no parameters", core.ErrParameterMismatch)
	}
	if len(values)%d != 0 {
		return nil, fmt.Errorf("design values (%d) are not a multiple of %d columns", len(values), d)
	}
	rows := len(values) / d
	if rows != meta.NBase*meta.BlockSize(d) {
		return nil, core.NewStaleSensitivityError(fmt.Sprintf("design has %d rows, scheme %s expects %d", rows, meta.Scheme, meta.NBase*meta.BlockSize(d)))
	}
	h := &core.Hasher{}
	h.Field("scheme", meta.Scheme).
		Field("n_base", meta.NBase).
		Field("second_order", meta.SecondOrder).
		Field("seed", meta.Seed).
		Field("columns", space.names).
		Floats("values", values)
	return &SampleDesign{
		meta:        meta,
		space:       space,
		values:      values,
		rows:        rows,
		fingerprint: h.Sum(),
	}, nil
}

// Meta returns the design metadata
func (s *SampleDesign) Meta() DesignMeta { return s.meta }

// Space returns the parameter space
func (s *SampleDesign) Space() *ParamSpace { return s.space }

// Rows is the realized row count
func (s *SampleDesign) Rows() int { return s.rows }

// Columns returns the ordered parameter names
func (s *SampleDesign) Columns() []string { return s.space.Names() }

// Fingerprint identifies the design's exact contents
func (s *SampleDesign) Fingerprint() core.Hash { return s.fingerprint }

// At returns the value of column j in row i
func (s *SampleDesign) At(i, j int) float64 {
	return s.values[i*s.space.Len()+j]
}

// Row returns a copy of row i
func (s *SampleDesign) Row(i int) []float64 {
	d := s.space.Len()
	out := make([]float64, d)
	copy(out, s.values[i*d:(i+1)*d])
	return out
}

// Column returns a copy of the named column
func (s *SampleDesign) Column(name string) ([]float64, bool) {
	j, ok := s.space.Index(name)
	if !ok {
		return nil, false
	}
	d := s.space.Len()
	out := make([]float64, s.rows)
	for i := range out {
		out[i] = s.values[i*d+j]
	}
	return out, true
}

// Assignment rebuilds the mapping view of row i
func (s *SampleDesign) Assignment(i int) Assignment {
	d := s.space.Len()
	return s.space.Assignment(s.values[i*d : (i+1)*d])
}

// Frame exports the design as a table with a leading row index column
func (s *SampleDesign) Frame() Frame {
	cols := append([]string{"row"}, s.space.Names()...)
	rows := make([][]any, s.rows)
	d := s.space.Len()
	for i := range rows {
		r := make([]any, 0, d+1)
		r = append(r, i)
		for j := 0; j < d; j++ {
			r = append(r, s.values[i*d+j])
		}
		rows[i] = r
	}
	return Frame{Name: "samples", Columns: cols, Rows: rows}
}

// SaltelliLayout locates the rows of one base sample ("block") in a
// Saltelli design. Each block is A, AB_1..AB_d, [BA_1..BA_d,] B where AB_j is
// A with column j taken from B and BA_j is B with column j taken from A.
// The builder writes and the analyzer reads through the same layout.
type SaltelliLayout struct {
	D           int
	SecondOrder bool
}

// Layout returns the Saltelli layout of the design
func (s *SampleDesign) Layout() SaltelliLayout {
	return SaltelliLayout{D: s.space.Len(), SecondOrder: s.meta.SecondOrder}
}

// Step is the number of rows per block
func (l SaltelliLayout) Step() int {
	if l.SecondOrder {
		return 2*l.D + 2
	}
	return l.D + 2
}

// A is the row of block b's A sample
func (l SaltelliLayout) A(b int) int { return b * l.Step() }

// AB is the row of block b's A sample with column j from B
func (l SaltelliLayout) AB(b, j int) int { return b*l.Step() + 1 + j }

// BA is the row of block b's B sample with column j from A; second order only
func (l SaltelliLayout) BA(b, j int) int { return b*l.Step() + 1 + l.D + j }

// B is the row of block b's B sample
func (l SaltelliLayout) B(b int) int { return b*l.Step() + l.Step() - 1 }
