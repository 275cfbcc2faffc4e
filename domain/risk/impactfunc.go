package risk

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// ImpactFunc maps hazard intensity to a mean damage ratio, the product of
// the mean damage degree (MDD) and the percentage of affected assets (PAA),
// both linearly interpolated on Intensity and held constant beyond its ends.
type ImpactFunc struct {
	ID            int       `json:"id"`
	HazardType    string    `json:"haz_type"`
	IntensityUnit string    `json:"intensity_unit,omitempty"`
	Intensity     []float64 `json:"intensity"`
	MDD           []float64 `json:"mdd"`
	PAA           []float64 `json:"paa"`

	xs, mddY, paaY []float64
	mdd, paa       interp.PiecewiseLinear
}

// NewImpactFunc validates the curves and fits their interpolants
func NewImpactFunc(id int, hazType string, intensity, mdd, paa []float64) (*ImpactFunc, error) {
	f := &ImpactFunc{ID: id, HazardType: hazType, Intensity: intensity, MDD: mdd, PAA: paa}
	if err := f.fit(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *ImpactFunc) fit() error {
	n := len(f.Intensity)
	if n < 2 {
		return fmt.Errorf("impact function %d: need at least 2 intensity points, got %d", f.ID, n)
	}
	if len(f.MDD) != n || len(f.PAA) != n {
		return fmt.Errorf("impact function %d: %d intensities, %d mdd, %d paa", f.ID, n, len(f.MDD), len(f.PAA))
	}
	if !sort.Float64sAreSorted(f.Intensity) {
		return fmt.Errorf("impact function %d: intensity must be non-decreasing", f.ID)
	}
	xs, mdd, paa := strictlyIncreasing(f.Intensity, f.MDD, f.PAA)
	if len(xs) < 2 {
		return fmt.Errorf("impact function %d: intensity range is empty", f.ID)
	}
	f.xs, f.mddY, f.paaY = xs, mdd, paa
	if err := f.mdd.Fit(xs, mdd); err != nil {
		return fmt.Errorf("impact function %d: %w", f.ID, err)
	}
	if err := f.paa.Fit(xs, paa); err != nil {
		return fmt.Errorf("impact function %d: %w", f.ID, err)
	}
	return nil
}

// strictlyIncreasing drops repeated intensities, keeping the last point of
// each run so that a step in the curve lands on its upper value.
func strictlyIncreasing(xs, a, b []float64) ([]float64, []float64, []float64) {
	ox := make([]float64, 0, len(xs))
	oa := make([]float64, 0, len(xs))
	ob := make([]float64, 0, len(xs))
	for i, x := range xs {
		if k := len(ox); k > 0 && x == ox[k-1] {
			oa[k-1], ob[k-1] = a[i], b[i]
			continue
		}
		ox, oa, ob = append(ox, x), append(oa, a[i]), append(ob, b[i])
	}
	return ox, oa, ob
}

func clampPredict(pl *interp.PiecewiseLinear, xs, ys []float64, x float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[len(xs)-1] {
		return ys[len(ys)-1]
	}
	return pl.Predict(x)
}

// MDR is the mean damage ratio at intensity x
func (f *ImpactFunc) MDR(x float64) float64 {
	return f.MDDAt(x) * f.PAAAt(x)
}

// MDDAt interpolates the mean damage degree
func (f *ImpactFunc) MDDAt(x float64) float64 {
	return clampPredict(&f.mdd, f.xs, f.mddY, x)
}

// PAAAt interpolates the percentage of affected assets
func (f *ImpactFunc) PAAAt(x float64) float64 {
	return clampPredict(&f.paa, f.xs, f.paaY, x)
}

// ImpactFuncSet is a collection of impact functions keyed by hazard type
// and id
type ImpactFuncSet struct {
	funcs map[string]map[int]*ImpactFunc
}

// NewImpactFuncSet collects funcs, rejecting duplicate (type, id) pairs
func NewImpactFuncSet(funcs ...*ImpactFunc) (*ImpactFuncSet, error) {
	s := &ImpactFuncSet{funcs: make(map[string]map[int]*ImpactFunc)}
	for _, f := range funcs {
		if err := s.Add(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts f
func (s *ImpactFuncSet) Add(f *ImpactFunc) error {
	byID, ok := s.funcs[f.HazardType]
	if !ok {
		byID = make(map[int]*ImpactFunc)
		s.funcs[f.HazardType] = byID
	}
	if _, dup := byID[f.ID]; dup {
		return fmt.Errorf("impact function %s/%d defined twice", f.HazardType, f.ID)
	}
	byID[f.ID] = f
	return nil
}

// Get looks up the function of hazard type hazType with the given id
func (s *ImpactFuncSet) Get(hazType string, id int) (*ImpactFunc, bool) {
	f, ok := s.funcs[hazType][id]
	return f, ok
}

// Funcs returns every function of hazType ordered by id
func (s *ImpactFuncSet) Funcs(hazType string) []*ImpactFunc {
	byID := s.funcs[hazType]
	out := make([]*ImpactFunc, 0, len(byID))
	for _, f := range byID {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HazardTypes lists the hazard types present, sorted
func (s *ImpactFuncSet) HazardTypes() []string {
	out := make([]string, 0, len(s.funcs))
	for t := range s.funcs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
