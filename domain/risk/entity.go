package risk

import (
	"fmt"
	"math"
)

// Modifier is the affine change a*x + b applied by a measure. The zero
// Modifier leaves values unchanged.
type Modifier struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Identity leaves values unchanged
var Identity = Modifier{A: 1, B: 0}

func (m Modifier) isZero() bool { return m.A == 0 && m.B == 0 }

// Measure is an adaptation option with a cost and its effect on the impact
// functions of one hazard type.
type Measure struct {
	Name       string  `json:"name"`
	HazardType string  `json:"haz_type"`
	Cost       float64 `json:"cost"`
	// Intensity shifts the impact-function axis to max(a*x - b, 0), so a
	// negative B moves damage to higher intensities
	Intensity Modifier `json:"hazard_inten_imp"`
	MDD       Modifier `json:"mdd_impact"`
	PAA       Modifier `json:"paa_impact"`
}

func (m Measure) modifiers() (Modifier, Modifier, Modifier) {
	inten, mdd, paa := m.Intensity, m.MDD, m.PAA
	if inten.isZero() {
		inten = Identity
	}
	if mdd.isZero() {
		mdd = Identity
	}
	if paa.isZero() {
		paa = Identity
	}
	return inten, mdd, paa
}

// Apply returns the impact functions as modified by m. Functions of other
// hazard types are shared unchanged.
func (m Measure) Apply(set *ImpactFuncSet) (*ImpactFuncSet, error) {
	inten, mdd, paa := m.modifiers()
	out, _ := NewImpactFuncSet()
	for _, t := range set.HazardTypes() {
		for _, f := range set.Funcs(t) {
			if t != m.HazardType {
				if err := out.Add(f); err != nil {
					return nil, err
				}
				continue
			}
			n := len(f.Intensity)
			x, d, p := make([]float64, n), make([]float64, n), make([]float64, n)
			for i := 0; i < n; i++ {
				x[i] = math.Max(f.Intensity[i]*inten.A-inten.B, 0)
				d[i] = math.Max(f.MDD[i]*mdd.A+mdd.B, 0)
				p[i] = math.Max(f.PAA[i]*paa.A+paa.B, 0)
			}
			g, err := NewImpactFunc(f.ID, f.HazardType, x, d, p)
			if err != nil {
				return nil, fmt.Errorf("measure %s: %w", m.Name, err)
			}
			g.IntensityUnit = f.IntensityUnit
			if err := out.Add(g); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Entity bundles what a cost-benefit appraisal needs besides the hazard
type Entity struct {
	Exposures   *Exposures
	ImpactFuncs *ImpactFuncSet
	Measures    []Measure
	// DiscountRate is the constant annual rate used for net present values
	DiscountRate float64
	// PresentYear and FutureYear bound the appraisal horizon
	PresentYear int
	FutureYear  int
}

// Validate checks the entity for consistency
func (e *Entity) Validate() error {
	if e.Exposures == nil || e.ImpactFuncs == nil {
		return fmt.Errorf("entity: exposures and impact functions are required")
	}
	if err := e.Exposures.Validate(); err != nil {
		return err
	}
	if e.FutureYear < e.PresentYear {
		return fmt.Errorf("entity: future year %d before present year %d", e.FutureYear, e.PresentYear)
	}
	seen := make(map[string]bool, len(e.Measures))
	for _, m := range e.Measures {
		if m.Name == "" {
			return fmt.Errorf("entity: measure without a name")
		}
		if seen[m.Name] {
			return fmt.Errorf("entity: measure %q defined twice", m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

// MeasureNames lists the measures in declaration order
func (e *Entity) MeasureNames() []string {
	out := make([]string, len(e.Measures))
	for i, m := range e.Measures {
		out[i] = m.Name
	}
	return out
}
