// Package risk holds the inputs of an impact calculation: exposed values,
// hazard event sets, impact functions and adaptation measures.
package risk

import (
	"fmt"
)

// DefaultImpactFuncID is assigned to exposure points without one
const DefaultImpactFuncID = 1

// Exposures are the assets at risk. Point i has value Values[i], sits on
// hazard centroid Centroids[i] and is damaged according to impact function
// ImpactFuncIDs[i].
type Exposures struct {
	Values        []float64 `json:"values"`
	Centroids     []int     `json:"centroids"`
	ImpactFuncIDs []int     `json:"impf_ids,omitempty"`
	ValueUnit     string    `json:"value_unit,omitempty"`
}

// Len is the number of exposure points
func (e *Exposures) Len() int { return len(e.Values) }

// ImpactFuncID returns the impact function of point i
func (e *Exposures) ImpactFuncID(i int) int {
	if len(e.ImpactFuncIDs) == 0 {
		return DefaultImpactFuncID
	}
	return e.ImpactFuncIDs[i]
}

// Validate checks that all point attributes are aligned
func (e *Exposures) Validate() error {
	if len(e.Centroids) != len(e.Values) {
		return fmt.Errorf("exposures: %d centroids for %d values", len(e.Centroids), len(e.Values))
	}
	if len(e.ImpactFuncIDs) != 0 && len(e.ImpactFuncIDs) != len(e.Values) {
		return fmt.Errorf("exposures: %d impact function ids for %d values", len(e.ImpactFuncIDs), len(e.Values))
	}
	for i, c := range e.Centroids {
		if c < 0 {
			return fmt.Errorf("exposures: point %d has negative centroid %d", i, c)
		}
	}
	return nil
}

// Scaled returns a copy with every value multiplied by x
func (e *Exposures) Scaled(x float64) *Exposures {
	out := &Exposures{
		Values:        make([]float64, len(e.Values)),
		Centroids:     e.Centroids,
		ImpactFuncIDs: e.ImpactFuncIDs,
		ValueUnit:     e.ValueUnit,
	}
	for i, v := range e.Values {
		out.Values[i] = v * x
	}
	return out
}

// Total is the sum of all exposed values
func (e *Exposures) Total() float64 {
	var sum float64
	for _, v := range e.Values {
		sum += v
	}
	return sum
}
