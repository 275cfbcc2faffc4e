// Package riskcalc computes impacts, exceedance frequency curves and
// cost-benefit appraisals. Every function is pure and safe for concurrent use.
package riskcalc

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"gounc/domain/risk"
)

// Impact is the damage of a hazard event set on a set of exposures
type Impact struct {
	EventIDs  []int     `json:"event_ids"`
	Frequency []float64 `json:"frequency"`
	// AtEvent[e] is the total damage of event e
	AtEvent []float64 `json:"at_event"`
	// EAIExp[i] is the expected annual damage at exposure point i
	EAIExp []float64 `json:"eai_exp"`
	// AAIAgg is the average annual impact over all points
	AAIAgg float64 `json:"aai_agg"`
}

// CalcImpact computes the damage of every event at every exposure point.
// Points whose impact function is missing from impfs are an error.
func CalcImpact(exp *risk.Exposures, impfs *risk.ImpactFuncSet, haz *risk.Hazard) (*Impact, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	if err := haz.Validate(); err != nil {
		return nil, err
	}

	imp := &Impact{
		EventIDs:  haz.EventIDs,
		Frequency: haz.Frequency,
		AtEvent:   make([]float64, haz.Events()),
		EAIExp:    make([]float64, exp.Len()),
	}
	nc := haz.Centroids()
	for i := 0; i < exp.Len(); i++ {
		c := exp.Centroids[i]
		if c >= nc {
			return nil, fmt.Errorf("exposure point %d on centroid %d, hazard has %d", i, c, nc)
		}
		f, ok := impfs.Get(haz.Type, exp.ImpactFuncID(i))
		if !ok {
			return nil, fmt.Errorf("no %s impact function with id %d for exposure point %d", haz.Type, exp.ImpactFuncID(i), i)
		}
		v := exp.Values[i]
		for e, row := range haz.Intensity {
			if row[c] == 0 {
				continue
			}
			d := v * f.MDR(row[c])
			imp.AtEvent[e] += d
			imp.EAIExp[i] += d * haz.Frequency[e]
		}
	}
	imp.AAIAgg = floats.Sum(imp.EAIExp)
	return imp, nil
}

// FreqCurve interpolates the impact exceeded at each return period. Events
// are ordered by decreasing impact and their frequencies accumulated into
// exceedance frequencies; return periods outside the event range take the
// nearest endpoint impact.
func (imp *Impact) FreqCurve(returnPeriods []float64) ([]float64, error) {
	out := make([]float64, len(returnPeriods))
	n := len(imp.AtEvent)
	if n == 0 {
		return out, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return imp.AtEvent[order[a]] > imp.AtEvent[order[b]] })

	// Walk from the most frequent (smallest) impact up so return periods
	// come out increasing.
	rp := make([]float64, 0, n)
	val := make([]float64, 0, n)
	var exceed float64
	exceedance := make([]float64, n)
	for k, idx := range order {
		exceed += imp.Frequency[idx]
		exceedance[k] = exceed
	}
	for k := n - 1; k >= 0; k-- {
		if exceedance[k] <= 0 {
			continue
		}
		r := 1 / exceedance[k]
		v := imp.AtEvent[order[k]]
		if m := len(rp); m > 0 && r <= rp[m-1] {
			val[m-1] = v
			continue
		}
		rp = append(rp, r)
		val = append(val, v)
	}

	switch len(rp) {
	case 0:
		return out, nil
	case 1:
		for i := range out {
			out[i] = val[0]
		}
		return out, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(rp, val); err != nil {
		return nil, fmt.Errorf("failed to fit frequency curve: %w", err)
	}
	for i, r := range returnPeriods {
		switch {
		case r <= rp[0]:
			out[i] = val[0]
		case r >= rp[len(rp)-1]:
			out[i] = val[len(val)-1]
		default:
			out[i] = pl.Predict(r)
		}
	}
	return out, nil
}
