package riskcalc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"gounc/domain/risk"
)

// HazardTC is the tropical cyclone hazard type
const HazardTC = "TC"

// KnutsonParams parametrize the tropical cyclone wind damage curve of
// Knutson et al. (2011) as used by Emanuel (2011)
type KnutsonParams struct {
	// G is the maximum impact
	G float64
	// VHalf is the wind speed at which half the maximum impact is reached
	VHalf float64
	// VMin is the wind speed below which there is no impact
	VMin float64
	// K is the curve exponent
	K float64
}

// DefaultKnutson are the reference curve parameters
var DefaultKnutson = KnutsonParams{G: 1, VHalf: 84.7, VMin: 25.7, K: 3}

// knutsonPoints covers 0..150 m/s
const (
	knutsonPoints = 100
	knutsonMaxV   = 150
)

// PAA evaluates the curve at wind speed v
func (p KnutsonParams) PAA(v float64) float64 {
	xhi := math.Max(v-p.VMin, 0) / (p.VHalf - p.VMin)
	xk := math.Pow(xhi, p.K)
	return p.G * xk / (1 + xk)
}

// KnutsonImpactFuncSet returns a set holding one TC impact function with
// unit MDD and the Knutson PAA curve sampled on 100 points over 0..150 m/s
func KnutsonImpactFuncSet(p KnutsonParams, id int) (*risk.ImpactFuncSet, error) {
	if p.VHalf <= p.VMin {
		return nil, fmt.Errorf("knutson: v_half %g must exceed v_min %g", p.VHalf, p.VMin)
	}
	intensity := floats.Span(make([]float64, knutsonPoints), 0, knutsonMaxV)
	mdd := make([]float64, knutsonPoints)
	paa := make([]float64, knutsonPoints)
	for i, v := range intensity {
		mdd[i] = 1
		paa[i] = p.PAA(v)
	}
	f, err := risk.NewImpactFunc(id, HazardTC, intensity, mdd, paa)
	if err != nil {
		return nil, err
	}
	f.IntensityUnit = "m/s"
	return risk.NewImpactFuncSet(f)
}
