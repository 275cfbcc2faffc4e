package uncertainty

import (
	"math"
)

// Distribution is a univariate probability distribution addressed through its
// inverse CDF. Every gonum distuv distribution (Uniform, Normal, LogNormal,
// Beta, Gamma, Triangle, Weibull, ...) satisfies it.
type Distribution interface {
	Quantile(p float64) float64
}

// Draw maps a unit-interval value onto the distribution's native domain.
// p is clamped into the open interval (0, 1) so unbounded distributions never
// return an infinite value for a sample that landed on the boundary.
func Draw(d Distribution, p float64) float64 {
	return d.Quantile(openUnit(p))
}

// Median is the distribution's 50% quantile
func Median(d Distribution) float64 {
	return d.Quantile(0.5)
}

// unitEps keeps 2p-1 away from +/-1 for quantiles built on Erfinv
const unitEps = 1e-15

func openUnit(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0.5
	case p < unitEps:
		return unitEps
	case p > 1-unitEps:
		return 1 - unitEps
	}
	return p
}

// DiscreteUniform picks one of Values with equal probability. It is used for
// categorical choices, e.g. the index of one of several exposure sets.
type DiscreteUniform struct {
	Values []float64
}

// Quantile returns Values[floor(p*n)]
func (d DiscreteUniform) Quantile(p float64) float64 {
	n := len(d.Values)
	if n == 0 {
		return math.NaN()
	}
	idx := int(math.Floor(openUnit(p) * float64(n)))
	if idx >= n {
		idx = n - 1
	}
	return d.Values[idx]
}

// IntRange returns a DiscreteUniform over the integers lo..hi inclusive
func IntRange(lo, hi int) DiscreteUniform {
	if hi < lo {
		lo, hi = hi, lo
	}
	values := make([]float64, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		values = append(values, float64(v))
	}
	return DiscreteUniform{Values: values}
}
