package report

import (
	"cmp"
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// unit is a monetary scale and its abbreviation
type unit struct {
	scale float64
	name  string
}

var units = []unit{
	{1, ""},
	{1e3, "K"},
	{1e6, "M"},
	{1e9, "Bn"},
	{1e12, "Tn"},
}

// SigDig rounds x to n significant digits, half to even:
// 1.234567 -> 1.2346 and 123456.89 -> 123460 for n = 5.
// Zero, non-finite values and n <= 0 are returned unchanged.
func SigDig(x float64, n int) float64 {
	if n <= 0 || x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	exp := int32(math.Floor(math.Log10(math.Abs(x)))) + 1 - int32(n)
	d := decimal.NewFromFloat(x).Shift(-exp).RoundBank(0).Shift(exp)
	return d.InexactFloat64()
}

// SigDigList rounds every value to n significant digits
func SigDigList(xs []float64, n int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = SigDig(x, n)
	}
	return out
}

// ValueToMonetaryUnit expresses values in the common unit (K, M, Bn, Tn)
// picked from the middle of their decimal exponent range. Values below one
// stay unscaled and values beyond trillions are expressed in Tn.
// n > 0 additionally rounds to n significant digits.
func ValueToMonetaryUnit(values []float64, n int) ([]float64, string) {
	if len(values) == 0 {
		return nil, ""
	}
	u := monetaryUnit(values)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = SigDig(v/u.scale, n)
	}
	return out, u.name
}

func monetaryUnit(values []float64) unit {
	if len(values) == 0 {
		return units[0]
	}
	minExp, maxExp := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		e := 0.0
		if v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			e = math.Log10(math.Abs(v))
		}
		minExp = math.Min(minExp, e)
		maxExp = math.Max(maxExp, e)
	}
	avgExp := math.Floor((maxExp + minExp) / 2)
	milExp := 3 * int(math.Floor(avgExp/3))
	return units[max(0, min(milExp/3, len(units)-1))]
}

// ValToCat maps values onto category numbers assigned in ascending value
// order: [1 2 1 2 2 10] -> [0 1 0 1 1 2]
func ValToCat[T cmp.Ordered](values []T) []int {
	uniq := slices.Clone(values)
	slices.Sort(uniq)
	uniq = slices.Compact(uniq)

	out := make([]int, len(values))
	for i, v := range values {
		out[i], _ = slices.BinarySearch(uniq, v)
	}
	return out
}
