package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigDig(t *testing.T) {
	tests := []struct {
		x    float64
		n    int
		want float64
	}{
		{1.234567, 5, 1.2346},
		{123456.89, 5, 123460},
		{-0.000123456, 2, -0.00012},
		{2.5, 1, 2},
		{3.5, 1, 4},
		{42, 16, 42},
		{0, 3, 0},
		{1.5, 0, 1.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SigDig(tt.x, tt.n), "SigDig(%v, %d)", tt.x, tt.n)
	}
	assert.True(t, math.IsNaN(SigDig(math.NaN(), 3)))
}

func TestSigDigList(t *testing.T) {
	assert.Equal(t, []float64{1.23, 4570}, SigDigList([]float64{1.2345, 4567.8}, 3))
}

func TestValueToMonetaryUnit(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		n      int
		want   []float64
		unit   string
	}{
		{"millions", []float64{1e6, 2.5e7}, 0, []float64{1, 25}, "M"},
		{"middle exponent", []float64{1234, 5e9}, 0, []float64{0.001234, 5000}, "M"},
		{"thousands rounded", []float64{12345.678}, 3, []float64{12.3}, "K"},
		{"below one", []float64{0.5}, 0, []float64{0.5}, ""},
		{"beyond trillions", []float64{5e15}, 0, []float64{5000}, "Tn"},
		{"zero counts as one", []float64{0, 0}, 0, []float64{0, 0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unit := ValueToMonetaryUnit(tt.values, tt.n)
			assert.Equal(t, tt.unit, unit)
			assert.InDeltaSlice(t, tt.want, got, 1e-9)
		})
	}

	got, unit := ValueToMonetaryUnit(nil, 3)
	assert.Nil(t, got)
	assert.Empty(t, unit)
}

func TestValToCat(t *testing.T) {
	assert.Equal(t, []int{0, 1, 0, 1, 1, 2}, ValToCat([]int{1, 2, 1, 2, 2, 10}))
	assert.Equal(t, []int{1, 0, 1}, ValToCat([]string{"b", "a", "b"}))
	assert.Empty(t, ValToCat([]float64{}))
}
