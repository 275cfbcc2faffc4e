package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gounc/domain/core"
	"gounc/domain/uncertainty"
)

const (
	DefaultResamples = 100
	DefaultConfLevel = 0.95
	minBlocks        = 2
)

// An output whose variance is below varianceFloor times its squared mean is
// treated as constant.
const varianceFloor = 1e-24

// Skip reasons recorded on uncertainty.SkippedComponent
const (
	ReasonTooFewBlocks = "fewer than 2 complete sample blocks"
	ReasonZeroVariance = "zero output variance"
)

// SobolOptions configure the variance decomposition
type SobolOptions struct {
	// SecondOrder requests pairwise indices; the design must carry BA rows
	SecondOrder bool
	// Resamples is the bootstrap size for confidence intervals
	Resamples int
	// ConfLevel is the two-sided confidence level of the intervals
	ConfLevel float64
	// Seed drives the bootstrap; zero falls back to the design seed
	Seed   uint64
	Logger *zap.Logger
}

func (o SobolOptions) withDefaults(meta uncertainty.DesignMeta) (SobolOptions, error) {
	if o.Resamples <= 0 {
		o.Resamples = DefaultResamples
	}
	if o.ConfLevel == 0 {
		o.ConfLevel = DefaultConfLevel
	}
	if o.ConfLevel <= 0 || o.ConfLevel >= 1 {
		return o, fmt.Errorf("confidence level must be in (0, 1), got %g", o.ConfLevel)
	}
	if o.Seed == 0 {
		o.Seed = meta.Seed
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o, nil
}

// CheckCompatible verifies that table was computed on design and that design
// can be inverted by the Sobol estimators.
func CheckCompatible(design *uncertainty.SampleDesign, table *uncertainty.ResultTable, secondOrder bool) error {
	if design == nil {
		return core.ErrNoDesign
	}
	if table == nil {
		return core.ErrNoResults
	}
	meta := design.Meta()
	if meta.Scheme != uncertainty.SchemeSaltelli {
		return core.NewStaleSensitivityError(fmt.Sprintf("design scheme %q does not support Sobol indices", meta.Scheme))
	}
	if !table.DesignFingerprint().Equals(design.Fingerprint()) {
		return core.NewStaleSensitivityError(fmt.Sprintf("results computed on design %s, current design is %s",
			table.DesignFingerprint().Short(), design.Fingerprint().Short()))
	}
	step := design.Layout().Step()
	if table.Rows() != design.Rows() || table.Rows()%step != 0 {
		return core.NewStaleSensitivityError(fmt.Sprintf("%d result rows do not form blocks of %d", table.Rows(), step))
	}
	if secondOrder && !meta.SecondOrder {
		return core.NewStaleSensitivityError("second-order indices requested but the design has no second-order rows")
	}
	return nil
}

// Sobol computes first-order (Saltelli 2010) and total-order (Jansen 1999)
// indices, and optionally second-order (Saltelli 2002) indices, for every
// result column. Blocks with a failed or non-finite row are left out of that
// column's estimate; columns with fewer than two blocks left or with zero
// variance are reported in Skipped instead.
func Sobol(design *uncertainty.SampleDesign, table *uncertainty.ResultTable, opts SobolOptions) (*uncertainty.Sensitivity, error) {
	if err := CheckCompatible(design, table, opts.SecondOrder); err != nil {
		return nil, err
	}
	opts, err := opts.withDefaults(design.Meta())
	if err != nil {
		return nil, err
	}

	layout := design.Layout()
	result := &uncertainty.Sensitivity{
		Params:            design.Columns(),
		SecondOrder:       opts.SecondOrder,
		DesignFingerprint: design.Fingerprint(),
	}
	z := distuv.UnitNormal.Quantile(0.5 + opts.ConfLevel/2)

	for j, comp := range table.Components() {
		blocks := collectBlocks(table.Column(j), layout, design.Meta().NBase, opts.SecondOrder)
		if blocks.n() < minBlocks {
			result.Skipped = append(result.Skipped, uncertainty.SkippedComponent{Component: comp, Reason: ReasonTooFewBlocks})
			opts.Logger.Warn("sensitivity skipped", zap.String("component", comp.Name()), zap.String("reason", ReasonTooFewBlocks), zap.Int("blocks", blocks.n()))
			continue
		}
		if blocks.degenerate() {
			result.Skipped = append(result.Skipped, uncertainty.SkippedComponent{Component: comp, Reason: ReasonZeroVariance})
			opts.Logger.Warn("sensitivity skipped", zap.String("component", comp.Name()), zap.String("reason", ReasonZeroVariance))
			continue
		}

		rng := rand.New(rand.NewPCG(opts.Seed, uint64(j)+1))
		cs := blocks.decompose(result.Params, opts, z, rng)
		cs.Component = comp
		result.Components = append(result.Components, cs)
		opts.Logger.Debug("sensitivity computed", zap.String("component", comp.Name()), zap.Int("blocks", cs.Blocks))
	}
	return result, nil
}

// blockSet holds one column regrouped by Saltelli block, restricted to
// complete blocks: a[b], b[b], ab[k][b], ba[k][b].
type blockSet struct {
	a, b   []float64
	ab, ba [][]float64
}

func collectBlocks(col []float64, layout uncertainty.SaltelliLayout, nBase int, secondOrder bool) blockSet {
	d := layout.D
	s := blockSet{ab: make([][]float64, d)}
	if secondOrder {
		s.ba = make([][]float64, d)
	}
	for blk := 0; blk < nBase; blk++ {
		start := layout.A(blk)
		if !allFinite(col[start : start+layout.Step()]) {
			continue
		}
		s.a = append(s.a, col[layout.A(blk)])
		s.b = append(s.b, col[layout.B(blk)])
		for k := 0; k < d; k++ {
			s.ab[k] = append(s.ab[k], col[layout.AB(blk, k)])
			if secondOrder {
				s.ba[k] = append(s.ba[k], col[layout.BA(blk, k)])
			}
		}
	}
	return s
}

func (s blockSet) n() int { return len(s.a) }

// variance is the population variance of the pooled A and B outputs over the
// blocks in idx, or over all blocks when idx is nil.
func (s blockSet) variance(idx []int) float64 {
	pooled := make([]float64, 0, 2*s.n())
	pooled = append(pooled, pick(s.a, idx)...)
	pooled = append(pooled, pick(s.b, idx)...)
	return stat.PopVariance(pooled, nil)
}

func (s blockSet) degenerate() bool {
	m := (stat.Mean(s.a, nil) + stat.Mean(s.b, nil)) / 2
	return s.variance(nil) <= varianceFloor*math.Max(1, m*m)
}

func (s blockSet) firstOrder(k int, idx []int, v float64) float64 {
	a, b, ab := pick(s.a, idx), pick(s.b, idx), pick(s.ab[k], idx)
	var sum float64
	for i := range a {
		sum += b[i] * (ab[i] - a[i])
	}
	return sum / float64(len(a)) / v
}

func (s blockSet) totalOrder(k int, idx []int, v float64) float64 {
	a, ab := pick(s.a, idx), pick(s.ab[k], idx)
	var sum float64
	for i := range a {
		diff := a[i] - ab[i]
		sum += diff * diff
	}
	return 0.5 * sum / float64(len(a)) / v
}

func (s blockSet) secondOrder(j, k int, idx []int, v float64) float64 {
	a, b := pick(s.a, idx), pick(s.b, idx)
	baj, abk := pick(s.ba[j], idx), pick(s.ab[k], idx)
	var sum float64
	for i := range a {
		sum += baj[i]*abk[i] - a[i]*b[i]
	}
	vjk := sum / float64(len(a)) / v
	return vjk - s.firstOrder(j, idx, v) - s.firstOrder(k, idx, v)
}

func (s blockSet) decompose(params []string, opts SobolOptions, z float64, rng *rand.Rand) uncertainty.ComponentSensitivity {
	d := len(params)
	n := s.n()
	v := s.variance(nil)

	// Each resample draws block indices with replacement, shared by every
	// parameter so the intervals are comparable.
	resamples := make([][]int, opts.Resamples)
	variances := make([]float64, opts.Resamples)
	for r := range resamples {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.IntN(n)
		}
		resamples[r] = idx
		variances[r] = s.variance(idx)
	}

	conf := func(estimate func(idx []int, v float64) float64) float64 {
		boot := make([]float64, 0, len(resamples))
		for r, idx := range resamples {
			if variances[r] <= 0 {
				continue
			}
			boot = append(boot, estimate(idx, variances[r]))
		}
		if len(boot) < 2 {
			return math.NaN()
		}
		return z * stat.StdDev(boot, nil)
	}

	cs := uncertainty.ComponentSensitivity{Indices: make([]uncertainty.Index, d), Blocks: n}
	for k, name := range params {
		cs.Indices[k] = uncertainty.Index{
			Param:  name,
			S1:     s.firstOrder(k, nil, v),
			S1Conf: conf(func(idx []int, v float64) float64 { return s.firstOrder(k, idx, v) }),
			ST:     s.totalOrder(k, nil, v),
			STConf: conf(func(idx []int, v float64) float64 { return s.totalOrder(k, idx, v) }),
		}
	}

	if opts.SecondOrder {
		cs.S2 = nanMatrix(d)
		cs.S2Conf = nanMatrix(d)
		for j := 0; j < d; j++ {
			for k := j + 1; k < d; k++ {
				cs.S2[j][k] = s.secondOrder(j, k, nil, v)
				cs.S2Conf[j][k] = conf(func(idx []int, v float64) float64 { return s.secondOrder(j, k, idx, v) })
			}
		}
	}
	return cs
}

// pick returns xs[idx...], or xs itself when idx is nil
func pick(xs []float64, idx []int) []float64 {
	if idx == nil {
		return xs
	}
	out := make([]float64, len(idx))
	for i, k := range idx {
		out[i] = xs[k]
	}
	return out
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func nanMatrix(d int) [][]float64 {
	m := make([][]float64, d)
	for i := range m {
		m[i] = make([]float64, d)
		for j := range m[i] {
			m[i][j] = math.NaN()
		}
	}
	return m
}
