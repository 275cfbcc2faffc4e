// Package sampling builds sample designs over the joint parameter space of a
// set of uncertain inputs.
package sampling

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/samplemv"

	"gounc/domain/core"
	"gounc/domain/uncertainty"
)

// DefaultSeed is used when Options.Seed is zero
const DefaultSeed uint64 = 0x5eed

// Options configure a design
type Options struct {
	NSamples    int
	SecondOrder bool
	Seed        uint64
	Scheme      uncertainty.Scheme
}

// WithDefaults fills the scheme and seed defaults
func (o Options) WithDefaults() Options {
	if o.Scheme == "" {
		o.Scheme = uncertainty.SchemeSaltelli
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	return o
}

// RowCount is the realized row count of a design with these options over d
// parameters
func (o Options) RowCount(d int) int {
	o = o.WithDefaults()
	meta := uncertainty.DesignMeta{Scheme: o.Scheme, SecondOrder: o.SecondOrder}
	return o.NSamples * meta.BlockSize(d)
}

// Build draws a design over every parameter of inputs, in input order.
// Contract errors (bad sample count, duplicate parameter names, unknown
// scheme) are returned before any point is generated.
func Build(opts Options, inputs ...uncertainty.Parameters) (*uncertainty.SampleDesign, error) {
	opts = opts.WithDefaults()
	if opts.NSamples <= 0 {
		return nil, core.NewInvalidSampleCountError(opts.NSamples)
	}

	space, err := uncertainty.NewParamSpace(inputs...)
	if err != nil {
		return nil, err
	}
	if space.Len() == 0 {
		return nil, fmt.Errorf("%w: no uncertain parameters declared", core.ErrParameterMismatch)
	}

	meta := uncertainty.DesignMeta{
		Scheme:      opts.Scheme,
		NBase:       opts.NSamples,
		SecondOrder: opts.SecondOrder,
		Seed:        opts.Seed,
	}

	var values []float64
	switch opts.Scheme {
	case uncertainty.SchemeSaltelli:
		values = saltelli(space, opts)
	case uncertainty.SchemeLatin:
		if opts.SecondOrder {
			return nil, fmt.Errorf("%w: second order requires the %s scheme", core.ErrUnknownScheme, uncertainty.SchemeSaltelli)
		}
		values = latin(space, opts)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownScheme, opts.Scheme)
	}

	return uncertainty.NewSampleDesign(meta, space, values)
}

// saltelli draws n base points in 2d dimensions from a scrambled Halton
// sequence, A being the first d coordinates and B the last d, and expands
// each into its cross-matrix block.
func saltelli(space *uncertainty.ParamSpace, opts Options) []float64 {
	d := space.Len()
	dists := space.Distributions()
	base := mat.NewDense(opts.NSamples, 2*d, nil)
	samplemv.Halton{
		Kind: samplemv.Owen,
		Q:    marginals(append(dists, dists...)),
		Src:  source(opts.Seed),
	}.Sample(base)

	layout := uncertainty.SaltelliLayout{D: d, SecondOrder: opts.SecondOrder}
	values := make([]float64, opts.NSamples*layout.Step()*d)
	row := func(r int) []float64 { return values[r*d : (r+1)*d] }

	for b := 0; b < opts.NSamples; b++ {
		pt := base.RawRowView(b)
		a, bb := pt[:d], pt[d:]

		copy(row(layout.A(b)), a)
		for j := 0; j < d; j++ {
			ab := row(layout.AB(b, j))
			copy(ab, a)
			ab[j] = bb[j]
		}
		if opts.SecondOrder {
			for j := 0; j < d; j++ {
				ba := row(layout.BA(b, j))
				copy(ba, bb)
				ba[j] = a[j]
			}
		}
		copy(row(layout.B(b)), bb)
	}
	return values
}

func latin(space *uncertainty.ParamSpace, opts Options) []float64 {
	d := space.Len()
	m := mat.NewDense(opts.NSamples, d, nil)
	samplemv.LatinHypercube{
		Q:   marginals(space.Distributions()),
		Src: source(opts.Seed),
	}.Sample(m)
	return m.RawMatrix().Data
}

func source(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// marginals maps each unit-hypercube coordinate through its own parameter's
// inverse CDF. It implements distmv.Quantiler.
type marginals []uncertainty.Distribution

func (m marginals) Quantile(x, p []float64) []float64 {
	if len(p) != len(m) {
		panic("sampling: dimension mismatch")
	}
	if x == nil {
		x = make([]float64, len(p))
	}
	for i, pi := range p {
		x[i] = uncertainty.Draw(m[i], pi)
	}
	return x
}
