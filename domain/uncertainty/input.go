package uncertainty

import (
	"fmt"

	"gounc/domain/core"
)

// Parameters is the type-erased view of an Input used by the design builder
type Parameters interface {
	Label() string
	Params() []Param
}

// Generator materializes a model-input artifact from a parameter assignment.
// It must be pure: the same assignment always yields an equivalent artifact.
type Generator[T any] func(Assignment) (T, error)

// Input is one uncertain model ingredient: a generator bound to named
// parameters with distributions. It is immutable after construction and safe
// for concurrent use.
type Input[T any] struct {
	label  string
	gen    Generator[T]
	params []Param
	index  map[string]int
}

// NewInput declares an uncertain input. Parameter order is kept as given and
// is the order the input's columns appear in a sample design.
func NewInput[T any](label string, gen Generator[T], params ...Param) (*Input[T], error) {
	if gen == nil {
		return nil, fmt.Errorf("%w: input %q has no generator", core.ErrParameterMismatch, label)
	}
	in := &Input[T]{
		label:  label,
		gen:    gen,
		params: make([]Param, 0, len(params)),
		index:  make(map[string]int, len(params)),
	}
	for _, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: input %q has an unnamed parameter", core.ErrParameterMismatch, label)
		}
		if p.Dist == nil {
			return nil, fmt.Errorf("%w: parameter %q of input %q has no distribution", core.ErrParameterMismatch, p.Name, label)
		}
		if _, dup := in.index[p.Name]; dup {
			return nil, core.NewDuplicateParameterError(p.Name)
		}
		in.index[p.Name] = len(in.params)
		in.params = append(in.params, p)
	}
	return in, nil
}

// MustInput is NewInput that panics on a declaration error
func MustInput[T any](label string, gen Generator[T], params ...Param) *Input[T] {
	in, err := NewInput(label, gen, params...)
	if err != nil {
		panic(err)
	}
	return in
}

// Fixed declares a certain input without parameters
func Fixed[T any](label string, value T) *Input[T] {
	return &Input[T]{
		label: label,
		gen:   func(Assignment) (T, error) { return value, nil },
		index: map[string]int{},
	}
}

// WithDistributions returns a copy of in whose parameters named in dists
// use the given distributions. Names in does not declare are ignored.
func (in *Input[T]) WithDistributions(dists map[string]Distribution) *Input[T] {
	out := &Input[T]{
		label:  in.label,
		gen:    in.gen,
		params: make([]Param, len(in.params)),
		index:  in.index,
	}
	for i, p := range in.params {
		if d, ok := dists[p.Name]; ok && d != nil {
			p.Dist = d
		}
		out.params[i] = p
	}
	return out
}

// Label names the input in logs and errors
func (in *Input[T]) Label() string { return in.label }

// Params returns a copy of the declared parameters
func (in *Input[T]) Params() []Param {
	out := make([]Param, len(in.params))
	copy(out, in.params)
	return out
}

// ParamNames returns the ordered parameter names
func (in *Input[T]) ParamNames() []string {
	names := make([]string, len(in.params))
	for i, p := range in.params {
		names[i] = p.Name
	}
	return names
}

// Distribution returns the distribution declared for name
func (in *Input[T]) Distribution(name string) (Distribution, bool) {
	i, ok := in.index[name]
	if !ok {
		return nil, false
	}
	return in.params[i].Dist, true
}

// Evaluate materializes the artifact for an assignment whose keys are exactly
// the declared parameter names.
func (in *Input[T]) Evaluate(a Assignment) (T, error) {
	var zero T
	if err := in.checkKeys(a); err != nil {
		return zero, err
	}
	return in.gen(a)
}

// EvaluateFrom selects the input's own parameters from a full design-row
// assignment and evaluates them. Keys belonging to other inputs are ignored.
func (in *Input[T]) EvaluateFrom(row Assignment) (T, error) {
	var zero T
	own := make(Assignment, len(in.params))
	var missing []string
	for _, p := range in.params {
		v, ok := row[p.Name]
		if !ok {
			missing = append(missing, p.Name)
			continue
		}
		own[p.Name] = v
	}
	if len(missing) > 0 {
		return zero, core.NewParameterMismatchError(in.label, missing, nil)
	}
	return in.gen(own)
}

// Median returns the assignment at each distribution's median
func (in *Input[T]) Median() Assignment {
	a := make(Assignment, len(in.params))
	for _, p := range in.params {
		a[p.Name] = Median(p.Dist)
	}
	return a
}

// DrawDefault evaluates the input at its median point, overridden by any
// values in fixed. It is the baseline, non-uncertain run of the input.
func (in *Input[T]) DrawDefault(fixed Assignment) (T, error) {
	var zero T
	a := in.Median()
	var extra []string
	for k, v := range fixed {
		if _, ok := in.index[k]; !ok {
			extra = append(extra, k)
			continue
		}
		a[k] = v
	}
	if len(extra) > 0 {
		return zero, core.NewParameterMismatchError(in.label, nil, extra)
	}
	return in.gen(a)
}

func (in *Input[T]) checkKeys(a Assignment) error {
	var missing, extra []string
	for _, p := range in.params {
		if _, ok := a[p.Name]; !ok {
			missing = append(missing, p.Name)
		}
	}
	for _, k := range a.Keys() {
		if _, ok := in.index[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return core.NewParameterMismatchError(in.label, missing, extra)
	}
	return nil
}
