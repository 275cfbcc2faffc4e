package uncertainty

import (
	"sort"

	"gounc/domain/core"
)

// Param binds a parameter name to its distribution
type Param struct {
	Name string
	Dist Distribution
}

// P is shorthand for Param{Name: name, Dist: dist}
func P(name string, dist Distribution) Param {
	return Param{Name: name, Dist: dist}
}

// Assignment is the loosely typed name -> value view handed to generators and
// model closures. Internally parameters are addressed by column index.
type Assignment map[string]float64

// Keys returns the assignment's keys in sorted order
func (a Assignment) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ParamSpace is the ordered, strongly indexed set of every parameter of a
// run. Column j of a sample design is parameter Names()[j].
type ParamSpace struct {
	names []string
	dists []Distribution
	index map[string]int
}

// NewParamSpace concatenates the parameters of every input in order.
// A name declared by two inputs is a contract error.
func NewParamSpace(inputs ...Parameters) (*ParamSpace, error) {
	space := &ParamSpace{index: make(map[string]int)}
	for _, in := range inputs {
		for _, p := range in.Params() {
			if _, dup := space.index[p.Name]; dup {
				return nil, core.NewDuplicateParameterError(p.Name)
			}
			space.index[p.Name] = len(space.names)
			space.names = append(space.names, p.Name)
			space.dists = append(space.dists, p.Dist)
		}
	}
	return space, nil
}

// Len is the total parameter count d
func (s *ParamSpace) Len() int { return len(s.names) }

// Names returns a copy of the ordered parameter names
func (s *ParamSpace) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Distributions returns the distributions in column order
func (s *ParamSpace) Distributions() []Distribution {
	out := make([]Distribution, len(s.dists))
	copy(out, s.dists)
	return out
}

// Index returns the column index of name
func (s *ParamSpace) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Assignment rebuilds the mapping view of one design row
func (s *ParamSpace) Assignment(row []float64) Assignment {
	a := make(Assignment, len(s.names))
	for j, name := range s.names {
		a[name] = row[j]
	}
	return a
}
