package stage

import (
	"gounc/domain/core"
)

// Name identifies a stage of an uncertainty run
type Name string

const (
	Sample       Name = "sample"
	Evaluate     Name = "evaluate"
	Distribution Name = "distribution"
	Sensitivity  Name = "sensitivity"
)

// Order lists the stages upstream first
var Order = []Name{Sample, Evaluate, Distribution, Sensitivity}

// DependsOn lists the stages whose output n consumes
func (n Name) DependsOn() []Name {
	switch n {
	case Evaluate:
		return []Name{Sample}
	case Distribution:
		return []Name{Evaluate}
	case Sensitivity:
		return []Name{Sample, Evaluate}
	default:
		return nil
	}
}

// Downstream lists, in Order, every stage invalidated when n is recomputed
func (n Name) Downstream() []Name {
	stale := map[Name]bool{n: true}
	var out []Name
	for _, other := range Order {
		for _, dep := range other.DependsOn() {
			if stale[dep] && !stale[other] {
				stale[other] = true
				out = append(out, other)
				break
			}
		}
	}
	return out
}

// Status describes the cached output of one stage. Version increases every
// time the stage is recomputed; it is zero before the first run.
type Status struct {
	Name        Name           `json:"name"`
	Ready       bool           `json:"ready"`
	Version     int            `json:"version"`
	Fingerprint core.Hash      `json:"fingerprint,omitempty"`
	UpdatedAt   core.Timestamp `json:"updated_at"`
}
