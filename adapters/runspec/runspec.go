// Package runspec reads run declarations from YAML files.
package runspec

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"

	"gounc/domain/uncertainty"
)

// Spec declares one uncertainty run: the model, how to sample it and the
// distributions that replace the model's default parameter declarations
type Spec struct {
	Name        string        `yaml:"name"`
	Model       string        `yaml:"model"`
	Workers     int           `yaml:"workers"`
	Sampling    Sampling      `yaml:"sampling"`
	Sensitivity Sensitivity   `yaml:"sensitivity"`
	Params      []ParamSpec   `yaml:"params"`
	Impact      ImpactOptions `yaml:"impact"`
	CostBenefit CostOptions   `yaml:"cost_benefit"`
}

// Sampling configures the sample design
type Sampling struct {
	NSamples    int    `yaml:"n_samples"`
	SecondOrder bool   `yaml:"second_order"`
	Scheme      string `yaml:"scheme"`
	Seed        uint64 `yaml:"seed"`
}

// Sensitivity configures the Sobol bootstrap
type Sensitivity struct {
	Resamples int     `yaml:"resamples"`
	ConfLevel float64 `yaml:"conf_level"`
}

// ImpactOptions select the optional impact metrics
type ImpactOptions struct {
	ReturnPeriods []float64 `yaml:"return_periods"`
	EAIExp        bool      `yaml:"eai_exp"`
	AtEvent       bool      `yaml:"at_event"`
}

// CostOptions configure the cost-benefit model
type CostOptions struct {
	ImpTimeDepen float64 `yaml:"imp_time_depen"`
	// FutureGrowth declares a future hazard with frequency scaled by
	// the freq_growth parameter
	FutureGrowth bool `yaml:"future_growth"`
}

// ParamSpec declares one parameter distribution. Which fields apply
// depends on Dist.
type ParamSpec struct {
	Name   string    `yaml:"name"`
	Dist   string    `yaml:"dist"`
	Min    float64   `yaml:"min"`
	Max    float64   `yaml:"max"`
	Mu     float64   `yaml:"mu"`
	Sigma  float64   `yaml:"sigma"`
	Alpha  float64   `yaml:"alpha"`
	Beta   float64   `yaml:"beta"`
	Mode   float64   `yaml:"mode"`
	Values []float64 `yaml:"values"`
}

// Load reads and validates the run declaration at path
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a spec. Unknown fields are rejected.
func Parse(data []byte) (*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Spec
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("unmarshal run spec: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the model name, sample count and every distribution
func (s *Spec) Validate() error {
	if strings.TrimSpace(s.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if s.Sampling.NSamples < 0 {
		return fmt.Errorf("sampling.n_samples must not be negative, got %d", s.Sampling.NSamples)
	}
	switch uncertainty.Scheme(s.Sampling.Scheme) {
	case "", uncertainty.SchemeSaltelli, uncertainty.SchemeLatin:
	default:
		return fmt.Errorf("unknown sampling scheme %q", s.Sampling.Scheme)
	}
	seen := make(map[string]bool, len(s.Params))
	for _, p := range s.Params {
		if seen[p.Name] {
			return fmt.Errorf("parameter %q declared more than once", p.Name)
		}
		seen[p.Name] = true
		if _, err := p.Distribution(); err != nil {
			return err
		}
	}
	return nil
}

// Distributions returns the declared distributions by parameter name
func (s *Spec) Distributions() (map[string]uncertainty.Distribution, error) {
	out := make(map[string]uncertainty.Distribution, len(s.Params))
	for _, p := range s.Params {
		d, err := p.Distribution()
		if err != nil {
			return nil, err
		}
		out[p.Name] = d
	}
	return out, nil
}

// Distribution builds the declared distribution
func (p ParamSpec) Distribution() (uncertainty.Distribution, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("parameter name is required")
	}
	switch strings.ToLower(p.Dist) {
	case "uniform":
		if !(p.Min < p.Max) {
			return nil, p.invalid("requires min < max")
		}
		return distuv.Uniform{Min: p.Min, Max: p.Max}, nil
	case "normal":
		if !(p.Sigma > 0) {
			return nil, p.invalid("requires sigma > 0")
		}
		return distuv.Normal{Mu: p.Mu, Sigma: p.Sigma}, nil
	case "lognormal":
		if !(p.Sigma > 0) {
			return nil, p.invalid("requires sigma > 0")
		}
		return distuv.LogNormal{Mu: p.Mu, Sigma: p.Sigma}, nil
	case "beta":
		if !(p.Alpha > 0 && p.Beta > 0) {
			return nil, p.invalid("requires alpha > 0 and beta > 0")
		}
		return distuv.Beta{Alpha: p.Alpha, Beta: p.Beta}, nil
	case "triangle":
		if !(p.Min <= p.Mode && p.Mode <= p.Max && p.Min < p.Max) {
			return nil, p.invalid("requires min <= mode <= max and min < max")
		}
		return distuv.NewTriangle(p.Min, p.Max, p.Mode, nil), nil
	case "discrete":
		if len(p.Values) == 0 {
			return nil, p.invalid("requires values")
		}
		return uncertainty.DiscreteUniform{Values: append([]float64(nil), p.Values...)}, nil
	case "intrange":
		if p.Min != float64(int(p.Min)) || p.Max != float64(int(p.Max)) || p.Min > p.Max {
			return nil, p.invalid("requires integer min <= max")
		}
		return uncertainty.IntRange(int(p.Min), int(p.Max)), nil
	default:
		return nil, fmt.Errorf("parameter %q: unknown distribution %q", p.Name, p.Dist)
	}
}

func (p ParamSpec) invalid(reason string) error {
	return fmt.Errorf("parameter %q: %s distribution %s", p.Name, p.Dist, reason)
}
