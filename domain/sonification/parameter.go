package sonification

import "fmt"

// Parameter is a named, bounded synth control with a default value
type Parameter struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// NewParameter creates a Parameter with validation
func NewParameter(name string, min, max, defaultValue float64) (Parameter, error) {
	if name == "" {
		return Parameter{}, fmt.Errorf("parameter name is required")
	}
	if max <= min {
		return Parameter{}, fmt.Errorf("parameter %q: max %g must be greater than min %g", name, max, min)
	}
	if defaultValue < min || defaultValue > max {
		return Parameter{}, fmt.Errorf("parameter %q: default %g outside [%g, %g]", name, defaultValue, min, max)
	}
	return Parameter{Name: name, Min: min, Max: max, Default: defaultValue}, nil
}

// Clamp bounds v to the parameter's range
func (p Parameter) Clamp(v float64) float64 {
	if v < p.Min {
		return p.Min
	}
	if v > p.Max {
		return p.Max
	}
	return v
}

// Mapping links a feature column to a synth control with linear scaling:
// values in [InMin, InMax] map to [OutMin, OutMax], clamped at the output
// range bounds.
type Mapping struct {
	Column  string
	Control string
	InMin   float64
	InMax   float64
	OutMin  float64
	OutMax  float64
}

// Validate checks that the mapping is usable
func (m Mapping) Validate() error {
	if m.Column == "" {
		return fmt.Errorf("mapping needs a feature column")
	}
	if m.Control == "" {
		return fmt.Errorf("mapping for column %q needs a synth control", m.Column)
	}
	if m.InMax == m.InMin {
		return fmt.Errorf("mapping %s->%s: input range is empty", m.Column, m.Control)
	}
	return nil
}

// Scale maps v linearly from the input range to the output range, clamped
func (m Mapping) Scale(v float64) float64 {
	out := m.OutMin + (v-m.InMin)*(m.OutMax-m.OutMin)/(m.InMax-m.InMin)

	lo, hi := m.OutMin, m.OutMax
	if lo > hi {
		lo, hi = hi, lo
	}
	if out < lo {
		return lo
	}
	if out > hi {
		return hi
	}
	return out
}
