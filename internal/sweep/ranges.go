// Package sweep plans the ordered traversal of the piezo parameter space.
// Given per-channel amplitude/bias/frequency ranges it produces the sequence
// of channel setpoints the experiment engine drives, either as a full
// cartesian product or as a lockstep (zipped) walk.
package sweep

import (
	"fmt"
	"strconv"
	"strings"
)

// maxValues bounds a single parameter range to keep a mistyped step from
// exhausting memory.
const maxValues = 10000

// RangeSpec defines one swept parameter: min, max and step. A zero step
// marks the parameter as fixed.
type RangeSpec struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}
	step, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid step value %q: %w", parts[2], err)
	}
	if step < 0 {
		return RangeSpec{}, fmt.Errorf("step must not be negative, got %f", step)
	}

	return RangeSpec{Min: min, Max: max, Step: step}, nil
}

// Values expands the range into the ordered values the sweep visits.
//
// A zero step means the parameter is fixed: the single value used is Max.
// Otherwise values run from Min to Max inclusive by Step, compared as plain
// floats: the last element may overshoot Max by up to one step's worth of
// accumulated rounding. That boundary behaviour is part of the contract and
// deliberately not corrected.
func (s RangeSpec) Values() []float64 {
	if s.Step == 0 {
		return []float64{s.Max}
	}
	if s.Step < 0 || s.Min > s.Max {
		return nil
	}

	var out []float64
	for v := s.Min; v <= s.Max; v += s.Step {
		if len(out) >= maxValues {
			break
		}
		out = append(out, v)
	}
	return out
}

// IsZero reports whether both bounds are exactly zero.
func (s RangeSpec) IsZero() bool {
	return s.Min == 0 && s.Max == 0
}
