package gates

import (
	"venturi/domain/core"
)

// Named gates of the conditioning cascade, applied in fixed order
const (
	GateInput  core.GateName = "input_gate"
	GateCore   core.GateName = "core_gate"
	GateOutput core.GateName = "output_gate"
)

// Order is the fixed application order of the cascade
var Order = []core.GateName{GateInput, GateCore, GateOutput}

// Parameters configures a single gate. ConstrictionRatio is the fraction of
// original amplitude retained before gain compensation: lower ratio means
// tighter constriction and higher velocity compensation. Mutated only by the
// supervisor's deploy step; the fast path reads value-copied snapshots.
type Parameters struct {
	Name              core.GateName `json:"name"`
	ConstrictionRatio float64       `json:"constriction_ratio"`
	FilterLow         float64       `json:"filter_low_hz"`
	FilterHigh        float64       `json:"filter_high_hz"`
	Enabled           bool          `json:"enabled"`
}

// VelocityFactor is the gain compensation applied after constriction
func (p Parameters) VelocityFactor() float64 {
	if p.ConstrictionRatio <= 0 {
		return 1
	}
	return 1 / p.ConstrictionRatio
}

// Set holds the parameters for all three gates. Value type: copying a Set
// copies every parameter, which is what the copy-then-swap deploy relies on.
type Set struct {
	Input  Parameters `json:"input"`
	Core   Parameters `json:"core"`
	Output Parameters `json:"output"`
}

// DefaultSet returns the starting configuration. The core gate is the
// maximal-enhancement stage, the output gate the delivery-quality stage.
// The supervisor retunes these within the envelope.
func DefaultSet() Set {
	return Set{
		Input:  Parameters{Name: GateInput, ConstrictionRatio: 0.8, FilterLow: 0.5, FilterHigh: 50, Enabled: true},
		Core:   Parameters{Name: GateCore, ConstrictionRatio: 0.6, FilterLow: 4, FilterHigh: 45, Enabled: true},
		Output: Parameters{Name: GateOutput, ConstrictionRatio: 0.7, FilterLow: 0.5, FilterHigh: 45, Enabled: true},
	}
}

// Get returns the parameters for a named gate
func (s Set) Get(name core.GateName) (Parameters, bool) {
	switch name {
	case GateInput:
		return s.Input, true
	case GateCore:
		return s.Core, true
	case GateOutput:
		return s.Output, true
	}
	return Parameters{}, false
}

// With returns a copy of the set with one gate replaced
func (s Set) With(p Parameters) Set {
	out := s
	switch p.Name {
	case GateInput:
		out.Input = p
	case GateCore:
		out.Core = p
	case GateOutput:
		out.Output = p
	}
	return out
}

// All returns the parameters in application order
func (s Set) All() []Parameters {
	return []Parameters{s.Input, s.Core, s.Output}
}
