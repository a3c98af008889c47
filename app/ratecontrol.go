package app

import (
	"math"
	"sync/atomic"

	"venturi/domain/core"
	"venturi/domain/learning"
)

// RateControl holds the learning base rate behind an atomic so the
// supervisor can retune it without pausing the fast path.
type RateControl struct {
	bits atomic.Uint64
	min  float64
	max  float64
}

// NewRateControl seeds the control from the learning config
func NewRateControl(cfg learning.Config) *RateControl {
	rc := &RateControl{min: cfg.MinRate, max: cfg.MaxRate}
	rc.bits.Store(math.Float64bits(cfg.BaseRate))
	return rc
}

// BaseRate returns the current base rate
func (rc *RateControl) BaseRate() float64 {
	return math.Float64frombits(rc.bits.Load())
}

// SetBaseRate swaps in a new base rate, refusing values outside the
// configured clamp range
func (rc *RateControl) SetBaseRate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < rc.min || v > rc.max {
		return core.NewEnvelopeError("base_rate", v, rc.min, rc.max)
	}
	rc.bits.Store(math.Float64bits(v))
	return nil
}
