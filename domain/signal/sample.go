package signal

import (
	"venturi/domain/core"
)

// Sample is one multi-channel reading from the acquisition collaborator.
// Immutable once created; the framer never mutates sample values.
type Sample struct {
	Timestamp core.Timestamp `json:"timestamp"`
	Values    []float64      `json:"values"`
}

// NewSample creates a sample with its own copy of the channel values
func NewSample(ts core.Timestamp, values []float64) Sample {
	v := make([]float64, len(values))
	copy(v, values)
	return Sample{Timestamp: ts, Values: v}
}

// Channels returns the channel count of this sample
func (s Sample) Channels() int {
	return len(s.Values)
}
