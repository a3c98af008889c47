package learning

import (
	"math"

	"venturi/domain/features"
)

// Projection maps a feature vector into trait space. Swappable so a session
// can be built with a different trait mapping without touching the update
// rules.
type Projection interface {
	Dim() int
	Project(fv features.Vector) []float64
}

// featureOrder fixes the input ordering of the linear map: the five band
// powers (normalized to their total) followed by the quality score.
var featureOrder = append([]features.Band{}, features.BandOrder...)

// LinearProjection is the default projection: a fixed weight matrix applied
// to normalized band powers plus the quality score.
type LinearProjection struct {
	weights [][]float64 // dim x (len(bands)+1)
}

// NewLinearProjection builds a projection with explicit weights. Each row
// must have len(features.BandOrder)+1 columns.
func NewLinearProjection(weights [][]float64) *LinearProjection {
	return &LinearProjection{weights: weights}
}

// DefaultProjection builds a deterministic projection of the given trait
// dimension. Rows cycle emphasis across the bands so every band contributes
// to some trait; the quality column damps traits on noisy frames.
func DefaultProjection(dim int) *LinearProjection {
	cols := len(featureOrder) + 1
	weights := make([][]float64, dim)
	for i := range weights {
		row := make([]float64, cols)
		for j := 0; j < len(featureOrder); j++ {
			// Cosine ramp keeps weights in [-1, 1] and distinct per row.
			row[j] = math.Cos(float64(i*len(featureOrder)+j) * math.Pi / float64(cols))
		}
		row[cols-1] = 0.5
		weights[i] = row
	}
	return &LinearProjection{weights: weights}
}

// Dim returns the trait-space dimensionality
func (p *LinearProjection) Dim() int {
	return len(p.weights)
}

// Project applies the weight matrix to the normalized feature inputs
func (p *LinearProjection) Project(fv features.Vector) []float64 {
	inputs := make([]float64, len(featureOrder)+1)
	total := fv.TotalPower()
	for j, band := range featureOrder {
		if total > 0 {
			inputs[j] = fv.BandPower[band] / total
		}
	}
	inputs[len(inputs)-1] = fv.QualityScore

	out := make([]float64, len(p.weights))
	for i, row := range p.weights {
		sum := 0.0
		for j, w := range row {
			sum += w * inputs[j]
		}
		out[i] = sum
	}
	return out
}
