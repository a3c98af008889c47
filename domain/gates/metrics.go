package gates

import (
	"venturi/domain/core"
)

// StageMetrics records what one gate did to one frame. VelocityFactor and
// PressureDifferential follow directly from the constriction ratio;
// ProcessingEfficiency folds in the energy fraction the bandpass retained,
// so it reads 1.0 only when filtering cost nothing.
type StageMetrics struct {
	Gate                 core.GateName `json:"gate"`
	VelocityFactor       float64       `json:"velocity_factor"`
	PressureDifferential float64       `json:"pressure_differential"`
	ProcessingEfficiency float64       `json:"processing_efficiency"`
	BandRetention        float64       `json:"band_retention"`
	PassThrough          bool          `json:"pass_through"`
}
