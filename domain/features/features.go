package features

// Band names one of the five canonical frequency bands
type Band string

const (
	BandDelta Band = "delta"
	BandTheta Band = "theta"
	BandAlpha Band = "alpha"
	BandBeta  Band = "beta"
	BandGamma Band = "gamma"
)

// BandOrder lists the bands from lowest to highest frequency
var BandOrder = []Band{BandDelta, BandTheta, BandAlpha, BandBeta, BandGamma}

// BandRange holds the frequency bounds of one band in Hz
type BandRange struct {
	Low  float64
	High float64
}

// BandRanges maps each canonical band to its frequency range
var BandRanges = map[Band]BandRange{
	BandDelta: {0.5, 4},
	BandTheta: {4, 8},
	BandAlpha: {8, 12},
	BandBeta:  {12, 30},
	BandGamma: {30, 50},
}

// ArtifactKind classifies a detected contamination in a frame
type ArtifactKind string

const (
	// ArtifactBlink marks a blink-like low-frequency amplitude transient
	ArtifactBlink ArtifactKind = "blink"
	// ArtifactLineNoise marks narrow-band mains contamination
	ArtifactLineNoise ArtifactKind = "line_noise"
	// ArtifactNonFinite marks NaN/Inf channel data
	ArtifactNonFinite ArtifactKind = "non_finite"
	// ArtifactSaturation marks a channel pinned at its amplitude ceiling
	ArtifactSaturation ArtifactKind = "saturation"
)

// Vector summarizes one conditioned frame. Derived, immutable, short-lived:
// consumed by the learning update and the decision stage, then discarded.
type Vector struct {
	BandPower    map[Band]float64 `json:"band_power"`
	QualityScore float64          `json:"quality_score"`
	SNR          float64          `json:"snr"`
	GapRatio     float64          `json:"gap_ratio"`
	Artifacts    []ArtifactKind   `json:"artifacts,omitempty"`
}

// HasArtifact reports whether the vector carries the given artifact flag
func (v Vector) HasArtifact(kind ArtifactKind) bool {
	for _, a := range v.Artifacts {
		if a == kind {
			return true
		}
	}
	return false
}

// DominantBand returns the band with the highest power
func (v Vector) DominantBand() Band {
	best := BandDelta
	bestPower := -1.0
	for _, b := range BandOrder {
		if p, ok := v.BandPower[b]; ok && p > bestPower {
			best = b
			bestPower = p
		}
	}
	return best
}

// TotalPower sums power across all five bands
func (v Vector) TotalPower() float64 {
	total := 0.0
	for _, b := range BandOrder {
		total += v.BandPower[b]
	}
	return total
}
