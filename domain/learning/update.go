package learning

import (
	"math"

	"venturi/domain/core"
	"venturi/domain/features"
)

// Metrics reports what a single update did, for the supervisor's ring buffer
type Metrics struct {
	LearningRate float64 `json:"learning_rate"`
	Focus        float64 `json:"focus"`
	Resilience   float64 `json:"resilience"`
	TraitDelta   float64 `json:"trait_delta_norm"`
}

// Result bundles the successor state with the derived per-frame values
type Result struct {
	NewState *State
	Metrics  Metrics
}

// Update is a pure transition: given the previous state and the current
// feature vector it produces the next state. Deterministic, no hidden
// randomness. Degraded frames still refresh the artifact window and the
// timestamp but do not earn experience.
func Update(old *State, fv features.Vector, degraded bool, proj Projection, cfg Config) Result {
	next := old.clone()

	// Trait momentum: trait changes by at most (1-momentum) of the
	// instantaneous projection per frame, bounding volatility.
	delta := proj.Project(fv)
	deltaNorm := 0.0
	for i := range next.Traits {
		d := 0.0
		if i < len(delta) {
			d = delta[i]
		}
		updated := cfg.Momentum*next.Traits[i] + (1-cfg.Momentum)*d
		deltaNorm += (updated - next.Traits[i]) * (updated - next.Traits[i])
		next.Traits[i] = updated
	}
	deltaNorm = math.Sqrt(deltaNorm)

	// Artifact window feeds resilience
	next.artifactHistory = append(next.artifactHistory, len(fv.Artifacts) > 0)
	if cfg.ArtifactWindow > 0 && len(next.artifactHistory) > cfg.ArtifactWindow {
		next.artifactHistory = next.artifactHistory[len(next.artifactHistory)-cfg.ArtifactWindow:]
	}

	if !degraded {
		next.ExperienceCount++
	}

	// Growth saturates logarithmically with accumulated experience
	growth := cfg.AlphaCoeff * math.Log(1+float64(next.ExperienceCount)/cfg.ReferenceBaseline)
	next.GrowthFactor = clamp(growth, 0, 1)
	next.LastUpdate = core.Now()

	focus := Focus(fv)
	resilience := next.Resilience()

	return Result{
		NewState: next,
		Metrics: Metrics{
			LearningRate: Rate(cfg, focus, resilience),
			Focus:        focus,
			Resilience:   resilience,
			TraitDelta:   deltaNorm,
		},
	}
}

// Focus is the alpha/beta balance of the frame, normalized to [0, 1].
// Extreme and non-finite band powers collapse to the neutral 0.5.
func Focus(fv features.Vector) float64 {
	alpha := fv.BandPower[features.BandAlpha]
	beta := fv.BandPower[features.BandBeta]
	sum := alpha + beta
	if !isFinite(sum) || sum <= 0 {
		return 0.5
	}
	f := alpha / sum
	if !isFinite(f) {
		return 0.5
	}
	return clamp(f, 0, 1)
}

// Rate derives the effective learning rate. Never stored: recomputed from
// the base rate plus the focus and resilience contributions, then clamped.
func Rate(cfg Config, focus, resilience float64) float64 {
	rate := cfg.BaseRate + focus/2 + resilience/4
	if !isFinite(rate) {
		return cfg.MinRate
	}
	return clamp(rate, cfg.MinRate, cfg.MaxRate)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
