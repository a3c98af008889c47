package learning

import (
	"math"
	"math/rand"
	"testing"

	"venturi/domain/core"
	"venturi/domain/features"
)

func testVector(band map[features.Band]float64, quality float64) features.Vector {
	return features.Vector{BandPower: band, QualityScore: quality}
}

func TestUpdateTraitMomentumBound(t *testing.T) {
	cfg := DefaultConfig()
	proj := DefaultProjection(cfg.TraitDim)
	state := NewState(core.SessionID(core.NewID()), cfg)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		fv := testVector(map[features.Band]float64{
			features.BandDelta: rng.Float64() * 100,
			features.BandTheta: rng.Float64() * 100,
			features.BandAlpha: rng.Float64() * 100,
			features.BandBeta:  rng.Float64() * 100,
			features.BandGamma: rng.Float64() * 100,
		}, rng.Float64())

		before := make([]float64, len(state.Traits))
		copy(before, state.Traits)

		result := Update(state, fv, false, proj, cfg)
		next := result.NewState

		delta := proj.Project(fv)
		for j := range next.Traits {
			change := math.Abs(next.Traits[j] - before[j])
			bound := (1 - cfg.Momentum) * math.Abs(delta[j]-before[j])
			if change > bound+1e-9 {
				t.Fatalf("iteration %d trait %d moved %.6f, bound %.6f", i, j, change, bound)
			}
		}
		state = next
	}
}

func TestUpdateDegradedFrameEarnsNoExperience(t *testing.T) {
	cfg := DefaultConfig()
	proj := DefaultProjection(cfg.TraitDim)
	state := NewState(core.SessionID(core.NewID()), cfg)

	fv := testVector(map[features.Band]float64{features.BandAlpha: 10}, 0.9)

	result := Update(state, fv, true, proj, cfg)
	if result.NewState.ExperienceCount != 0 {
		t.Errorf("degraded frame earned experience: %d", result.NewState.ExperienceCount)
	}
	if result.NewState.LastUpdate.IsZero() {
		t.Error("degraded frame should still refresh the update timestamp")
	}

	result = Update(result.NewState, fv, false, proj, cfg)
	if result.NewState.ExperienceCount != 1 {
		t.Errorf("clean frame experience = %d, want 1", result.NewState.ExperienceCount)
	}
}

func TestUpdateDoesNotMutateInput(t *testing.T) {
	cfg := DefaultConfig()
	proj := DefaultProjection(cfg.TraitDim)
	state := NewState(core.SessionID(core.NewID()), cfg)
	state.Traits[0] = 0.25

	fv := testVector(map[features.Band]float64{features.BandBeta: 50}, 0.8)
	result := Update(state, fv, false, proj, cfg)

	if state.Traits[0] != 0.25 {
		t.Errorf("input state mutated: trait[0] = %f", state.Traits[0])
	}
	if state.ExperienceCount != 0 {
		t.Errorf("input state mutated: experience = %d", state.ExperienceCount)
	}
	if result.NewState == state {
		t.Error("Update returned the same state pointer")
	}
}

func TestGrowthFactorSaturates(t *testing.T) {
	cfg := DefaultConfig()
	proj := DefaultProjection(cfg.TraitDim)
	state := NewState(core.SessionID(core.NewID()), cfg)
	fv := testVector(map[features.Band]float64{features.BandAlpha: 10}, 0.9)

	prev := 0.0
	for i := 0; i < 5000; i++ {
		result := Update(state, fv, false, proj, cfg)
		state = result.NewState
		if state.GrowthFactor < prev-1e-12 {
			t.Fatalf("growth decreased at frame %d: %f -> %f", i, prev, state.GrowthFactor)
		}
		if state.GrowthFactor < 0 || state.GrowthFactor > 1 {
			t.Fatalf("growth out of range at frame %d: %f", i, state.GrowthFactor)
		}
		prev = state.GrowthFactor
	}
	if prev == 0 {
		t.Error("growth never left zero after 5000 clean frames")
	}
}

func TestFocusNeutralOnHostileInput(t *testing.T) {
	cases := []struct {
		name string
		band map[features.Band]float64
	}{
		{"empty", map[features.Band]float64{}},
		{"zero", map[features.Band]float64{features.BandAlpha: 0, features.BandBeta: 0}},
		{"nan", map[features.Band]float64{features.BandAlpha: math.NaN(), features.BandBeta: 1}},
		{"inf", map[features.Band]float64{features.BandAlpha: math.Inf(1), features.BandBeta: 1}},
		{"negative sum", map[features.Band]float64{features.BandAlpha: -3, features.BandBeta: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Focus(testVector(tc.band, 0.5))
			if got != 0.5 {
				t.Errorf("Focus = %f, want neutral 0.5", got)
			}
		})
	}
}

func TestRateClamped(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		name              string
		focus, resilience float64
	}{
		{"max inputs", 1, 1},
		{"zero inputs", 0, 0},
		{"nan focus", math.NaN(), 1},
		{"inf resilience", 0.5, math.Inf(1)},
		{"negative", -5, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rate := Rate(cfg, tc.focus, tc.resilience)
			if rate < cfg.MinRate || rate > cfg.MaxRate {
				t.Errorf("rate %f outside [%f, %f]", rate, cfg.MinRate, cfg.MaxRate)
			}
		})
	}

	// Base rate beyond the clamp still yields a bounded rate
	hostile := cfg
	hostile.BaseRate = math.Inf(1)
	if rate := Rate(hostile, 0.5, 0.5); rate != hostile.MinRate {
		t.Errorf("non-finite rate fell back to %f, want MinRate %f", rate, hostile.MinRate)
	}
}

func TestResilienceTracksArtifactWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArtifactWindow = 10
	proj := DefaultProjection(cfg.TraitDim)
	state := NewState(core.SessionID(core.NewID()), cfg)

	clean := testVector(map[features.Band]float64{features.BandAlpha: 10}, 0.9)
	dirty := clean
	dirty.Artifacts = []features.ArtifactKind{features.ArtifactBlink}

	for i := 0; i < 10; i++ {
		state = Update(state, dirty, false, proj, cfg).NewState
	}
	if r := state.Resilience(); r != 0 {
		t.Errorf("all-artifact window resilience = %f, want 0", r)
	}

	// A full clean window pushes the artifacts out entirely
	for i := 0; i < 10; i++ {
		state = Update(state, clean, false, proj, cfg).NewState
	}
	if r := state.Resilience(); r != 1 {
		t.Errorf("clean window resilience = %f, want 1", r)
	}
}
