package scorer

import (
	"testing"

	"venturi/domain/core"
	"venturi/domain/decision"
	"venturi/domain/features"
	"venturi/domain/learning"
)

func testState(traits []float64, growth float64) *learning.State {
	cfg := learning.DefaultConfig()
	cfg.TraitDim = len(traits)
	s := learning.NewState(core.SessionID(core.NewID()), cfg)
	copy(s.Traits, traits)
	s.GrowthFactor = growth
	return s
}

func testVector(quality float64) features.Vector {
	return features.Vector{
		BandPower: map[features.Band]float64{
			features.BandAlpha: 10,
			features.BandBeta:  5,
		},
		QualityScore: quality,
	}
}

func TestLinearScoreBounded(t *testing.T) {
	s := NewLinearScorer(4, decision.DefaultCutPoints())

	extremes := [][]float64{
		{0, 0, 0, 0},
		{100, 100, 100, 100},
		{-100, -100, -100, -100},
	}
	for _, traits := range extremes {
		score, label, confidence := s.Score(testVector(0.9), testState(traits, 0.5))
		if score < 0 || score > 100 {
			t.Errorf("traits %v: score %f outside [0, 100]", traits, score)
		}
		if label != decision.DefaultCutPoints().LabelFor(score) {
			t.Errorf("traits %v: label %s disagrees with score %f", traits, label, score)
		}
		if confidence < 0 || confidence > 1 {
			t.Errorf("traits %v: confidence %f outside [0, 1]", traits, confidence)
		}
	}
}

func TestLinearScoreGrowsWithTraits(t *testing.T) {
	s := NewLinearScorer(4, decision.DefaultCutPoints())
	fv := testVector(0.9)

	low, _, _ := s.Score(fv, testState([]float64{-1, -1, -1, -1}, 0))
	high, _, _ := s.Score(fv, testState([]float64{1, 1, 1, 1}, 0.8))
	if high <= low {
		t.Errorf("stronger state scored %f, weaker %f", high, low)
	}
}

func TestLinearConfidenceScalesWithQuality(t *testing.T) {
	s := NewLinearScorer(4, decision.DefaultCutPoints())
	state := testState([]float64{0.5, 0.5, 0.5, 0.5}, 0.5)

	_, _, confHigh := s.Score(testVector(1.0), state)
	_, _, confLow := s.Score(testVector(0.1), state)
	if confHigh <= confLow {
		t.Errorf("confidence did not scale with quality: %f vs %f", confHigh, confLow)
	}
}

func TestThresholdScorer(t *testing.T) {
	s := NewThresholdScorer(decision.DefaultCutPoints())

	score, label, confidence := s.Score(testVector(0.9), testState([]float64{0, 0}, 0.5))
	if score < 0 || score > 100 {
		t.Errorf("score %f outside [0, 100]", score)
	}
	if label != decision.DefaultCutPoints().LabelFor(score) {
		t.Errorf("label %s disagrees with score %f", label, score)
	}
	if confidence != 0.9 {
		t.Errorf("confidence = %f, want the quality score", confidence)
	}
}

func TestScorerNames(t *testing.T) {
	if NewLinearScorer(4, decision.DefaultCutPoints()).Name() != "linear" {
		t.Error("linear scorer misnamed")
	}
	if NewThresholdScorer(decision.DefaultCutPoints()).Name() != "threshold" {
		t.Error("threshold scorer misnamed")
	}
}
