package scorer

import (
	"venturi/domain/decision"
	"venturi/domain/features"
	"venturi/domain/learning"
)

// ThresholdScorer is a deliberately simple alternative scorer: quality,
// focus, and growth blended directly onto the 0-100 scale. Useful as a
// baseline when evaluating scorer changes.
type ThresholdScorer struct {
	cuts decision.CutPoints
}

// NewThresholdScorer creates the baseline scorer
func NewThresholdScorer(cuts decision.CutPoints) *ThresholdScorer {
	return &ThresholdScorer{cuts: cuts}
}

// Name identifies this scorer implementation
func (s *ThresholdScorer) Name() string { return "threshold" }

// Score blends quality, focus, and growth into a direct 0-100 score
func (s *ThresholdScorer) Score(fv features.Vector, state *learning.State) (float64, decision.Label, float64) {
	focus := learning.Focus(fv)
	score := 100 * (0.5*fv.QualityScore + 0.3*focus + 0.2*state.GrowthFactor)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, s.cuts.LabelFor(score), fv.QualityScore
}
