package scorer

import (
	"math"

	"venturi/domain/decision"
	"venturi/domain/features"
	"venturi/domain/learning"
)

// LinearScorer is the default decision scorer: a weighted combination of the
// trait vector plus the growth factor, squashed onto the 0-100 scale, with a
// softmax-style confidence over the label midpoints.
type LinearScorer struct {
	weights      []float64
	growthWeight float64
	cuts         decision.CutPoints
}

// NewLinearScorer builds the default scorer for the given trait dimension.
// Weights taper so earlier trait components dominate; they can be replaced
// wholesale with NewLinearScorerWithWeights.
func NewLinearScorer(traitDim int, cuts decision.CutPoints) *LinearScorer {
	weights := make([]float64, traitDim)
	for i := range weights {
		weights[i] = 1 / float64(i+1)
	}
	return &LinearScorer{weights: weights, growthWeight: 1.5, cuts: cuts}
}

// NewLinearScorerWithWeights builds a scorer with explicit trait weights
func NewLinearScorerWithWeights(weights []float64, growthWeight float64, cuts decision.CutPoints) *LinearScorer {
	return &LinearScorer{weights: weights, growthWeight: growthWeight, cuts: cuts}
}

// Name identifies this scorer implementation
func (s *LinearScorer) Name() string { return "linear" }

// Score maps the trait vector and learning state to a scored label
func (s *LinearScorer) Score(fv features.Vector, state *learning.State) (float64, decision.Label, float64) {
	raw := 0.0
	for i, w := range s.weights {
		if i < len(state.Traits) {
			raw += w * state.Traits[i]
		}
	}
	raw += s.growthWeight * state.GrowthFactor

	// tanh squash keeps adversarial trait values on the 0-100 scale
	score := 50 * (1 + math.Tanh(raw))
	label := s.cuts.LabelFor(score)
	confidence := softmaxConfidence(score, s.cuts) * fv.QualityScore
	return score, label, confidence
}

// softmaxConfidence weighs the selected label against its neighbors: scores
// near a cut point earn low confidence, scores deep inside a bracket high.
func softmaxConfidence(score float64, cuts decision.CutPoints) float64 {
	midpoints := []float64{
		cuts[0] / 2,
		(cuts[0] + cuts[1]) / 2,
		(cuts[1] + cuts[2]) / 2,
		(cuts[2] + cuts[3]) / 2,
		(cuts[3] + 100) / 2,
	}
	const temperature = 10.0
	sum := 0.0
	best := 0.0
	for _, mid := range midpoints {
		w := math.Exp(-math.Abs(score-mid) / temperature)
		sum += w
		if w > best {
			best = w
		}
	}
	if sum == 0 {
		return 0
	}
	return best / sum
}
