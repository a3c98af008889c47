package ports

import (
	"venturi/domain/decision"
	"venturi/domain/features"
	"venturi/domain/learning"
)

// Scorer maps a feature vector plus the session's learning state to a
// scored decision. Capability interface rather than a hierarchy: linear,
// threshold-based, and future implementations are interchangeable.
type Scorer interface {
	Name() string
	Score(fv features.Vector, state *learning.State) (score float64, label decision.Label, confidence float64)
}
