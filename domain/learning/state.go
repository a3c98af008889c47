package learning

import (
	"venturi/domain/core"
)

// Config holds the coefficients of the three update rules. BaseRate is the
// only field the supervisor may retune at runtime; everything else is fixed
// at session start.
type Config struct {
	TraitDim          int     `json:"trait_dim"`
	Momentum          float64 `json:"momentum"`
	BaseRate          float64 `json:"base_rate"`
	MinRate           float64 `json:"min_rate"`
	MaxRate           float64 `json:"max_rate"`
	AlphaCoeff        float64 `json:"alpha_coeff"`
	ReferenceBaseline float64 `json:"reference_baseline"`
	ArtifactWindow    int     `json:"artifact_window"`
}

// DefaultConfig returns the stock learning coefficients
func DefaultConfig() Config {
	return Config{
		TraitDim:          12,
		Momentum:          0.8,
		BaseRate:          0.1,
		MinRate:           0.01,
		MaxRate:           0.95,
		AlphaCoeff:        0.4,
		ReferenceBaseline: 100,
		ArtifactWindow:    50,
	}
}

// State is the per-session adaptive learning state. Exactly one instance per
// active session, mutated once per frame via Update, destroyed at session
// end. Never shared across sessions and never serialized mid-session.
type State struct {
	SessionID       core.SessionID `json:"session_id"`
	Traits          []float64      `json:"traits"`
	ExperienceCount int            `json:"experience_count"`
	GrowthFactor    float64        `json:"growth_factor"`
	LastUpdate      core.Timestamp `json:"last_update"`

	// artifactHistory is a trailing window of per-frame artifact presence,
	// consumed by the resilience projection. Oldest entry evicted first.
	artifactHistory []bool
}

// NewState creates the session's learning state with zeroed traits
func NewState(sessionID core.SessionID, cfg Config) *State {
	return &State{
		SessionID: sessionID,
		Traits:    make([]float64, cfg.TraitDim),
	}
}

// Resilience is the inverse of the trailing artifact frequency: 1.0 with a
// clean window, 0.0 when every recent frame carried an artifact.
func (s *State) Resilience() float64 {
	if len(s.artifactHistory) == 0 {
		return 1
	}
	flagged := 0
	for _, hit := range s.artifactHistory {
		if hit {
			flagged++
		}
	}
	return 1 - float64(flagged)/float64(len(s.artifactHistory))
}

// clone returns a deep copy so Update can stay a pure transition
func (s *State) clone() *State {
	out := *s
	out.Traits = make([]float64, len(s.Traits))
	copy(out.Traits, s.Traits)
	out.artifactHistory = make([]bool, len(s.artifactHistory))
	copy(out.artifactHistory, s.artifactHistory)
	return &out
}
