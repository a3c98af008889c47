package session

import (
	"time"

	"venturi/domain/core"
	"venturi/domain/decision"
)

// Summary aggregates one finished session for reporting. Emitted once at
// session end; persistence and presentation are the host's concern.
type Summary struct {
	SessionID      core.SessionID             `json:"session_id"`
	StartedAt      core.Timestamp             `json:"started_at"`
	EndedAt        core.Timestamp             `json:"ended_at"`
	FramesTotal    int                        `json:"frames_total"`
	FramesDegraded int                        `json:"frames_degraded"`
	MeanQuality    float64                    `json:"mean_quality"`
	MeanConfidence float64                    `json:"mean_confidence"`
	LabelCounts    map[decision.Label]int     `json:"label_counts"`
	Deployments    int                        `json:"deployments"`
	Rollbacks      int                        `json:"rollbacks"`
	TerminalError  string                     `json:"terminal_error,omitempty"`
}

// Duration returns the wall-clock span of the session
func (s Summary) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}
