package decision

import (
	"venturi/domain/core"
)

// Label names one of the five ordered learning stages
type Label string

const (
	LabelInitialization     Label = "initialization"
	LabelPatternRecognition Label = "pattern_recognition"
	LabelOptimization       Label = "optimization"
	LabelAdaptation         Label = "adaptation"
	LabelEnhancement        Label = "enhancement"
)

// LabelOrder lists the stages from earliest to most advanced
var LabelOrder = []Label{
	LabelInitialization,
	LabelPatternRecognition,
	LabelOptimization,
	LabelAdaptation,
	LabelEnhancement,
}

// CutPoints are the score thresholds separating adjacent labels. A score
// below CutPoints[0] is Initialization; at or above CutPoints[3] is
// Enhancement.
type CutPoints [4]float64

// DefaultCutPoints returns the stock label thresholds
func DefaultCutPoints() CutPoints {
	return CutPoints{20, 40, 60, 80}
}

// LabelFor thresholds a 0-100 score against the cut points
func (c CutPoints) LabelFor(score float64) Label {
	switch {
	case score < c[0]:
		return LabelInitialization
	case score < c[1]:
		return LabelPatternRecognition
	case score < c[2]:
		return LabelOptimization
	case score < c[3]:
		return LabelAdaptation
	default:
		return LabelEnhancement
	}
}

// Decision is the per-frame output of the pipeline. Immutable; emitted to
// the host's sink and owned by it afterwards.
type Decision struct {
	SessionID  core.SessionID `json:"session_id"`
	FrameID    core.FrameID   `json:"frame_id"`
	FrameIndex int            `json:"frame_index"`
	Score      float64        `json:"score"`
	Label      Label          `json:"label"`
	Confidence float64        `json:"confidence"`
	At         core.Timestamp `json:"at"`
}

// ShortCircuit builds the low-quality decision: the frame was too degraded
// to score, so the stage reports Initialization with zero confidence rather
// than propagate an unreliable decision.
func ShortCircuit(sessionID core.SessionID, frameID core.FrameID, index int) Decision {
	return Decision{
		SessionID:  sessionID,
		FrameID:    frameID,
		FrameIndex: index,
		Score:      0,
		Label:      LabelInitialization,
		Confidence: 0,
		At:         core.Now(),
	}
}
