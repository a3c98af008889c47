package decision

import (
	"testing"

	"venturi/domain/core"
)

func TestLabelForCoversAllRanges(t *testing.T) {
	cuts := DefaultCutPoints()

	cases := []struct {
		score float64
		want  Label
	}{
		{-10, LabelInitialization},
		{0, LabelInitialization},
		{19.99, LabelInitialization},
		{20, LabelPatternRecognition},
		{39.99, LabelPatternRecognition},
		{40, LabelOptimization},
		{59.99, LabelOptimization},
		{60, LabelAdaptation},
		{79.99, LabelAdaptation},
		{80, LabelEnhancement},
		{100, LabelEnhancement},
		{500, LabelEnhancement},
	}
	for _, tc := range cases {
		if got := cuts.LabelFor(tc.score); got != tc.want {
			t.Errorf("LabelFor(%.2f) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestShortCircuitDecision(t *testing.T) {
	sessionID := core.SessionID(core.NewID())
	frameID := core.FrameID(core.NewID())

	d := ShortCircuit(sessionID, frameID, 7)
	if d.Label != LabelInitialization {
		t.Errorf("label = %s, want initialization", d.Label)
	}
	if d.Confidence != 0 || d.Score != 0 {
		t.Errorf("score/confidence = %f/%f, want zeros", d.Score, d.Confidence)
	}
	if d.FrameIndex != 7 {
		t.Errorf("frame index = %d, want 7", d.FrameIndex)
	}
	if d.At.IsZero() {
		t.Error("decision missing timestamp")
	}
}
