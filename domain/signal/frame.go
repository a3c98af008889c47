package signal

import (
	"venturi/domain/core"
)

// GapKind classifies a timestamp irregularity detected during framing
type GapKind string

const (
	GapMissing   GapKind = "missing"
	GapDuplicate GapKind = "duplicate"
)

// GapFlag records one detected timestamp irregularity inside a frame
type GapFlag struct {
	Kind GapKind        `json:"kind"`
	At   core.Timestamp `json:"at"`
}

// Frame is a fixed-duration window of aligned multi-channel samples.
// Data is stored channel-major: Data[ch][i] is channel ch at sample i.
// Each cascade stage receives a borrowed view and produces a new owned
// frame; nothing downstream retains a reference past one pass.
type Frame struct {
	ID         core.FrameID   `json:"id"`
	SessionID  core.SessionID `json:"session_id"`
	Index      int            `json:"index"`
	Start      core.Timestamp `json:"start"`
	WindowMS   int            `json:"window_ms"`
	SampleRate int            `json:"sample_rate"`
	Data       [][]float64    `json:"-"`
	GapFlags   []GapFlag      `json:"gap_flags,omitempty"`
	GapRatio   float64        `json:"gap_ratio"`
	Degraded   bool           `json:"degraded"`
}

// Channels returns the channel count
func (f *Frame) Channels() int {
	return len(f.Data)
}

// Samples returns the per-channel sample count
func (f *Frame) Samples() int {
	if len(f.Data) == 0 {
		return 0
	}
	return len(f.Data[0])
}

// CloneData returns a deep copy of the frame with freshly owned data.
// Stages use this to produce their owned output without touching the input.
func (f *Frame) CloneData() *Frame {
	out := *f
	out.Data = make([][]float64, len(f.Data))
	for ch := range f.Data {
		row := make([]float64, len(f.Data[ch]))
		copy(row, f.Data[ch])
		out.Data[ch] = row
	}
	if len(f.GapFlags) > 0 {
		out.GapFlags = make([]GapFlag, len(f.GapFlags))
		copy(out.GapFlags, f.GapFlags)
	}
	return &out
}
