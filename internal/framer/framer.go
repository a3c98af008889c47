package framer

import (
	"context"
	"errors"
	"io"
	"time"

	"venturi/domain/core"
	"venturi/domain/signal"
	"venturi/internal"
	"venturi/internal/config"
	"venturi/ports"
)

// Framer slices the incoming sample stream into fixed-duration frames with
// channel alignment and gap detection. Missing slots are zero-filled and
// flagged; a channel-count mismatch is fatal for the whole session because
// channel semantics cannot be reconciled mid-stream.
type Framer struct {
	sessionID core.SessionID
	cfg       config.SessionConfig
	log       *internal.Logger
}

// New creates a framer for one session
func New(sessionID core.SessionID, cfg config.SessionConfig, logger *internal.Logger) *Framer {
	return &Framer{sessionID: sessionID, cfg: cfg, log: logger.With("framer")}
}

// SamplesPerFrame returns the fixed frame length in samples
func (f *Framer) SamplesPerFrame() int {
	return f.cfg.SampleRate * f.cfg.WindowMS / 1000
}

// Run consumes the source until ctx cancellation, end of stream, or a fatal
// error. The frame channel is closed when the stream ends; the error channel
// delivers at most one terminal error. A trailing partial window is dropped:
// downstream stages need the full window duration to be meaningful.
func (f *Framer) Run(ctx context.Context, src ports.SampleSource) (<-chan *signal.Frame, <-chan error) {
	frames := make(chan *signal.Frame)
	errs := make(chan error, 1)

	go func() {
		defer close(frames)
		defer close(errs)
		if err := f.run(ctx, src, frames); err != nil {
			errs <- err
		}
	}()

	return frames, errs
}

func (f *Framer) run(ctx context.Context, src ports.SampleSource, out chan<- *signal.Frame) error {
	perFrame := f.SamplesPerFrame()
	period := time.Second / time.Duration(f.cfg.SampleRate)
	tolerance := time.Duration(f.cfg.GapTolerance * float64(period))

	b := newFrameBuilder(f.sessionID, f.cfg, perFrame)
	var lastTS time.Time
	haveLast := false

	for {
		sample, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				f.log.Debug("stream ended after %d frames", b.index)
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if sample.Channels() != f.cfg.ChannelCount {
			f.log.Error("channel mismatch: expected %d, got %d", f.cfg.ChannelCount, sample.Channels())
			return core.NewChannelMismatchError(f.cfg.ChannelCount, sample.Channels())
		}

		ts := sample.Timestamp.Time()
		if haveLast {
			if !ts.After(lastTS) {
				b.markDuplicate(sample.Timestamp)
				continue
			}
			// Zero-fill any slots the stream skipped past
			expected := lastTS.Add(period)
			for ts.Sub(expected) > tolerance {
				b.pushMissing(core.NewTimestamp(expected))
				if frame := b.takeFull(); frame != nil {
					if !send(ctx, out, frame) {
						return nil
					}
				}
				expected = expected.Add(period)
			}
		}
		lastTS = ts
		haveLast = true

		b.push(sample)
		if frame := b.takeFull(); frame != nil {
			if !send(ctx, out, frame) {
				return nil
			}
		}
	}
}

func send(ctx context.Context, out chan<- *signal.Frame, frame *signal.Frame) bool {
	select {
	case out <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

// frameBuilder accumulates samples for the frame under construction
type frameBuilder struct {
	sessionID core.SessionID
	cfg       config.SessionConfig
	perFrame  int
	index     int

	data    [][]float64
	flags   []signal.GapFlag
	gapSlot int
	start   core.Timestamp
	filled  int
}

func newFrameBuilder(sessionID core.SessionID, cfg config.SessionConfig, perFrame int) *frameBuilder {
	b := &frameBuilder{sessionID: sessionID, cfg: cfg, perFrame: perFrame}
	b.reset()
	return b
}

func (b *frameBuilder) reset() {
	b.data = make([][]float64, b.cfg.ChannelCount)
	for ch := range b.data {
		b.data[ch] = make([]float64, 0, b.perFrame)
	}
	b.flags = nil
	b.gapSlot = 0
	b.filled = 0
	b.start = core.Timestamp{}
}

func (b *frameBuilder) push(s signal.Sample) {
	if b.filled == 0 {
		b.start = s.Timestamp
	}
	for ch := range b.data {
		b.data[ch] = append(b.data[ch], s.Values[ch])
	}
	b.filled++
}

func (b *frameBuilder) pushMissing(at core.Timestamp) {
	if b.filled == 0 {
		b.start = at
	}
	for ch := range b.data {
		b.data[ch] = append(b.data[ch], 0)
	}
	b.filled++
	b.gapSlot++
	b.flags = append(b.flags, signal.GapFlag{Kind: signal.GapMissing, At: at})
}

func (b *frameBuilder) markDuplicate(at core.Timestamp) {
	b.gapSlot++
	b.flags = append(b.flags, signal.GapFlag{Kind: signal.GapDuplicate, At: at})
}

// takeFull emits the frame once the window is filled, then resets
func (b *frameBuilder) takeFull() *signal.Frame {
	if b.filled < b.perFrame {
		return nil
	}
	gapRatio := float64(b.gapSlot) / float64(b.perFrame)
	frame := &signal.Frame{
		ID:         core.FrameID(core.NewID()),
		SessionID:  b.sessionID,
		Index:      b.index,
		Start:      b.start,
		WindowMS:   b.cfg.WindowMS,
		SampleRate: b.cfg.SampleRate,
		Data:       b.data,
		GapFlags:   b.flags,
		GapRatio:   gapRatio,
		Degraded:   gapRatio > b.cfg.DegradedGapRatio,
	}
	b.index++
	b.reset()
	return frame
}
