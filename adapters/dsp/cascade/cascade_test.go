package cascade

import (
	"math"
	"testing"

	"venturi/domain/core"
	"venturi/domain/gates"
	"venturi/domain/signal"
	"venturi/internal"
)

func testFrame(t *testing.T, channels, samples, rate int, fill func(ch, i int) float64) *signal.Frame {
	t.Helper()
	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, samples)
		for i := range data[ch] {
			data[ch][i] = fill(ch, i)
		}
	}
	return &signal.Frame{
		ID:         core.FrameID(core.NewID()),
		SessionID:  core.SessionID(core.NewID()),
		Data:       data,
		SampleRate: rate,
		WindowMS:   samples * 1000 / rate,
	}
}

func sineFill(freq float64, rate int) func(ch, i int) float64 {
	return func(ch, i int) float64 {
		return math.Sin(2 * math.Pi * freq * float64(i) / float64(rate))
	}
}

func allPassSet(r float64) gates.Set {
	set := gates.DefaultSet()
	for _, p := range set.All() {
		p.ConstrictionRatio = r
		p.FilterLow = 0
		p.FilterHigh = 1000
		set = set.With(p)
	}
	return set
}

// With an all-pass band the constriction and its compensation must cancel:
// the output equals the input for any ratio inside the envelope.
func TestConstrictionCancelsWithAllPassBand(t *testing.T) {
	logger := internal.NewLogger(internal.LogLevelError)
	env := gates.DefaultEnvelope()

	for _, r := range []float64{0.3, 0.5, 0.8, 0.95} {
		c, err := New(allPassSet(r), env, logger)
		if err != nil {
			t.Fatalf("r=%.2f: New: %v", r, err)
		}

		frame := testFrame(t, 2, 256, 256, sineFill(10, 256))
		want := frame.CloneData()

		out, metrics, warnings := c.Process(frame)
		if len(warnings) != 0 {
			t.Fatalf("r=%.2f: unexpected warnings %v", r, warnings)
		}
		for ch := range out.Data {
			for i := range out.Data[ch] {
				if diff := math.Abs(out.Data[ch][i] - want.Data[ch][i]); diff > 1e-9 {
					t.Fatalf("r=%.2f: ch %d sample %d differs by %g", r, ch, i, diff)
				}
			}
		}
		for _, m := range metrics {
			if math.Abs(m.ProcessingEfficiency-1) > 1e-9 {
				t.Errorf("r=%.2f: gate %s efficiency %f, want 1 for all-pass", r, m.Gate, m.ProcessingEfficiency)
			}
		}
	}
}

func TestProcessDoesNotMutateInputFrame(t *testing.T) {
	logger := internal.NewLogger(internal.LogLevelError)
	c, err := New(gates.DefaultSet(), gates.DefaultEnvelope(), logger)
	if err != nil {
		t.Fatal(err)
	}

	frame := testFrame(t, 2, 256, 256, sineFill(10, 256))
	want := frame.CloneData()

	c.Process(frame)

	for ch := range frame.Data {
		for i := range frame.Data[ch] {
			if frame.Data[ch][i] != want.Data[ch][i] {
				t.Fatalf("input frame mutated at ch %d sample %d", ch, i)
			}
		}
	}
}

func TestBandpassSuppressesOutOfBandTone(t *testing.T) {
	logger := internal.NewLogger(internal.LogLevelError)

	set := gates.DefaultSet()
	input, _ := set.Get(gates.GateInput)
	input.FilterLow = 8
	input.FilterHigh = 12
	set = set.With(input)
	// Keep the later gates out of the way
	for _, name := range []core.GateName{gates.GateCore, gates.GateOutput} {
		p, _ := set.Get(name)
		p.Enabled = false
		set = set.With(p)
	}

	c, err := New(set, gates.DefaultEnvelope(), logger)
	if err != nil {
		t.Fatal(err)
	}

	// 40 Hz tone sits far outside the 8-12 Hz band
	frame := testFrame(t, 1, 256, 256, sineFill(40, 256))
	out, metrics, _ := c.Process(frame)

	var rms float64
	for _, v := range out.Data[0] {
		rms += v * v
	}
	rms = math.Sqrt(rms / float64(len(out.Data[0])))
	if rms > 0.01 {
		t.Errorf("out-of-band tone survived: rms %f", rms)
	}
	if metrics[0].BandRetention > 0.05 {
		t.Errorf("band retention %f, want near zero", metrics[0].BandRetention)
	}
}

func TestDegenerateBandFallsBackToPassThrough(t *testing.T) {
	logger := internal.NewLogger(internal.LogLevelError)

	set := gates.DefaultSet()
	core1, _ := set.Get(gates.GateCore)
	core1.FilterLow = 30
	core1.FilterHigh = 30
	set = set.With(core1)

	c, err := New(set, gates.DefaultEnvelope(), logger)
	if err != nil {
		t.Fatal(err)
	}

	frame := testFrame(t, 1, 256, 256, sineFill(10, 256))
	_, metrics, warnings := c.Process(frame)

	if len(warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(warnings))
	}
	if warnings[0].Gate != gates.GateCore {
		t.Errorf("warned gate = %s, want %s", warnings[0].Gate, gates.GateCore)
	}
	for _, m := range metrics {
		if m.Gate == gates.GateCore {
			if !m.PassThrough {
				t.Error("degenerate gate did not fall back to pass-through")
			}
			if m.ProcessingEfficiency != 1 {
				t.Errorf("pass-through efficiency = %f, want 1", m.ProcessingEfficiency)
			}
		}
	}
}

func TestSwapRejectsEnvelopeViolation(t *testing.T) {
	logger := internal.NewLogger(internal.LogLevelError)
	c, err := New(gates.DefaultSet(), gates.DefaultEnvelope(), logger)
	if err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot()

	bad := before
	p, _ := bad.Get(gates.GateInput)
	p.ConstrictionRatio = 0.05
	bad = bad.With(p)

	if err := c.Swap(bad); err == nil {
		t.Fatal("Swap accepted a ratio outside the envelope")
	}
	after := c.Snapshot()
	if after.Input.ConstrictionRatio != before.Input.ConstrictionRatio {
		t.Error("rejected swap still changed the live parameters")
	}
}

func TestSwapIsVisibleToNextProcess(t *testing.T) {
	logger := internal.NewLogger(internal.LogLevelError)
	c, err := New(allPassSet(0.8), gates.DefaultEnvelope(), logger)
	if err != nil {
		t.Fatal(err)
	}

	next := c.Snapshot()
	p, _ := next.Get(gates.GateInput)
	p.ConstrictionRatio = 0.5
	next = next.With(p)
	if err := c.Swap(next); err != nil {
		t.Fatal(err)
	}

	frame := testFrame(t, 1, 64, 64, sineFill(10, 64))
	_, metrics, _ := c.Process(frame)
	if metrics[0].PressureDifferential != 0.5 {
		t.Errorf("pressure differential = %f, want 0.5 after swap", metrics[0].PressureDifferential)
	}
}
