package cascade

import (
	"fmt"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"

	"venturi/domain/core"
	"venturi/domain/gates"
	"venturi/domain/signal"
	"venturi/internal"
)

// DegradedGateWarning reports a gate that fell back to pass-through because
// its filter band was numerically unusable. Non-fatal: it is logged and
// forwarded to the supervisor as a gate-unhealthy signal.
type DegradedGateWarning struct {
	Gate   core.GateName
	Reason string
}

func (w DegradedGateWarning) Error() string {
	return fmt.Sprintf("gate %s degraded: %s", w.Gate, w.Reason)
}

// Cascade applies the three conditioning gates in fixed order. The parameter
// set is held behind an atomic pointer: the fast path reads a value-copied
// snapshot per frame, and only the supervisor's deploy step swaps it, so a
// reader can never observe a partially updated set.
type Cascade struct {
	params   atomic.Pointer[gates.Set]
	envelope gates.Envelope
	log      *internal.Logger

	// fft plans are reused across frames of the same length. Only the
	// single fast-path consumer touches this map.
	ffts map[int]*fourier.FFT
}

// New creates a cascade with the given starting parameters
func New(initial gates.Set, envelope gates.Envelope, logger *internal.Logger) (*Cascade, error) {
	if err := envelope.CheckSet(initial); err != nil {
		return nil, err
	}
	c := &Cascade{
		envelope: envelope,
		log:      logger.With("cascade"),
		ffts:     make(map[int]*fourier.FFT),
	}
	c.params.Store(&initial)
	return c, nil
}

// Snapshot returns a value copy of the current parameter set
func (c *Cascade) Snapshot() gates.Set {
	return *c.params.Load()
}

// Swap atomically replaces the parameter set after an envelope check.
// Copy-then-swap: the new set is fully built before the pointer moves.
func (c *Cascade) Swap(next gates.Set) error {
	if err := c.envelope.CheckSet(next); err != nil {
		return err
	}
	c.params.Store(&next)
	c.log.Debug("gate parameters swapped: input=%.2f core=%.2f output=%.2f",
		next.Input.ConstrictionRatio, next.Core.ConstrictionRatio, next.Output.ConstrictionRatio)
	return nil
}

// Envelope returns the deploy-time bounds
func (c *Cascade) Envelope() gates.Envelope {
	return c.envelope
}

// Process runs one frame through input, core, and output gates. The input
// frame is borrowed; each stage produces a new owned frame. Warnings are
// non-fatal and the conditioned frame is always returned.
func (c *Cascade) Process(frame *signal.Frame) (*signal.Frame, []gates.StageMetrics, []DegradedGateWarning) {
	params := c.Snapshot()
	out := frame
	metrics := make([]gates.StageMetrics, 0, 3)
	var warnings []DegradedGateWarning

	for _, p := range params.All() {
		conditioned, m, warn := c.applyGate(out, p)
		out = conditioned
		metrics = append(metrics, m)
		if warn != nil {
			c.log.Warn("%v", warn)
			warnings = append(warnings, *warn)
		}
	}
	return out, metrics, warnings
}

// applyGate implements one Venturi stage: bandpass, constriction (×r), then
// velocity compensation (×1/r). With an all-pass band the constriction and
// compensation cancel exactly; otherwise the retained band is selectively
// amplified relative to the suppressed bands.
func (c *Cascade) applyGate(frame *signal.Frame, p gates.Parameters) (*signal.Frame, gates.StageMetrics, *DegradedGateWarning) {
	out := frame.CloneData()
	m := gates.StageMetrics{
		Gate:                 p.Name,
		VelocityFactor:       p.VelocityFactor(),
		PressureDifferential: 1 - p.ConstrictionRatio,
		BandRetention:        1,
	}

	if !p.Enabled {
		m.VelocityFactor = 1
		m.PressureDifferential = 0
		m.ProcessingEfficiency = 1
		m.PassThrough = true
		return out, m, nil
	}

	nyquist := float64(frame.SampleRate) / 2
	resolution := float64(frame.SampleRate) / float64(frame.Samples())

	if reason := bandProblem(p, nyquist, resolution); reason != "" {
		// Fall back to pass-through rather than corrupt the frame
		m.VelocityFactor = 1
		m.PressureDifferential = 0
		m.ProcessingEfficiency = 1
		m.PassThrough = true
		return out, m, &DegradedGateWarning{Gate: p.Name, Reason: reason}
	}

	allPass := p.FilterLow <= 0 && p.FilterHigh >= nyquist
	retention := 1.0
	if !allPass {
		retention = c.bandpass(out, p.FilterLow, p.FilterHigh)
	}

	// Constriction then gain compensation. Split into two passes so the
	// arithmetic mirrors the constriction model rather than collapsing to
	// a single no-op multiply.
	r := p.ConstrictionRatio
	v := p.VelocityFactor()
	for ch := range out.Data {
		row := out.Data[ch]
		for i := range row {
			row[i] *= r
		}
		for i := range row {
			row[i] *= v
		}
	}

	m.BandRetention = retention
	m.ProcessingEfficiency = v * r * retention
	return out, m, nil
}

// bandProblem reports why a filter band is unusable, or "" when it is fine
func bandProblem(p gates.Parameters, nyquist, resolution float64) string {
	switch {
	case p.ConstrictionRatio <= 0:
		return fmt.Sprintf("constriction ratio %.4f not positive", p.ConstrictionRatio)
	case p.FilterHigh <= p.FilterLow:
		return fmt.Sprintf("degenerate band edges [%.2f, %.2f]", p.FilterLow, p.FilterHigh)
	case p.FilterLow >= nyquist:
		return fmt.Sprintf("band low %.2fHz at or above nyquist %.2fHz", p.FilterLow, nyquist)
	case p.FilterHigh-p.FilterLow < resolution:
		return fmt.Sprintf("band width %.2fHz below spectral resolution %.2fHz", p.FilterHigh-p.FilterLow, resolution)
	}
	return ""
}

// bandpass zeroes spectral bins outside [low, high] for every channel and
// returns the fraction of signal energy retained, averaged over channels.
func (c *Cascade) bandpass(frame *signal.Frame, low, high float64) float64 {
	n := frame.Samples()
	if n == 0 {
		return 1
	}
	fft := c.ffts[n]
	if fft == nil {
		fft = fourier.NewFFT(n)
		c.ffts[n] = fft
	}

	retentionSum := 0.0
	channels := 0
	coeffs := make([]complex128, n/2+1)

	for ch := range frame.Data {
		row := frame.Data[ch]
		coeffs = fft.Coefficients(coeffs, row)

		total := 0.0
		kept := 0.0
		for i := range coeffs {
			binHz := float64(i) * float64(frame.SampleRate) / float64(n)
			power := real(coeffs[i])*real(coeffs[i]) + imag(coeffs[i])*imag(coeffs[i])
			total += power
			if binHz < low || binHz > high {
				coeffs[i] = 0
			} else {
				kept += power
			}
		}

		row = fft.Sequence(row, coeffs)
		// gonum's Sequence is unnormalized: scale by 1/n
		scale := 1 / float64(n)
		for i := range row {
			row[i] *= scale
		}
		frame.Data[ch] = row

		if total > 0 {
			retentionSum += kept / total
			channels++
		}
	}

	if channels == 0 {
		return 1
	}
	return retentionSum / float64(channels)
}
