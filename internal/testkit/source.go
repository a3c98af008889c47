package testkit

import (
	"context"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"venturi/domain/core"
	"venturi/domain/signal"
	"venturi/ports"
)

// SyntheticConfig shapes the generated stream
type SyntheticConfig struct {
	Channels   int
	SampleRate int
	Duration   time.Duration
	// ToneHz is the dominant oscillation frequency (10 Hz sits in the
	// alpha band)
	ToneHz float64
	// Amplitude of the tone in microvolts
	Amplitude float64
	// NoiseAmplitude of the additive white noise
	NoiseAmplitude float64
	// CorruptEvery injects a burst of NaN samples once per this many
	// samples; zero disables corruption
	CorruptEvery int
	// CorruptLen is the length of each NaN burst in samples
	CorruptLen int
	Seed       int64
}

// DefaultSyntheticConfig is a clean 8-channel alpha-dominant stream
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Channels:       8,
		SampleRate:     256,
		Duration:       10 * time.Second,
		ToneHz:         10,
		Amplitude:      20,
		NoiseAmplitude: 2,
		Seed:           1,
	}
}

// SyntheticSource generates a deterministic sinusoid-plus-noise stream for
// demos and tests. Timestamps advance at the nominal sample interval from a
// fixed origin, so framing is reproducible.
type SyntheticSource struct {
	cfg   SyntheticConfig
	rng   *rand.Rand
	mu    sync.Mutex
	index int
	total int
	start time.Time
}

var _ ports.SampleSource = (*SyntheticSource)(nil)

// NewSyntheticSource creates a source emitting cfg.Duration worth of samples
func NewSyntheticSource(cfg SyntheticConfig) *SyntheticSource {
	return &SyntheticSource{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		total: int(cfg.Duration.Seconds() * float64(cfg.SampleRate)),
		start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Next returns the next sample, or io.EOF once the configured duration has
// been emitted
func (s *SyntheticSource) Next(ctx context.Context) (signal.Sample, error) {
	if err := ctx.Err(); err != nil {
		return signal.Sample{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= s.total {
		return signal.Sample{}, io.EOF
	}

	i := s.index
	s.index++

	interval := time.Second / time.Duration(s.cfg.SampleRate)
	at := s.start.Add(time.Duration(i) * interval)
	t := float64(i) / float64(s.cfg.SampleRate)

	values := make([]float64, s.cfg.Channels)
	if s.corrupted(i) {
		for ch := range values {
			values[ch] = math.NaN()
		}
	} else {
		for ch := range values {
			phase := 2 * math.Pi * float64(ch) / float64(s.cfg.Channels)
			values[ch] = s.cfg.Amplitude*math.Sin(2*math.Pi*s.cfg.ToneHz*t+phase) +
				s.cfg.NoiseAmplitude*s.rng.NormFloat64()
		}
	}

	return signal.Sample{Timestamp: core.NewTimestamp(at), Values: values}, nil
}

func (s *SyntheticSource) corrupted(i int) bool {
	if s.cfg.CorruptEvery <= 0 || s.cfg.CorruptLen <= 0 {
		return false
	}
	return i%s.cfg.CorruptEvery < s.cfg.CorruptLen
}
