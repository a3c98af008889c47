package spectral

import (
	"math"
	"math/rand"
	"testing"

	"venturi/domain/core"
	"venturi/domain/features"
	"venturi/domain/signal"
	"venturi/internal"
)

func testFrame(channels, samples, rate int, fill func(ch, i int) float64) *signal.Frame {
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
	}
}

func TestExtractAlphaDominance(t *testing.T) {
	e := NewExtractor(50, internal.NewLogger(internal.LogLevelError))
	rng := rand.New(rand.NewSource(3))

	// Strong 10 Hz tone with a little broadband noise
	frame := testFrame(4, 512, 256, func(ch, i int) float64 {
		return 20*math.Sin(2*math.Pi*10*float64(i)/256) + rng.NormFloat64()
	})

	fv := e.Extract(frame)

	if got := fv.DominantBand(); got != features.BandAlpha {
		t.Errorf("dominant band = %s, want alpha; powers %v", got, fv.BandPower)
	}
	if fv.QualityScore < 0.7 {
		t.Errorf("quality = %f, want >= 0.7 for a clean tone", fv.QualityScore)
	}
	if fv.SNR <= 1 {
		t.Errorf("snr = %f, want above noise floor", fv.SNR)
	}
}

func TestAlphaDominanceAcrossStream(t *testing.T) {
	e := NewExtractor(50, internal.NewLogger(internal.LogLevelError))
	rng := rand.New(rand.NewSource(11))

	const frames = 30
	dominant := 0
	for f := 0; f < frames; f++ {
		offset := f * 256
		frame := testFrame(8, 256, 256, func(ch, i int) float64 {
			tsec := float64(offset+i) / 256
			return 20*math.Sin(2*math.Pi*10*tsec) + 2*rng.NormFloat64()
		})
		if e.Extract(frame).DominantBand() == features.BandAlpha {
			dominant++
		}
	}

	if ratio := float64(dominant) / frames; ratio < 0.9 {
		t.Errorf("alpha dominant in %.0f%% of frames, want at least 90%%", ratio*100)
	}
}

func TestExtractAllNonFinite(t *testing.T) {
	e := NewExtractor(50, internal.NewLogger(internal.LogLevelError))

	frame := testFrame(2, 256, 256, func(ch, i int) float64 {
		return math.NaN()
	})

	fv := e.Extract(frame)

	if fv.QualityScore != 0 {
		t.Errorf("quality = %f, want 0 for all-NaN frame", fv.QualityScore)
	}
	if !fv.HasArtifact(features.ArtifactNonFinite) {
		t.Error("missing non-finite artifact flag")
	}
	for band, p := range fv.BandPower {
		if p != 0 {
			t.Errorf("band %s power = %f, want 0", band, p)
		}
	}
}

func TestExtractPartialNonFinite(t *testing.T) {
	e := NewExtractor(50, internal.NewLogger(internal.LogLevelError))

	frame := testFrame(2, 512, 256, func(ch, i int) float64 {
		if ch == 0 && i%17 == 0 {
			return math.Inf(1)
		}
		return 10 * math.Sin(2*math.Pi*10*float64(i)/256)
	})

	fv := e.Extract(frame)

	if !fv.HasArtifact(features.ArtifactNonFinite) {
		t.Error("missing non-finite artifact flag")
	}
	// The clean channel still carries usable signal
	if fv.TotalPower() <= 0 {
		t.Error("band power vanished despite a mostly clean frame")
	}
}

func TestExtractLineNoise(t *testing.T) {
	e := NewExtractor(50, internal.NewLogger(internal.LogLevelError))

	// 10 Hz signal plus a strong 50 Hz mains component
	frame := testFrame(2, 512, 256, func(ch, i int) float64 {
		tsec := float64(i) / 256
		return 5*math.Sin(2*math.Pi*10*tsec) + 30*math.Sin(2*math.Pi*50*tsec)
	})

	fv := e.Extract(frame)
	if !fv.HasArtifact(features.ArtifactLineNoise) {
		t.Errorf("missing line-noise flag; band powers %v", fv.BandPower)
	}
}

func TestExtractSaturation(t *testing.T) {
	e := NewExtractor(50, internal.NewLogger(internal.LogLevelError))

	// Hard-clipped square-ish wave: most samples pinned at the ceiling
	frame := testFrame(1, 256, 256, func(ch, i int) float64 {
		v := 100 * math.Sin(2*math.Pi*5*float64(i)/256)
		if v > 50 {
			return 50
		}
		if v < -50 {
			return -50
		}
		return v
	})

	fv := e.Extract(frame)
	if !fv.HasArtifact(features.ArtifactSaturation) {
		t.Error("missing saturation flag for clipped signal")
	}
}

func TestQualityDegradesWithGapRatio(t *testing.T) {
	e := NewExtractor(50, internal.NewLogger(internal.LogLevelError))
	fill := func(ch, i int) float64 {
		return 10 * math.Sin(2*math.Pi*10*float64(i)/256)
	}

	clean := testFrame(2, 512, 256, fill)
	gappy := testFrame(2, 512, 256, fill)
	gappy.GapRatio = 0.5

	qClean := e.Extract(clean).QualityScore
	qGappy := e.Extract(gappy).QualityScore
	if qGappy >= qClean {
		t.Errorf("gap ratio did not reduce quality: clean %f, gappy %f", qClean, qGappy)
	}
}

func TestExtractEmptyFrame(t *testing.T) {
	e := NewExtractor(50, internal.NewLogger(internal.LogLevelError))

	fv := e.Extract(&signal.Frame{Data: [][]float64{}})
	if fv.QualityScore != 0 {
		t.Errorf("quality = %f, want 0 for empty frame", fv.QualityScore)
	}
	if !fv.HasArtifact(features.ArtifactNonFinite) {
		t.Error("empty frame should carry the non-finite flag")
	}
}
