package spectral

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"venturi/domain/features"
	"venturi/domain/signal"
	"venturi/internal"
)

// Band edges of the usable spectrum for the SNR estimate
const (
	signalLowHz  = 0.5
	signalHighHz = 50
)

// Artifact detection thresholds. Threshold rules, not classifiers: this
// stage has to stay fast and deterministic.
const (
	blinkPeakFactor    = 5.0 // peak amplitude vs rms
	blinkDeltaFraction = 0.5 // low-frequency share of band power
	lineNoiseFactor    = 3.0 // mains bin power vs neighboring bins
	lineNoiseHalfWidth = 1.0 // Hz around the mains frequency
	saturationFraction = 0.2 // share of samples pinned at the ceiling
)

// Extractor computes band power, quality, and artifact flags from a
// conditioned frame. It never blocks and never fails: unparseable input
// yields quality zero and an artifact flag, not an error, because one bad
// frame must not halt the stream.
type Extractor struct {
	mainsHz float64
	log     *internal.Logger
	ffts    map[int]*fourier.FFT
}

// NewExtractor creates an extractor checking the given mains frequency
func NewExtractor(mainsHz float64, logger *internal.Logger) *Extractor {
	return &Extractor{
		mainsHz: mainsHz,
		log:     logger.With("spectral"),
		ffts:    make(map[int]*fourier.FFT),
	}
}

// Extract computes the feature vector for one frame
func (e *Extractor) Extract(frame *signal.Frame) features.Vector {
	fv := features.Vector{
		BandPower: make(map[features.Band]float64, len(features.BandOrder)),
		GapRatio:  frame.GapRatio,
	}
	for _, b := range features.BandOrder {
		fv.BandPower[b] = 0
	}

	n := frame.Samples()
	if n == 0 || frame.Channels() == 0 {
		fv.Artifacts = append(fv.Artifacts, features.ArtifactNonFinite)
		return fv
	}

	clean, sawNonFinite, allNonFinite := sanitize(frame.Data)
	if sawNonFinite {
		fv.Artifacts = append(fv.Artifacts, features.ArtifactNonFinite)
	}
	if allNonFinite {
		// Nothing usable in the frame; quality stays zero
		return fv
	}

	spectrum := e.meanSpectrum(clean, n)
	binHz := float64(frame.SampleRate) / float64(n)

	for _, band := range features.BandOrder {
		r := features.BandRanges[band]
		fv.BandPower[band] = meanPowerIn(spectrum, binHz, r.Low, r.High)
	}

	fv.SNR = snrEstimate(spectrum, binHz)
	snrNorm := fv.SNR / (1 + fv.SNR)
	fv.QualityScore = clamp01(snrNorm * (1 - frame.GapRatio))

	if e.detectBlink(clean, fv) {
		fv.Artifacts = append(fv.Artifacts, features.ArtifactBlink)
	}
	if e.detectLineNoise(spectrum, binHz) {
		fv.Artifacts = append(fv.Artifacts, features.ArtifactLineNoise)
	}
	if detectSaturation(clean) {
		fv.Artifacts = append(fv.Artifacts, features.ArtifactSaturation)
	}

	return fv
}

// sanitize replaces non-finite values with zero so the FFT stays defined.
// Returns whether any value was non-finite and whether every value was.
func sanitize(data [][]float64) (clean [][]float64, sawNonFinite, allNonFinite bool) {
	clean = make([][]float64, len(data))
	finiteCount := 0
	total := 0
	for ch := range data {
		row := make([]float64, len(data[ch]))
		for i, v := range data[ch] {
			total++
			if math.IsNaN(v) || math.IsInf(v, 0) {
				sawNonFinite = true
				row[i] = 0
			} else {
				row[i] = v
				finiteCount++
			}
		}
		clean[ch] = row
	}
	return clean, sawNonFinite, total > 0 && finiteCount == 0
}

// meanSpectrum computes the Hann-windowed power spectrum averaged across
// channels
func (e *Extractor) meanSpectrum(data [][]float64, n int) []float64 {
	fft := e.ffts[n]
	if fft == nil {
		fft = fourier.NewFFT(n)
		e.ffts[n] = fft
	}

	spectrum := make([]float64, n/2+1)
	windowed := make([]float64, n)
	coeffs := make([]complex128, n/2+1)

	for ch := range data {
		for i, v := range data[ch] {
			w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
			windowed[i] = v * w
		}
		coeffs = fft.Coefficients(coeffs, windowed)
		for i, c := range coeffs {
			spectrum[i] += real(c)*real(c) + imag(c)*imag(c)
		}
	}

	scale := 1 / float64(len(data))
	for i := range spectrum {
		spectrum[i] *= scale
	}
	return spectrum
}

// meanPowerIn averages spectral power over bins inside [low, high) Hz
func meanPowerIn(spectrum []float64, binHz, low, high float64) float64 {
	sum := 0.0
	count := 0
	for i, p := range spectrum {
		hz := float64(i) * binHz
		if hz >= low && hz < high {
			sum += p
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// snrEstimate treats 0.5-50Hz as signal and everything above as noise floor
func snrEstimate(spectrum []float64, binHz float64) float64 {
	sig := 0.0
	noise := 0.0
	noiseBins := 0
	sigBins := 0
	for i, p := range spectrum {
		hz := float64(i) * binHz
		switch {
		case hz >= signalLowHz && hz <= signalHighHz:
			sig += p
			sigBins++
		case hz > signalHighHz:
			noise += p
			noiseBins++
		}
	}
	if sigBins == 0 {
		return 0
	}
	sigMean := sig / float64(sigBins)
	if noiseBins == 0 || noise == 0 {
		// No measurable noise floor above the signal band
		if sigMean > 0 {
			return 100
		}
		return 0
	}
	noiseMean := noise / float64(noiseBins)
	return sigMean / noiseMean
}

// detectBlink flags large low-frequency amplitude transients
func (e *Extractor) detectBlink(data [][]float64, fv features.Vector) bool {
	total := fv.TotalPower()
	if total <= 0 {
		return false
	}
	deltaShare := fv.BandPower[features.BandDelta] / total
	if deltaShare < blinkDeltaFraction {
		return false
	}
	for ch := range data {
		peak, rms := peakAndRMS(data[ch])
		if rms > 0 && peak > blinkPeakFactor*rms {
			return true
		}
	}
	return false
}

// detectLineNoise flags narrow-band energy at the mains frequency compared
// with its spectral neighborhood
func (e *Extractor) detectLineNoise(spectrum []float64, binHz float64) bool {
	mains := meanPowerIn(spectrum, binHz, e.mainsHz-lineNoiseHalfWidth, e.mainsHz+lineNoiseHalfWidth)
	left := meanPowerIn(spectrum, binHz, e.mainsHz-6, e.mainsHz-2)
	right := meanPowerIn(spectrum, binHz, e.mainsHz+2, e.mainsHz+6)
	neighborhood := (left + right) / 2
	if neighborhood <= 0 {
		return false
	}
	return mains > lineNoiseFactor*neighborhood
}

// detectSaturation flags a channel pinned at its amplitude ceiling
func detectSaturation(data [][]float64) bool {
	for ch := range data {
		peak, _ := peakAndRMS(data[ch])
		if peak == 0 {
			continue
		}
		pinned := 0
		for _, v := range data[ch] {
			if math.Abs(v) >= 0.999*peak {
				pinned++
			}
		}
		if float64(pinned)/float64(len(data[ch])) > saturationFraction {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func peakAndRMS(row []float64) (peak, rms float64) {
	if len(row) == 0 {
		return 0, 0
	}
	sumSq := 0.0
	for _, v := range row {
		a := math.Abs(v)
		if a > peak {
			peak = a
		}
		sumSq += v * v
	}
	return peak, math.Sqrt(sumSq / float64(len(row)))
}
