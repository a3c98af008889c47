package supervisor

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"venturi/domain/core"
	"venturi/domain/gates"
	"venturi/internal/config"
)

// StageFlag marks one stage as underperforming with the evidence behind it
type StageFlag struct {
	Gate       core.GateName
	Reason     string
	Delta      float64 // magnitude of the observed decline
	Confidence float64 // probability the decline is real, not noise
}

// Analysis is the output of one analyzing phase
type Analysis struct {
	Flags          []StageFlag
	RateFlagged    bool
	RateConfidence float64
	QualitySlope   float64
	Effectiveness  float64
}

// analyzer computes per-stage effectiveness deltas versus a trailing
// baseline. Flags require the decline to persist for a configured number of
// consecutive windows before a stage counts as underperforming.
type analyzer struct {
	cfg     config.SupervisorConfig
	streaks map[string]int
}

func newAnalyzer(cfg config.SupervisorConfig) *analyzer {
	return &analyzer{cfg: cfg, streaks: make(map[string]int)}
}

// minWindow is the smallest metrics window worth analyzing
const minWindow = 20

func (a *analyzer) analyze(window []FrameMetrics) Analysis {
	out := Analysis{Effectiveness: Effectiveness(window)}
	if len(window) < minWindow {
		return out
	}

	baseline := window[:len(window)/2]
	recent := window[len(window)/2:]

	// Per-gate efficiency trend
	for _, gate := range gates.Order {
		recentEff := gateEfficiencies(recent, gate)
		baseEff := gateEfficiencies(baseline, gate)
		recentMean, _ := stats.Mean(recentEff)
		baseMean, _ := stats.Mean(baseEff)

		unhealthy := warningsFor(recent, gate) > 0
		below := recentMean < a.cfg.EfficiencyFloor && recentMean < baseMean

		key := "gate:" + gate.String()
		if unhealthy || below {
			a.streaks[key]++
		} else {
			a.streaks[key] = 0
		}
		if a.streaks[key] < a.cfg.ConsecutiveWindows {
			continue
		}

		flag := StageFlag{Gate: gate, Delta: baseMean - recentMean}
		if unhealthy {
			flag.Reason = "gate reported degraded-filter warnings"
			flag.Confidence = 0.99
		} else {
			flag.Reason = "processing efficiency below floor versus baseline"
			flag.Confidence = declineConfidence(baseEff, recentMean)
		}
		out.Flags = append(out.Flags, flag)
	}

	// Downstream quality trend feeds the learning-rate target
	qualities := make([]stats.Coordinate, len(window))
	for i, m := range window {
		qualities[i] = stats.Coordinate{X: float64(i), Y: m.Quality}
	}
	if reg, err := stats.LinearRegression(qualities); err == nil && len(reg) >= 2 {
		out.QualitySlope = reg[1].Y - reg[0].Y
	}

	recentConf, _ := stats.Mean(confidences(recent))
	key := "rate"
	if out.QualitySlope < a.cfg.QualitySlopeFloor && recentConf < 0.5 {
		a.streaks[key]++
	} else {
		a.streaks[key] = 0
	}
	if a.streaks[key] >= a.cfg.ConsecutiveWindows {
		out.RateFlagged = true
		out.RateConfidence = declineConfidence(qualitySeries(baseline), meanOf(qualitySeries(recent)))
	}

	return out
}

// Effectiveness collapses a metrics window to one scalar: the mean of
// quality and confidence. Used both for the pre-deploy baseline and the
// monitoring comparison.
func Effectiveness(window []FrameMetrics) float64 {
	if len(window) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range window {
		sum += (m.Quality + m.Confidence) / 2
	}
	return sum / float64(len(window))
}

// declineConfidence estimates how likely the recent mean genuinely sits
// below the baseline distribution, via a one-sided z test against the
// baseline spread.
func declineConfidence(baseline []float64, recentMean float64) float64 {
	baseMean, err := stats.Mean(baseline)
	if err != nil {
		return 0
	}
	sd, err := stats.StandardDeviation(baseline)
	if err != nil || sd == 0 {
		if recentMean < baseMean {
			return 0.99
		}
		return 0
	}
	se := sd / math.Sqrt(float64(len(baseline)))
	z := (baseMean - recentMean) / se
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	return norm.CDF(z)
}

func gateEfficiencies(window []FrameMetrics, gate core.GateName) []float64 {
	out := make([]float64, 0, len(window))
	for _, m := range window {
		if eff, ok := m.StageEfficiency[gate]; ok {
			out = append(out, eff)
		}
	}
	return out
}

func warningsFor(window []FrameMetrics, gate core.GateName) int {
	count := 0
	for _, m := range window {
		for _, w := range m.GateWarnings {
			if w == gate {
				count++
			}
		}
	}
	return count
}

func confidences(window []FrameMetrics) []float64 {
	out := make([]float64, len(window))
	for i, m := range window {
		out[i] = m.Confidence
	}
	return out
}

func qualitySeries(window []FrameMetrics) []float64 {
	out := make([]float64, len(window))
	for i, m := range window {
		out[i] = m.Quality
	}
	return out
}

func meanOf(series []float64) float64 {
	m, err := stats.Mean(series)
	if err != nil {
		return 0
	}
	return m
}
