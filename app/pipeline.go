package app

import (
	"context"

	"venturi/adapters/dsp/cascade"
	"venturi/adapters/dsp/spectral"
	"venturi/domain/core"
	"venturi/domain/decision"
	"venturi/domain/learning"
	"venturi/domain/signal"
	"venturi/internal"
	"venturi/internal/config"
	"venturi/internal/supervisor"
	"venturi/ports"
)

// Pipeline is the per-frame fast path: condition, extract, learn, decide,
// publish. One goroutine drives it; the learning state is owned here and
// replaced whole on every update.
type Pipeline struct {
	sessionID core.SessionID
	cfg       config.SessionConfig
	learnCfg  learning.Config

	cascade   *cascade.Cascade
	extractor *spectral.Extractor
	proj      learning.Projection
	rate      *RateControl
	scorer    ports.Scorer
	sink      ports.DecisionSink
	sup       *supervisor.Supervisor
	log       *internal.Logger

	state *learning.State
}

// NewPipeline wires the fast path around an initial learning state
func NewPipeline(sessionID core.SessionID, cfg config.SessionConfig, learnCfg learning.Config,
	casc *cascade.Cascade, extractor *spectral.Extractor, proj learning.Projection,
	rate *RateControl, scorer ports.Scorer, sink ports.DecisionSink,
	sup *supervisor.Supervisor, logger *internal.Logger) *Pipeline {
	return &Pipeline{
		sessionID: sessionID,
		cfg:       cfg,
		learnCfg:  learnCfg,
		cascade:   casc,
		extractor: extractor,
		proj:      proj,
		rate:      rate,
		scorer:    scorer,
		sink:      sink,
		sup:       sup,
		log:       logger.With("pipeline"),
		state:     learning.NewState(sessionID, learnCfg),
	}
}

// State returns the current learning state
func (p *Pipeline) State() *learning.State {
	return p.state
}

// HandleFrame runs one frame through the full fast path. Degraded frames
// flow through every stage; only a sink failure is returned as an error.
func (p *Pipeline) HandleFrame(ctx context.Context, frame *signal.Frame) (decision.Decision, supervisor.FrameMetrics, error) {
	conditioned, stageMetrics, warnings := p.cascade.Process(frame)

	fv := p.extractor.Extract(conditioned)

	learnCfg := p.learnCfg
	learnCfg.BaseRate = p.rate.BaseRate()
	result := learning.Update(p.state, fv, frame.Degraded, p.proj, learnCfg)
	p.state = result.NewState

	var d decision.Decision
	if frame.Degraded || fv.QualityScore < p.cfg.QualityFloor {
		d = decision.ShortCircuit(p.sessionID, frame.ID, frame.Index)
	} else {
		score, label, confidence := p.scorer.Score(fv, p.state)
		d = decision.Decision{
			SessionID:  p.sessionID,
			FrameID:    frame.ID,
			FrameIndex: frame.Index,
			Score:      score,
			Label:      label,
			Confidence: confidence,
			At:         core.Now(),
		}
	}

	m := supervisor.FrameMetrics{
		FrameIndex:      frame.Index,
		At:              core.Now(),
		Quality:         fv.QualityScore,
		Confidence:      d.Confidence,
		Degraded:        frame.Degraded,
		LearningRate:    result.Metrics.LearningRate,
		StageEfficiency: make(map[core.GateName]float64, len(stageMetrics)),
	}
	for _, sm := range stageMetrics {
		m.StageEfficiency[sm.Gate] = sm.ProcessingEfficiency
	}
	for _, w := range warnings {
		m.GateWarnings = append(m.GateWarnings, w.Gate)
	}

	if err := p.sink.Publish(ctx, d); err != nil {
		return d, m, err
	}
	p.sup.Observe(m)
	return d, m, nil
}
