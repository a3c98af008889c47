package app

import (
	"context"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"venturi/adapters/dsp/cascade"
	"venturi/adapters/dsp/spectral"
	"venturi/domain/core"
	"venturi/domain/decision"
	"venturi/domain/learning"
	"venturi/domain/session"
	"venturi/internal"
	"venturi/internal/api"
	"venturi/internal/config"
	apperrors "venturi/internal/errors"
	"venturi/internal/framer"
	"venturi/internal/supervisor"
	"venturi/ports"
)

// SessionService runs one processing session end to end: the framer feeds
// the fast path, the supervisor tunes it from the side, and a summary is
// produced when the stream ends.
type SessionService struct {
	cfg    *config.Config
	log    *internal.Logger
	source ports.SampleSource
	sink   ports.DecisionSink
	scorer ports.Scorer
	ledger ports.DeploymentLedgerWriter

	sessionID core.SessionID
	cascade   *cascade.Cascade
	sup       *supervisor.Supervisor
	pipeline  *Pipeline
	framer    *framer.Framer

	mu          sync.Mutex
	frames      int
	degraded    int
	qualities   []float64
	confidences []float64
	labelCounts map[decision.Label]int
}

// NewSessionService wires a session from its collaborators. The scorer is
// the host's pluggable decision stage.
func NewSessionService(cfg *config.Config, source ports.SampleSource, sink ports.DecisionSink,
	scorer ports.Scorer, ledger ports.DeploymentLedgerWriter, logger *internal.Logger) (*SessionService, error) {
	sessionID := core.SessionID(core.NewID())

	casc, err := cascade.New(cfg.Gates.Initial, cfg.Gates.Envelope, logger)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid,
			apperrors.Wrap(err, "initial gate parameters outside envelope"))
	}

	rate := NewRateControl(cfg.Learning)
	sup := supervisor.New(sessionID, cfg.Supervisor, cfg.Learning, casc, rate, ledger, logger)
	extractor := spectral.NewExtractor(cfg.Session.MainsHz, logger)
	proj := learning.DefaultProjection(cfg.Learning.TraitDim)
	pipeline := NewPipeline(sessionID, cfg.Session, cfg.Learning, casc, extractor, proj, rate, scorer, sink, sup, logger)

	return &SessionService{
		cfg:         cfg,
		log:         logger.With("session"),
		source:      source,
		sink:        sink,
		scorer:      scorer,
		ledger:      ledger,
		sessionID:   sessionID,
		cascade:     casc,
		sup:         sup,
		pipeline:    pipeline,
		framer:      framer.New(sessionID, cfg.Session, logger),
		labelCounts: make(map[decision.Label]int),
	}, nil
}

// SessionID returns the session's identifier
func (s *SessionService) SessionID() core.SessionID {
	return s.sessionID
}

// Run drives the session until the source ends or the context is canceled.
// The returned summary is complete even when the session ends in error.
func (s *SessionService) Run(ctx context.Context) (session.Summary, error) {
	startedAt := core.Now()
	s.log.Info("session %s starting: %d channels at %d Hz, %d ms windows",
		s.sessionID, s.cfg.Session.ChannelCount, s.cfg.Session.SampleRate, s.cfg.Session.WindowMS)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return s.sup.Run(gctx)
	})

	frames, frameErrs := s.framer.Run(gctx, s.source)
	g.Go(func() error {
		defer cancel()
		for frame := range frames {
			d, m, err := s.pipeline.HandleFrame(gctx, frame)
			if err != nil {
				return apperrors.SinkError("decision publish failed", err)
			}
			s.record(m, d)
		}
		if err := <-frameErrs; err != nil {
			return err
		}
		return nil
	})

	err := g.Wait()
	summary := s.summarize(startedAt, err)
	s.log.Info("session %s finished: %d frames (%d degraded), mean quality %.3f",
		s.sessionID, summary.FramesTotal, summary.FramesDegraded, summary.MeanQuality)
	return summary, err
}

// Status implements the live status endpoint
func (s *SessionService) Status() api.Status {
	s.mu.Lock()
	frames := s.frames
	degraded := s.degraded
	s.mu.Unlock()

	deployed, rolledBack := s.sup.Counts()
	gateInfo := make(map[string]any)
	for _, p := range s.cascade.Snapshot().All() {
		gateInfo[p.Name.String()] = map[string]any{
			"constriction_ratio": p.ConstrictionRatio,
			"filter_low_hz":      p.FilterLow,
			"filter_high_hz":     p.FilterHigh,
			"enabled":            p.Enabled,
		}
	}

	return api.Status{
		SessionID:       s.sessionID.String(),
		Phase:           string(s.sup.Phase()),
		FramesProcessed: frames,
		FramesDegraded:  degraded,
		Deployed:        deployed,
		RolledBack:      rolledBack,
		RingDropped:     s.sup.RingDropped(),
		Gates:           gateInfo,
	}
}

func (s *SessionService) record(m supervisor.FrameMetrics, d decision.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	if m.Degraded {
		s.degraded++
	}
	s.qualities = append(s.qualities, m.Quality)
	s.confidences = append(s.confidences, d.Confidence)
	s.labelCounts[d.Label]++
}

func (s *SessionService) summarize(startedAt core.Timestamp, runErr error) session.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	meanQuality, _ := stats.Mean(s.qualities)
	meanConfidence, _ := stats.Mean(s.confidences)
	deployed, rolledBack := s.sup.Counts()

	labelCounts := make(map[decision.Label]int, len(s.labelCounts))
	for k, v := range s.labelCounts {
		labelCounts[k] = v
	}

	summary := session.Summary{
		SessionID:      s.sessionID,
		StartedAt:      startedAt,
		EndedAt:        core.Now(),
		FramesTotal:    s.frames,
		FramesDegraded: s.degraded,
		MeanQuality:    meanQuality,
		MeanConfidence: meanConfidence,
		LabelCounts:    labelCounts,
		Deployments:    deployed,
		Rollbacks:      rolledBack,
	}
	if runErr != nil {
		summary.TerminalError = runErr.Error()
	}
	return summary
}
