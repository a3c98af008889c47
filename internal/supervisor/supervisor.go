package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"venturi/domain/core"
	"venturi/domain/gates"
	"venturi/domain/learning"
	"venturi/domain/optimize"
	"venturi/internal"
	"venturi/internal/config"
	"venturi/ports"
)

// GateController is the supervisor's handle on the cascade parameters.
// Snapshot/Swap are the copy-then-swap pair: the fast path can never observe
// a partially applied set.
type GateController interface {
	Snapshot() gates.Set
	Swap(next gates.Set) error
	Envelope() gates.Envelope
}

// RateController is the supervisor's handle on the learning base rate
type RateController interface {
	BaseRate() float64
	SetBaseRate(v float64) error
}

// activeDeployment tracks one applied change until its monitoring window
// concludes. The pre-deploy value is retained here so rollback can restore
// it exactly.
type activeDeployment struct {
	candidate  optimize.Candidate
	prev       float64
	deployedAt core.Timestamp
}

// Supervisor is the slow-cadence optimization loop: it watches the metrics
// ring the fast path fills, proposes bounded parameter changes for
// underperforming stages, deploys accepted candidates, and rolls back on
// regression. One instance per session; it never touches the fast path
// beyond the atomic parameter swap.
type Supervisor struct {
	sessionID core.SessionID
	cfg       config.SupervisorConfig
	learnCfg  learning.Config
	ring      *MetricsRing
	gatesCtl  GateController
	rateCtl   RateController
	ledger    ports.DeploymentLedgerWriter
	log       *internal.Logger

	analyzer *analyzer
	proposer *proposer

	kick       chan struct{}
	frameCount atomic.Int64

	mu           sync.Mutex
	phase        optimize.Phase
	active       []activeDeployment
	baseline     float64
	monitorStart core.Timestamp
	deployed     int
	rolledBack   int
}

// New creates a supervisor for one session
func New(sessionID core.SessionID, cfg config.SupervisorConfig, learnCfg learning.Config,
	gatesCtl GateController, rateCtl RateController, ledger ports.DeploymentLedgerWriter,
	logger *internal.Logger) *Supervisor {
	return &Supervisor{
		sessionID: sessionID,
		cfg:       cfg,
		learnCfg:  learnCfg,
		ring:      NewMetricsRing(cfg.RingCapacity),
		gatesCtl:  gatesCtl,
		rateCtl:   rateCtl,
		ledger:    ledger,
		log:       logger.With("supervisor"),
		analyzer:  newAnalyzer(cfg),
		proposer:  newProposer(cfg),
		kick:      make(chan struct{}, 1),
		phase:     optimize.PhaseCollecting,
	}
}

// Observe is the fast path's only entry point: push a frame metric and kick
// a cycle when the frame-count trigger fires. Non-blocking.
func (s *Supervisor) Observe(m FrameMetrics) {
	s.ring.Push(m)
	if s.frameCount.Add(1) >= int64(s.cfg.CycleFrames) {
		s.frameCount.Store(0)
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}
}

// Run executes cycles until the context ends. Teardown during MONITORING
// abandons the in-progress deployments: the session is gone, so there is
// nothing left to roll back.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.abandonActive()
			return nil
		case <-ticker.C:
			s.cycle(ctx)
		case <-s.kick:
			s.cycle(ctx)
		}
	}
}

// Phase returns the current state-machine phase
func (s *Supervisor) Phase() optimize.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Counts returns how many candidates were deployed and rolled back
func (s *Supervisor) Counts() (deployed, rolledBack int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deployed, s.rolledBack
}

// RingDropped reports metrics evicted unread from the ring
func (s *Supervisor) RingDropped() uint64 {
	return s.ring.Dropped()
}

func (s *Supervisor) setPhase(p optimize.Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// cycle runs one pass of the state machine. Exactly one goroutine calls it.
func (s *Supervisor) cycle(ctx context.Context) {
	window := s.ring.Snapshot()

	if s.hasActive() {
		s.setPhase(optimize.PhaseMonitoring)
		s.checkMonitor(ctx, window)
		return
	}

	s.setPhase(optimize.PhaseAnalyzing)
	analysis := s.analyzer.analyze(window)
	if len(analysis.Flags) == 0 && !analysis.RateFlagged {
		// Nothing underperforming: the normal outcome, not an error
		s.setPhase(optimize.PhaseCollecting)
		return
	}

	s.setPhase(optimize.PhaseProposing)
	candidates := s.proposer.propose(analysis, s.gatesCtl.Snapshot(), s.gatesCtl.Envelope(), s.learnCfg, s.rateCtl.BaseRate())
	if len(candidates) == 0 {
		s.setPhase(optimize.PhaseCollecting)
		return
	}

	s.setPhase(optimize.PhaseValidating)
	accepted := make([]optimize.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if err := validate(c, s.gatesCtl.Envelope(), s.learnCfg, s.cfg); err != nil {
			s.log.Debug("candidate %s rejected: %v", c.ID, err)
			continue
		}
		accepted = append(accepted, c)
	}
	if len(accepted) == 0 {
		s.setPhase(optimize.PhaseCollecting)
		return
	}

	s.setPhase(optimize.PhaseDeploying)
	s.deploy(ctx, accepted, analysis.Effectiveness)

	if s.hasActive() {
		s.setPhase(optimize.PhaseMonitoring)
	} else {
		s.setPhase(optimize.PhaseCollecting)
	}
}

// deploy applies accepted candidates in priority order, one per target.
// A failure aborts that candidate only; the rest deploy independently.
func (s *Supervisor) deploy(ctx context.Context, accepted []optimize.Candidate, baseline float64) {
	seen := make(map[string]bool)
	now := core.Now()

	for _, c := range accepted {
		key := string(c.Target) + ":" + c.Gate.String()
		if seen[key] {
			// The opposite-direction sibling of an already deployed change
			continue
		}

		prev, err := s.apply(c)
		if err != nil {
			s.log.Warn("deploy of candidate %s aborted: %v", c.ID, err)
			continue
		}
		seen[key] = true

		rec := optimize.DeploymentRecord{
			ID:            core.DeploymentID(core.NewID()),
			SessionID:     s.sessionID,
			Candidate:     c,
			PreviousValue: prev,
			DeployedAt:    now,
			Outcome:       optimize.OutcomePending,
		}
		if err := s.ledger.Append(ctx, rec); err != nil {
			s.log.Error("ledger append failed for deployment %s: %v", rec.ID, err)
		}

		s.mu.Lock()
		s.active = append(s.active, activeDeployment{candidate: c, prev: prev, deployedAt: now})
		s.deployed++
		s.mu.Unlock()

		s.log.Info("deployed %s %s: %.4f -> %.4f (priority %.2f)",
			c.Target, c.Gate, prev, c.ProposedValue, c.Priority())
	}

	if s.hasActive() {
		s.mu.Lock()
		s.baseline = baseline
		s.monitorStart = now
		s.mu.Unlock()
	}
}

// apply performs the parameter swap for one candidate and returns the
// pre-deploy value
func (s *Supervisor) apply(c optimize.Candidate) (float64, error) {
	switch c.Target {
	case optimize.TargetConstrictionRatio:
		snap := s.gatesCtl.Snapshot()
		params, ok := snap.Get(c.Gate)
		if !ok {
			return 0, core.NewEnvelopeError("gate", 0, 0, 0)
		}
		prev := params.ConstrictionRatio
		params.ConstrictionRatio = c.ProposedValue
		if err := s.gatesCtl.Swap(snap.With(params)); err != nil {
			return 0, err
		}
		return prev, nil
	case optimize.TargetBaseRate:
		prev := s.rateCtl.BaseRate()
		if err := s.rateCtl.SetBaseRate(c.ProposedValue); err != nil {
			return 0, err
		}
		return prev, nil
	}
	return 0, core.ErrCandidateRejected
}

// checkMonitor evaluates the monitoring window and concludes it when due.
// A degraded-gate warning on a changed gate short-circuits straight to
// rollback.
func (s *Supervisor) checkMonitor(ctx context.Context, window []FrameMetrics) {
	s.mu.Lock()
	start := s.monitorStart
	baseline := s.baseline
	active := make([]activeDeployment, len(s.active))
	copy(active, s.active)
	s.mu.Unlock()

	observed := make([]FrameMetrics, 0, len(window))
	for _, m := range window {
		if m.At.After(start) {
			observed = append(observed, m)
		}
	}

	warningHit := false
	for _, m := range observed {
		for _, w := range m.GateWarnings {
			for _, dep := range active {
				if dep.candidate.Target == optimize.TargetConstrictionRatio && dep.candidate.Gate == w {
					warningHit = true
				}
			}
		}
	}

	due := len(observed) >= s.cfg.MonitorFrames ||
		time.Since(start.Time()) >= s.cfg.MonitorInterval
	if !warningHit && !due {
		return
	}

	observedEff := Effectiveness(observed)
	relative := 1.0
	if baseline > 0 {
		relative = observedEff / baseline
	}

	regressed := warningHit || relative < s.cfg.EffectivenessFloor
	if regressed {
		s.setPhase(optimize.PhaseRollingBack)
		s.rollback(ctx, active, observedEff, warningHit)
	} else {
		s.retain(ctx, active, observedEff)
	}

	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
	s.setPhase(optimize.PhaseCollecting)
}

// rollback restores every active deployment's pre-deploy value, newest
// first, and appends a rollback record for each. Never edits prior records.
func (s *Supervisor) rollback(ctx context.Context, active []activeDeployment, observedEff float64, warningHit bool) {
	now := core.Now()
	for i := len(active) - 1; i >= 0; i-- {
		dep := active[i]
		if err := s.restore(dep); err != nil {
			s.log.Error("rollback of %s failed: %v", dep.candidate.ID, err)
			continue
		}

		ts := now
		rec := optimize.DeploymentRecord{
			ID:                    core.DeploymentID(core.NewID()),
			SessionID:             s.sessionID,
			Candidate:             dep.candidate,
			PreviousValue:         dep.prev,
			DeployedAt:            dep.deployedAt,
			RollbackAt:            &ts,
			ObservedEffectiveness: observedEff,
			Outcome:               optimize.OutcomeRolledBack,
		}
		if err := s.ledger.Append(ctx, rec); err != nil {
			s.log.Error("ledger append failed for rollback %s: %v", rec.ID, err)
		}

		s.mu.Lock()
		s.rolledBack++
		s.mu.Unlock()

		reason := "effectiveness regression"
		if warningHit {
			reason = "degraded-gate warning"
		}
		s.log.Warn("rolled back %s %s to %.4f (%s)", dep.candidate.Target, dep.candidate.Gate, dep.prev, reason)
	}
}

// retain closes out the monitoring window keeping the changes in place
func (s *Supervisor) retain(ctx context.Context, active []activeDeployment, observedEff float64) {
	for _, dep := range active {
		rec := optimize.DeploymentRecord{
			ID:                    core.DeploymentID(core.NewID()),
			SessionID:             s.sessionID,
			Candidate:             dep.candidate,
			PreviousValue:         dep.prev,
			DeployedAt:            dep.deployedAt,
			ObservedEffectiveness: observedEff,
			Outcome:               optimize.OutcomeRetained,
		}
		if err := s.ledger.Append(ctx, rec); err != nil {
			s.log.Error("ledger append failed for retention %s: %v", rec.ID, err)
		}
		s.log.Info("retained %s %s at %.4f (effectiveness %.3f)",
			dep.candidate.Target, dep.candidate.Gate, dep.candidate.ProposedValue, observedEff)
	}
}

// restore swaps one deployment's pre-deploy value back in
func (s *Supervisor) restore(dep activeDeployment) error {
	switch dep.candidate.Target {
	case optimize.TargetConstrictionRatio:
		snap := s.gatesCtl.Snapshot()
		params, ok := snap.Get(dep.candidate.Gate)
		if !ok {
			return core.ErrCandidateRejected
		}
		params.ConstrictionRatio = dep.prev
		return s.gatesCtl.Swap(snap.With(params))
	case optimize.TargetBaseRate:
		return s.rateCtl.SetBaseRate(dep.prev)
	}
	return core.ErrCandidateRejected
}

// abandonActive records in-progress deployments as abandoned on teardown.
// No rollback: the session is gone and its parameters with it.
func (s *Supervisor) abandonActive() {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.mu.Unlock()
	if len(active) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, dep := range active {
		rec := optimize.DeploymentRecord{
			ID:            core.DeploymentID(core.NewID()),
			SessionID:     s.sessionID,
			Candidate:     dep.candidate,
			PreviousValue: dep.prev,
			DeployedAt:    dep.deployedAt,
			Outcome:       optimize.OutcomeAbandoned,
		}
		if err := s.ledger.Append(ctx, rec); err != nil {
			s.log.Error("ledger append failed for abandoned %s: %v", rec.ID, err)
		}
	}
}

func (s *Supervisor) hasActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) > 0
}
