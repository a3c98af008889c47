package memory

import (
	"context"
	"sync"

	"venturi/domain/decision"
	"venturi/ports"
)

// DecisionSink collects decisions in memory. Used by tests and by the demo
// host, which drains it for the session report.
type DecisionSink struct {
	mu        sync.RWMutex
	decisions []decision.Decision
}

// NewDecisionSink creates an empty collecting sink
func NewDecisionSink() *DecisionSink {
	return &DecisionSink{}
}

var _ ports.DecisionSink = (*DecisionSink)(nil)

// Publish appends the decision
func (s *DecisionSink) Publish(_ context.Context, d decision.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, d)
	return nil
}

// All returns a copy of everything published so far
func (s *DecisionSink) All() []decision.Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]decision.Decision, len(s.decisions))
	copy(out, s.decisions)
	return out
}

// Len returns the number of published decisions
func (s *DecisionSink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decisions)
}
