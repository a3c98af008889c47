package memory

import (
	"context"
	"sync"

	"venturi/domain/core"
	"venturi/domain/optimize"
	"venturi/ports"
)

// DeploymentLedger is the in-memory append-only audit log. Default ledger
// for tests and hosts that wire their own persistence.
type DeploymentLedger struct {
	mu      sync.RWMutex
	records []optimize.DeploymentRecord
}

// NewDeploymentLedger creates an empty in-memory ledger
func NewDeploymentLedger() *DeploymentLedger {
	return &DeploymentLedger{}
}

var _ ports.DeploymentLedger = (*DeploymentLedger)(nil)

// Append stores a copy of the record. Records are never updated in place.
func (l *DeploymentLedger) Append(_ context.Context, rec optimize.DeploymentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

// ListBySession returns the session's records in append order
func (l *DeploymentLedger) ListBySession(_ context.Context, sessionID core.SessionID) ([]optimize.DeploymentRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []optimize.DeploymentRecord
	for _, rec := range l.records {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Get returns a record by id
func (l *DeploymentLedger) Get(_ context.Context, id core.DeploymentID) (*optimize.DeploymentRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, rec := range l.records {
		if rec.ID == id {
			cp := rec
			return &cp, nil
		}
	}
	return nil, core.ErrDeploymentNotFound
}
