package memory

import (
	"context"
	"errors"
	"testing"

	"venturi/domain/core"
	"venturi/domain/optimize"
)

func record(sessionID core.SessionID, outcome optimize.Outcome) optimize.DeploymentRecord {
	return optimize.DeploymentRecord{
		ID:        core.DeploymentID(core.NewID()),
		SessionID: sessionID,
		Candidate: optimize.Candidate{
			ID:            core.CandidateID(core.NewID()),
			Target:        optimize.TargetConstrictionRatio,
			ProposedValue: 0.75,
		},
		PreviousValue: 0.8,
		DeployedAt:    core.Now(),
		Outcome:       outcome,
	}
}

func TestLedgerAppendPreservesOrder(t *testing.T) {
	ledger := NewDeploymentLedger()
	ctx := context.Background()
	sessionID := core.SessionID(core.NewID())

	first := record(sessionID, optimize.OutcomePending)
	second := record(sessionID, optimize.OutcomeRolledBack)
	if err := ledger.Append(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Append(ctx, second); err != nil {
		t.Fatal(err)
	}

	records, err := ledger.ListBySession(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ID != first.ID || records[1].ID != second.ID {
		t.Error("records not in append order")
	}
}

func TestLedgerFiltersBySession(t *testing.T) {
	ledger := NewDeploymentLedger()
	ctx := context.Background()
	mine := core.SessionID(core.NewID())
	other := core.SessionID(core.NewID())

	_ = ledger.Append(ctx, record(mine, optimize.OutcomePending))
	_ = ledger.Append(ctx, record(other, optimize.OutcomePending))

	records, err := ledger.ListBySession(ctx, mine)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].SessionID != mine {
		t.Error("returned a record from another session")
	}
}

func TestLedgerGet(t *testing.T) {
	ledger := NewDeploymentLedger()
	ctx := context.Background()
	rec := record(core.SessionID(core.NewID()), optimize.OutcomeRetained)
	_ = ledger.Append(ctx, rec)

	got, err := ledger.Get(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != rec.ID || got.Outcome != optimize.OutcomeRetained {
		t.Errorf("got %+v, want the appended record", got)
	}

	_, err = ledger.Get(ctx, core.DeploymentID(core.NewID()))
	if !errors.Is(err, core.ErrDeploymentNotFound) {
		t.Errorf("err = %v, want ErrDeploymentNotFound", err)
	}
}
