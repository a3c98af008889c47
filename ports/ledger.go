package ports

import (
	"context"

	"venturi/domain/core"
	"venturi/domain/optimize"
)

// DeploymentLedgerWriter provides append-only write access to the audit log.
// This is the ONLY way deployment history is recorded - records are never
// updated in place; a rollback appends a fresh record.
type DeploymentLedgerWriter interface {
	Append(ctx context.Context, rec optimize.DeploymentRecord) error
}

// DeploymentLedgerReader provides read-only access for observability tooling
type DeploymentLedgerReader interface {
	ListBySession(ctx context.Context, sessionID core.SessionID) ([]optimize.DeploymentRecord, error)
	Get(ctx context.Context, id core.DeploymentID) (*optimize.DeploymentRecord, error)
}

// DeploymentLedger combines read and write access
type DeploymentLedger interface {
	DeploymentLedgerWriter
	DeploymentLedgerReader
}
