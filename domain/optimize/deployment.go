package optimize

import (
	"venturi/domain/core"
)

// DeploymentRecord is an append-only audit entry for one configuration
// change and its outcome. Immutable once written: a rollback appends a new
// record with RollbackAt set, it never edits the original.
type DeploymentRecord struct {
	ID                    core.DeploymentID `json:"id"`
	SessionID             core.SessionID    `json:"session_id"`
	Candidate             Candidate         `json:"candidate"`
	PreviousValue         float64           `json:"previous_value"`
	DeployedAt            core.Timestamp    `json:"deployed_at"`
	RollbackAt            *core.Timestamp   `json:"rollback_at,omitempty"`
	ObservedEffectiveness float64           `json:"observed_effectiveness"`
	Outcome               Outcome           `json:"outcome"`
}

// Outcome classifies how a deployment ended
type Outcome string

const (
	// OutcomePending means the monitoring window has not finished
	OutcomePending Outcome = "pending"
	// OutcomeRetained means effectiveness held and the change stays
	OutcomeRetained Outcome = "retained"
	// OutcomeRolledBack means effectiveness regressed and the previous value was restored
	OutcomeRolledBack Outcome = "rolled_back"
	// OutcomeAbandoned means the session ended mid-monitoring; no rollback, the session is gone
	OutcomeAbandoned Outcome = "abandoned"
)

// Phase names one state of the supervisor's cycle
type Phase string

const (
	PhaseCollecting  Phase = "collecting"
	PhaseAnalyzing   Phase = "analyzing"
	PhaseProposing   Phase = "proposing"
	PhaseValidating  Phase = "validating"
	PhaseDeploying   Phase = "deploying"
	PhaseMonitoring  Phase = "monitoring"
	PhaseRollingBack Phase = "rolling_back"
)
