package optimize

import (
	"venturi/domain/core"
)

// TargetKind names the parameter family a candidate proposes to change
type TargetKind string

const (
	// TargetConstrictionRatio retunes one gate's constriction ratio
	TargetConstrictionRatio TargetKind = "constriction_ratio"
	// TargetBaseRate retunes the learning-rate base coefficient
	TargetBaseRate TargetKind = "base_rate"
)

// Candidate is a proposed, not-yet-deployed configuration change. Created by
// the supervisor's proposing phase, consumed by validation, discarded after
// the deploy/reject decision; only the ledger retains history.
type Candidate struct {
	ID                  core.CandidateID `json:"id"`
	Target              TargetKind       `json:"target"`
	Gate                core.GateName    `json:"gate,omitempty"`
	CurrentValue        float64          `json:"current_value"`
	ProposedValue       float64          `json:"proposed_value"`
	ExpectedImprovement float64          `json:"expected_improvement_pct"`
	ConfidenceScore     float64          `json:"confidence_score"`
	RiskScore           float64          `json:"risk_score"`
	ComplexityScore     float64          `json:"complexity_score"`
	Rationale           string           `json:"rationale"`
	CreatedAt           core.Timestamp   `json:"created_at"`
}

// Priority ranks candidates for deployment order within one cycle
func (c Candidate) Priority() float64 {
	return (c.ExpectedImprovement/100)*10 - (c.RiskScore/10)*2 - c.ComplexityScore/10
}
