package supervisor

import (
	"fmt"

	"venturi/domain/core"
	"venturi/domain/gates"
	"venturi/domain/learning"
	"venturi/domain/optimize"
	"venturi/internal/config"
)

// validate applies the acceptance gates to one candidate. A rejection is the
// normal "nothing to do" outcome, not an error condition for the cycle;
// rejected candidates are logged and discarded, never retried automatically.
func validate(c optimize.Candidate, env gates.Envelope, learnCfg learning.Config, cfg config.SupervisorConfig) error {
	if c.ConfidenceScore < cfg.MinConfidence {
		return fmt.Errorf("%w: confidence %.2f below %.2f", core.ErrCandidateRejected, c.ConfidenceScore, cfg.MinConfidence)
	}
	if c.RiskScore >= cfg.MaxRisk {
		return fmt.Errorf("%w: risk %.1f at or above %.1f", core.ErrCandidateRejected, c.RiskScore, cfg.MaxRisk)
	}
	if c.ComplexityScore >= cfg.MaxComplexity {
		return fmt.Errorf("%w: complexity %.1f at or above %.1f", core.ErrCandidateRejected, c.ComplexityScore, cfg.MaxComplexity)
	}

	switch c.Target {
	case optimize.TargetConstrictionRatio:
		if err := env.CheckRatio(c.Gate, c.ProposedValue); err != nil {
			return fmt.Errorf("%w: %v", core.ErrCandidateRejected, err)
		}
	case optimize.TargetBaseRate:
		if c.ProposedValue < learnCfg.MinRate || c.ProposedValue > learnCfg.MaxRate {
			return fmt.Errorf("%w: base rate %.3f not in [%.2f, %.2f]",
				core.ErrCandidateRejected, c.ProposedValue, learnCfg.MinRate, learnCfg.MaxRate)
		}
	default:
		return fmt.Errorf("%w: unknown target %q", core.ErrCandidateRejected, c.Target)
	}
	return nil
}
