package supervisor

import (
	"fmt"
	"math"
	"sort"

	"venturi/domain/core"
	"venturi/domain/gates"
	"venturi/domain/learning"
	"venturi/domain/optimize"
	"venturi/internal/config"
)

// proposer turns analysis flags into bounded parameter perturbations. Each
// flagged stage yields up to two candidates (one step in each direction);
// a flagged learning rate yields the same around the base rate.
type proposer struct {
	cfg config.SupervisorConfig
}

func newProposer(cfg config.SupervisorConfig) *proposer {
	return &proposer{cfg: cfg}
}

func (p *proposer) propose(analysis Analysis, snap gates.Set, env gates.Envelope, learnCfg learning.Config, baseRate float64) []optimize.Candidate {
	var out []optimize.Candidate

	for _, flag := range analysis.Flags {
		params, ok := snap.Get(flag.Gate)
		if !ok {
			continue
		}
		for _, dir := range []float64{-1, 1} {
			proposed := params.ConstrictionRatio + dir*p.cfg.RatioStep
			if proposed < env.RatioMin || proposed > env.RatioMax {
				continue
			}
			out = append(out, optimize.Candidate{
				ID:                  core.CandidateID(core.NewID()),
				Target:              optimize.TargetConstrictionRatio,
				Gate:                flag.Gate,
				CurrentValue:        params.ConstrictionRatio,
				ProposedValue:       proposed,
				ExpectedImprovement: expectedImprovement(flag.Delta),
				ConfidenceScore:     flag.Confidence,
				RiskScore:           ratioRisk(flag.Gate, p.cfg.RatioStep),
				ComplexityScore:     2,
				Rationale:           fmt.Sprintf("%s: %s", flag.Gate, flag.Reason),
				CreatedAt:           core.Now(),
			})
		}
	}

	if analysis.RateFlagged {
		for _, dir := range []float64{-1, 1} {
			proposed := baseRate + dir*p.cfg.RateStep
			if proposed < learnCfg.MinRate || proposed > learnCfg.MaxRate {
				continue
			}
			out = append(out, optimize.Candidate{
				ID:                  core.CandidateID(core.NewID()),
				Target:              optimize.TargetBaseRate,
				CurrentValue:        baseRate,
				ProposedValue:       proposed,
				ExpectedImprovement: expectedImprovement(math.Abs(analysis.QualitySlope) * 100),
				ConfidenceScore:     analysis.RateConfidence,
				RiskScore:           3,
				ComplexityScore:     3,
				Rationale:           "quality trend declining with low decision confidence",
				CreatedAt:           core.Now(),
			})
		}
	}

	// Highest priority deploys first
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() > out[j].Priority()
	})
	return out
}

// expectedImprovement scales the observed decline into a recovery estimate,
// capped so one noisy window cannot promise the moon
func expectedImprovement(delta float64) float64 {
	improvement := 5 + 40*math.Abs(delta)
	if improvement > 30 {
		improvement = 30
	}
	return improvement
}

// ratioRisk makes the core gate costlier to touch: it is the maximal
// enhancement stage and misturning it hurts the most
func ratioRisk(gate core.GateName, step float64) float64 {
	risk := 2.0
	if gate == gates.GateCore {
		risk = 3.0
	}
	return risk + 10*step
}
