package gates

import (
	"venturi/domain/core"
)

// Envelope bounds every deployable gate parameter. The ratio bounds cap each
// gate's constriction, and MaxAmplification caps the product of the three
// velocity factors so the cascade can never accumulate unbounded gain.
type Envelope struct {
	RatioMin         float64 `json:"ratio_min"`
	RatioMax         float64 `json:"ratio_max"`
	MaxAmplification float64 `json:"max_amplification"`
}

// DefaultEnvelope returns the stock bounds: r in [0.3, 0.95], combined
// velocity product capped just above the 1/0.3^3 worst case.
func DefaultEnvelope() Envelope {
	return Envelope{RatioMin: 0.3, RatioMax: 0.95, MaxAmplification: 40}
}

// CheckRatio validates a single constriction ratio against the envelope
func (e Envelope) CheckRatio(name core.GateName, r float64) error {
	if r < e.RatioMin || r > e.RatioMax {
		return core.NewEnvelopeError(name.String()+".constriction_ratio", r, e.RatioMin, e.RatioMax)
	}
	return nil
}

// CheckSet validates all gate ratios and the combined amplification product
func (e Envelope) CheckSet(s Set) error {
	product := 1.0
	for _, p := range s.All() {
		if err := e.CheckRatio(p.Name, p.ConstrictionRatio); err != nil {
			return err
		}
		product *= p.VelocityFactor()
	}
	if product > e.MaxAmplification {
		return core.NewEnvelopeError("cascade.amplification", product, 0, e.MaxAmplification)
	}
	return nil
}
