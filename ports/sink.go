package ports

import (
	"context"

	"venturi/domain/decision"
)

// DecisionSink receives the per-frame Decision records. The host owns what
// happens next (dashboard, storage, alerting); the pipeline only publishes.
type DecisionSink interface {
	Publish(ctx context.Context, d decision.Decision) error
}
