package ports

import (
	"context"

	"venturi/domain/signal"
)

// SampleSource supplies the normalized multi-channel sample stream.
// Acquisition, transport, and device-driver concerns live behind this port.
// Next returns io.EOF when the stream ends; any other error is terminal for
// the session.
type SampleSource interface {
	Next(ctx context.Context) (signal.Sample, error)
}
