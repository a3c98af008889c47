package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Fatal, session-terminating errors
	ErrChannelMismatch = errors.New("sample channel count mismatch")
	ErrSessionClosed   = errors.New("session already closed")

	// Degraded, non-fatal conditions surfaced as errors at package edges
	ErrGateUnstable  = errors.New("gate filter numerically unstable")
	ErrFrameDegraded = errors.New("frame degraded beyond gap threshold")

	// Supervisor errors
	ErrEnvelope           = errors.New("parameter outside bounded envelope")
	ErrCandidateRejected  = errors.New("candidate rejected at validation")
	ErrDeploymentNotFound = errors.New("deployment record not found")
)

// NewChannelMismatchError reports a fatal channel-count disagreement.
// The mismatch is unrecoverable: channel semantics cannot be reconciled
// mid-session, so the error carries both counts for the session owner.
func NewChannelMismatchError(expected, got int) error {
	return fmt.Errorf("%w: expected %d channels, got %d", ErrChannelMismatch, expected, got)
}

// NewEnvelopeError reports a parameter value outside its deploy-time bounds.
func NewEnvelopeError(field string, value, lo, hi float64) error {
	return fmt.Errorf("%w: %s=%.4f not in [%.2f, %.2f]", ErrEnvelope, field, value, lo, hi)
}

// Error checking helpers
func IsFatal(err error) bool {
	return errors.Is(err, ErrChannelMismatch)
}

func IsDegraded(err error) bool {
	return errors.Is(err, ErrGateUnstable) || errors.Is(err, ErrFrameDegraded)
}
