package supervisor

import (
	"sync"

	"venturi/domain/core"
)

// FrameMetrics is one fast-path observation: frame quality, per-gate
// efficiency, and the decision confidence. Best-effort data for the slow
// path; decisions are not.
type FrameMetrics struct {
	FrameIndex      int
	At              core.Timestamp
	Quality         float64
	Confidence      float64
	Degraded        bool
	LearningRate    float64
	StageEfficiency map[core.GateName]float64
	GateWarnings    []core.GateName
}

// MetricsRing is the bounded buffer between the fast path (producer) and
// the supervisor (consumer). When full, the oldest entry is dropped rather
// than blocking the producer.
type MetricsRing struct {
	mu      sync.Mutex
	buf     []FrameMetrics
	head    int // next write position
	count   int
	dropped uint64
}

// NewMetricsRing creates a ring with the given fixed capacity
func NewMetricsRing(capacity int) *MetricsRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &MetricsRing{buf: make([]FrameMetrics, capacity)}
}

// Push appends a metric, evicting the oldest when full
func (r *MetricsRing) Push(m FrameMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == len(r.buf) {
		r.dropped++
	} else {
		r.count++
	}
	r.buf[r.head] = m
	r.head = (r.head + 1) % len(r.buf)
}

// Snapshot returns the buffered metrics oldest-first
func (r *MetricsRing) Snapshot() []FrameMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FrameMetrics, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// Len returns the number of buffered metrics
func (r *MetricsRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Dropped returns how many metrics were evicted unread
func (r *MetricsRing) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
