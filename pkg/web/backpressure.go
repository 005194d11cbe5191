package web

import (
	"sync/atomic"
)

// BackpressureController bounds the number of in-flight requests.
// Normal capacity is set to target utilization (e.g., 67% of max capacity),
// leaving headroom; requests above it are rejected with 503.
type BackpressureController struct {
	normalCapacity int64
	currentLoad    int64
	rejectedCount  int64
}

// NewBackpressureController creates a new backpressure controller
func NewBackpressureController(normalCapacity int) *BackpressureController {
	if normalCapacity < 1 {
		normalCapacity = 1
	}
	return &BackpressureController{normalCapacity: int64(normalCapacity)}
}

// TryAcquire attempts to acquire capacity (fail-fast).
// Returns false if the request should be rejected.
func (bc *BackpressureController) TryAcquire() bool {
	if atomic.AddInt64(&bc.currentLoad, 1) > bc.normalCapacity {
		atomic.AddInt64(&bc.currentLoad, -1)
		atomic.AddInt64(&bc.rejectedCount, 1)
		return false
	}
	return true
}

// Release releases capacity
func (bc *BackpressureController) Release() {
	atomic.AddInt64(&bc.currentLoad, -1)
}

// Saturated reports whether no capacity is left.
func (bc *BackpressureController) Saturated() bool {
	return atomic.LoadInt64(&bc.currentLoad) >= bc.normalCapacity
}

// GetMetrics returns current backpressure metrics
func (bc *BackpressureController) GetMetrics() BackpressureMetrics {
	currentLoad := atomic.LoadInt64(&bc.currentLoad)
	return BackpressureMetrics{
		NormalCapacity: bc.normalCapacity,
		CurrentLoad:    currentLoad,
		RejectedCount:  atomic.LoadInt64(&bc.rejectedCount),
		Utilization:    float64(currentLoad) / float64(bc.normalCapacity) * 100,
	}
}

// BackpressureMetrics provides backpressure statistics
type BackpressureMetrics struct {
	NormalCapacity int64   // Normal capacity (target utilization)
	CurrentLoad    int64   // Current in-flight requests
	RejectedCount  int64   // Total rejected requests
	Utilization    float64 // Percentage of normal capacity in use
}
