package stats

import (
	"sync/atomic"
	"time"
)

// Registry holds process-wide request statistics. The counter is a single
// atomic cell, so Increment never blocks and is safe from any number of
// concurrent connection goroutines. The start time is captured once at
// construction and never changes.
type Registry struct {
	totalRequests atomic.Uint64
	startTime     time.Time
}

// Snapshot is a point-in-time view of the registry.
type Snapshot struct {
	TotalRequests     uint64  `json:"total_requests"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// NewRegistry creates a registry with the start instant fixed at now.
func NewRegistry() *Registry {
	return &Registry{
		startTime: time.Now(),
	}
}

// Increment atomically adds one to the request counter.
func (r *Registry) Increment() {
	r.totalRequests.Add(1)
}

// Total returns the current request count.
func (r *Registry) Total() uint64 {
	return r.totalRequests.Load()
}

// StartTime returns the fixed start instant.
func (r *Registry) StartTime() time.Time {
	return r.startTime
}

// Snapshot computes the current statistics. The counter and the clock are
// read independently; the two fields are each as of call time but not
// mutually consistent beyond that.
func (r *Registry) Snapshot() Snapshot {
	total := r.totalRequests.Load()
	uptime := time.Since(r.startTime).Seconds()
	if uptime < 0 {
		uptime = 0
	}

	// Treat sub-second uptime as one second so the rate stays finite.
	divisor := uptime
	if divisor < 1 {
		divisor = 1
	}

	return Snapshot{
		TotalRequests:     total,
		UptimeSeconds:     uptime,
		RequestsPerSecond: float64(total) / divisor,
	}
}
