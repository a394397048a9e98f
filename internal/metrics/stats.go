package metrics

import (
	"sort"
	"sync"
	"time"
)

// windowSize bounds the latency sample window so percentile math stays
// cheap and recent.
const windowSize = 1000

// EndpointStats holds per-endpoint request counts.
type EndpointStats struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
}

// Snapshot is a point-in-time view of service statistics.
type Snapshot struct {
	TotalRequests   int64                    `json:"total_requests"`
	SuccessRequests int64                    `json:"success_requests"`
	FailedRequests  int64                    `json:"failed_requests"`
	AvgLatencyMs    float64                  `json:"avg_latency_ms"`
	MinLatencyMs    float64                  `json:"min_latency_ms"`
	MaxLatencyMs    float64                  `json:"max_latency_ms"`
	P95LatencyMs    float64                  `json:"p95_latency_ms"`
	UptimeSeconds   float64                  `json:"uptime_seconds"`
	Endpoints       map[string]EndpointStats `json:"endpoints"`
}

// Stats accumulates request counters and a rolling latency window.
// All methods are safe for concurrent use.
type Stats struct {
	mu        sync.Mutex
	startedAt time.Time

	total     int64
	success   int64
	failed    int64
	latencies []float64
	endpoints map[string]EndpointStats
}

// NewStats creates a Stats anchored at the current time.
func NewStats() *Stats {
	return &Stats{
		startedAt: time.Now(),
		endpoints: make(map[string]EndpointStats),
	}
}

// Record registers one completed request. Statuses below 500 count as
// successes; client errors are requests the service handled correctly.
func (s *Stats) Record(endpoint string, status int, latencyMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	ep := s.endpoints[endpoint]
	ep.Total++
	if status < 500 {
		s.success++
		ep.Success++
	} else {
		s.failed++
		ep.Failed++
	}
	s.endpoints[endpoint] = ep

	s.latencies = append(s.latencies, latencyMs)
	if len(s.latencies) > windowSize {
		s.latencies = s.latencies[len(s.latencies)-windowSize:]
	}
}

// UptimeSeconds returns the seconds elapsed since the Stats was created.
func (s *Stats) UptimeSeconds() float64 {
	return time.Since(s.startedAt).Seconds()
}

// Snapshot returns a copy of the current statistics.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TotalRequests:   s.total,
		SuccessRequests: s.success,
		FailedRequests:  s.failed,
		UptimeSeconds:   time.Since(s.startedAt).Seconds(),
		Endpoints:       make(map[string]EndpointStats, len(s.endpoints)),
	}
	for k, v := range s.endpoints {
		snap.Endpoints[k] = v
	}

	if len(s.latencies) == 0 {
		return snap
	}

	sorted := make([]float64, len(s.latencies))
	copy(sorted, s.latencies)
	sort.Float64s(sorted)

	var sum float64
	for _, l := range sorted {
		sum += l
	}
	snap.AvgLatencyMs = sum / float64(len(sorted))
	snap.MinLatencyMs = sorted[0]
	snap.MaxLatencyMs = sorted[len(sorted)-1]

	idx := int(float64(len(sorted))*0.95) - 1
	if idx < 0 {
		idx = 0
	}
	snap.P95LatencyMs = sorted[idx]
	return snap
}
