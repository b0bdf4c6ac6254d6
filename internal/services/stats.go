package services

import "sync/atomic"

// Stats counts scheduling outcomes. Retry exhaustion and abandonment
// indicate systemic problems and are surfaced on the health endpoint.
type Stats struct {
	dispatched       atomic.Int64
	triggered        atomic.Int64
	failed           atomic.Int64
	conflicts        atomic.Int64
	retriesExhausted atomic.Int64
	dropped          atomic.Int64
	recovered        atomic.Int64
	abandoned        atomic.Int64
	retained         atomic.Int64
}

func NewStats() *Stats {
	return &Stats{}
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Dispatched       int64 `json:"dispatched"`
	Triggered        int64 `json:"triggered"`
	Failed           int64 `json:"failed"`
	Conflicts        int64 `json:"conflicts"`
	RetriesExhausted int64 `json:"retries_exhausted"`
	Dropped          int64 `json:"dropped"`
	Recovered        int64 `json:"recovered"`
	Abandoned        int64 `json:"abandoned"`
	Retained         int64 `json:"retained"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	return StatsSnapshot{
		Dispatched:       s.dispatched.Load(),
		Triggered:        s.triggered.Load(),
		Failed:           s.failed.Load(),
		Conflicts:        s.conflicts.Load(),
		RetriesExhausted: s.retriesExhausted.Load(),
		Dropped:          s.dropped.Load(),
		Recovered:        s.recovered.Load(),
		Abandoned:        s.abandoned.Load(),
		Retained:         s.retained.Load(),
	}
}
