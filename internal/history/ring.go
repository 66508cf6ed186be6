package history

import (
	"sync"
	"time"

	"github.com/wonny/volscan/internal/contracts"
)

// DefaultCapacity is the number of runs kept in memory
const DefaultCapacity = 100

// Ring keeps the most recent channel runs in memory
type Ring struct {
	mu       sync.RWMutex
	records  []contracts.RunRecord
	capacity int
}

// NewRing creates a ring; capacity <= 0 uses DefaultCapacity
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{capacity: capacity}
}

// Add appends a run, dropping the oldest beyond capacity
func (r *Ring) Add(rec contracts.RunRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)
	if len(r.records) > r.capacity {
		r.records = r.records[len(r.records)-r.capacity:]
	}
}

// Latest returns up to n most recent runs, oldest first
func (r *Ring) Latest(n int) []contracts.RunRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > len(r.records) || n <= 0 {
		n = len(r.records)
	}
	out := make([]contracts.RunRecord, n)
	copy(out, r.records[len(r.records)-n:])
	return out
}

// Failed returns all failed runs
func (r *Ring) Failed() []contracts.RunRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	failed := make([]contracts.RunRecord, 0)
	for _, rec := range r.records {
		if !rec.Success() {
			failed = append(failed, rec)
		}
	}
	return failed
}

// ChannelStats summarizes the runs of one channel
type ChannelStats struct {
	Column       int        `json:"column"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastAccepted int        `json:"last_accepted"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}

// Stats returns per-column statistics over the retained runs
func (r *Ring) Stats() map[int]ChannelStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[int]ChannelStats)
	for _, rec := range r.records {
		startedAt := rec.StartedAt
		s := stats[rec.Column]
		s.Column = rec.Column
		s.TotalRuns++
		s.LastRun = &startedAt
		s.LastAccepted = rec.Accepted
		if rec.Success() {
			s.SuccessCount++
			s.LastSuccess = &startedAt
		} else {
			s.FailureCount++
			s.LastFailure = &startedAt
		}
		s.SuccessRate = float64(s.SuccessCount) / float64(s.TotalRuns)
		stats[rec.Column] = s
	}
	return stats
}
