// Package history records channel runs in memory and, optionally, in PostgreSQL.
package history

import (
	"context"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/pkg/logger"
)

// Store is a durable run history backend
type Store interface {
	Save(ctx context.Context, rec *contracts.RunRecord) error
	Recent(ctx context.Context, limit int) ([]contracts.RunRecord, error)
}

// Recorder writes every run to the ring and, when configured, to a Store.
// A store failure is logged and never fails the run.
type Recorder struct {
	ring   *Ring
	store  Store
	logger *logger.Logger
}

// NewRecorder creates a recorder; store may be nil
func NewRecorder(ring *Ring, store Store, log *logger.Logger) *Recorder {
	return &Recorder{
		ring:   ring,
		store:  store,
		logger: log.Component("history"),
	}
}

// Record stores one finished run
func (r *Recorder) Record(ctx context.Context, rec *contracts.RunRecord) {
	r.ring.Add(*rec)

	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, rec); err != nil {
		r.logger.WithField("run_id", rec.ID).WithError(err).Warn("Failed to persist run history")
	}
}

// Recent prefers the durable store and falls back to memory, newest first
func (r *Recorder) Recent(ctx context.Context, limit int) []contracts.RunRecord {
	if r.store != nil {
		runs, err := r.store.Recent(ctx, limit)
		if err == nil {
			return runs
		}
		r.logger.WithError(err).Warn("Run history query failed, using memory")
	}

	latest := r.ring.Latest(limit)
	for i, j := 0, len(latest)-1; i < j; i, j = i+1, j-1 {
		latest[i], latest[j] = latest[j], latest[i]
	}
	return latest
}

// Ring exposes the in-memory history
func (r *Recorder) Ring() *Ring {
	return r.ring
}

// Stats returns per-column statistics over the in-memory history
func (r *Recorder) Stats() map[int]ChannelStats {
	return r.ring.Stats()
}

// Failed returns the failed runs still held in memory
func (r *Recorder) Failed() []contracts.RunRecord {
	return r.ring.Failed()
}
