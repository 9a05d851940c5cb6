// File: pipeline/stats.go
// Author: momentics <momentics@gmail.com>
//
// Per-worker counters, one cache line each, written by the owning
// worker and loaded atomically by diagnostics from any goroutine.

package pipeline

import (
	"sync/atomic"

	"github.com/momentics/hyperpipe/api"
)

// WorkerLocal is one worker's counters, padded to a cache line. The id
// is fixed before the worker starts; the counters are atomics so
// concurrent snapshots read clean values.
type WorkerLocal struct {
	WorkerID        uint32
	ProcessedCount  atomic.Uint32
	TotalBytes      atomic.Uint64
	LastTimestampNs atomic.Uint64
	_               [40]byte
}

// newWorkerLocals allocates the counter array as a single contiguous
// block so neighbouring workers land on distinct cache lines.
func newWorkerLocals(n int) []WorkerLocal {
	locals := make([]WorkerLocal, n)
	for i := range locals {
		locals[i].WorkerID = uint32(i)
	}
	return locals
}

// Stats copies every worker's counters.
func (p *Pool) Stats() []api.WorkerStats {
	out := make([]api.WorkerStats, len(p.locals))
	for i := range p.locals {
		l := &p.locals[i]
		out[i] = api.WorkerStats{
			WorkerID:        l.WorkerID,
			ProcessedCount:  uint64(l.ProcessedCount.Load()),
			TotalBytes:      l.TotalBytes.Load(),
			LastTimestampNs: l.LastTimestampNs.Load(),
		}
	}
	return out
}
