// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for the packet pipeline. Exposes counters
// in a thread-safe map with dynamic registration; persistence of the
// snapshot is the caller's concern, not this subsystem's.

package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/momentics/hyperpipe/api"
	"github.com/momentics/hyperpipe/burst"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// PoolStatsSource is any component exposing per-worker counters.
type PoolStatsSource interface {
	Stats() []api.WorkerStats
	Workers() int
	TransformName() string
}

// PublishPoolStats copies a pool's worker counters into the registry.
func PublishPoolStats(mr *MetricsRegistry, src PoolStatsSource) {
	var processed, bytes uint64
	for _, ws := range src.Stats() {
		processed += ws.ProcessedCount
		bytes += ws.TotalBytes
		prefix := fmt.Sprintf("pipeline.worker.%d.", ws.WorkerID)
		mr.Set(prefix+"processed", ws.ProcessedCount)
		mr.Set(prefix+"bytes", ws.TotalBytes)
		mr.Set(prefix+"last_ts_ns", ws.LastTimestampNs)
	}
	mr.Set("pipeline.workers", src.Workers())
	mr.Set("pipeline.transform", src.TransformName())
	mr.Set("pipeline.processed_total", processed)
	mr.Set("pipeline.bytes_total", bytes)
}

// PublishBurst copies the tracker's estimate and level into the registry.
func PublishBurst(mr *MetricsRegistry, tr *burst.Tracker) {
	packets, bytes, windowStart := tr.Snapshot()
	mr.Set("burst.rate_bps", tr.Rate())
	mr.Set("burst.level", tr.Level().String())
	mr.Set("burst.window.packets", packets)
	mr.Set("burst.window.bytes", bytes)
	mr.Set("burst.window.start_ns", windowStart)
}
