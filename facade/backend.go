// File: facade/backend.go
// Unified facade layer for the hyperpipe pipeline.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Backend aggregates the slot ring, worker pool, burst tracker and
// capability probe behind the narrow call boundary the surrounding
// application uses. Handles crossing this boundary are opaque integers;
// zero is the failure sentinel for submissions and -1 for waits, per
// the error taxonomy: unavailable resources and timeouts are sentinel
// returns, capability absence is a cleared flag, nothing aborts.

package facade

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hyperpipe/api"
	"github.com/momentics/hyperpipe/burst"
	"github.com/momentics/hyperpipe/control"
	"github.com/momentics/hyperpipe/cpucap"
	"github.com/momentics/hyperpipe/pipeline"
	"github.com/momentics/hyperpipe/slotring"
)

type jobEntry struct {
	job  *pipeline.Job
	slot api.SlotHandle
}

// Backend is the main facade type. Construct with New; there is no
// global instance.
type Backend struct {
	ring    *slotring.Ring
	pool    *pipeline.Pool
	tracker atomic.Pointer[burst.Tracker]
	probe   *cpucap.Probe
	metrics *control.MetricsRegistry

	mu       sync.Mutex
	cfg      api.Config
	slots    map[api.SlotHandle]*slotring.Slot
	jobs     map[api.JobHandle]jobEntry
	nextSlot atomic.Uint64
	nextJob  atomic.Uint64
}

// New constructs a backend with the given configuration. Extra pool
// options (transform override, pin control, wait policy) pass through.
func New(cfg *api.Config, opts ...pipeline.Option) (*Backend, error) {
	if cfg == nil {
		cfg = api.DefaultConfig()
	}
	ring, err := slotring.New(cfg.RingSize)
	if err != nil {
		return nil, err
	}
	poolOpts := append([]pipeline.Option{
		pipeline.WithWorkers(cfg.WorkerCount),
		pipeline.WithQueueDepth(cfg.QueueDepth),
	}, opts...)
	pool, err := pipeline.New(poolOpts...)
	if err != nil {
		return nil, err
	}
	b := &Backend{
		ring:    ring,
		pool:    pool,
		probe:   cpucap.NewProbe(),
		metrics: control.NewMetricsRegistry(),
		cfg:     *cfg,
		slots:   make(map[api.SlotHandle]*slotring.Slot),
		jobs:    make(map[api.JobHandle]jobEntry),
	}
	b.tracker.Store(burst.NewTrackerNow())
	return b, nil
}

// Configure stores batch/chunk/flag hints for submitters to read back.
func (b *Backend) Configure(batchSize, chunkSize, flags int) {
	b.mu.Lock()
	b.cfg.BatchSize = batchSize
	b.cfg.ChunkSize = chunkSize
	b.cfg.Flags = flags
	b.mu.Unlock()
}

// Config returns the current configuration hints.
func (b *Backend) Config() api.Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// --- slot ring ---

// RingWrite publishes a packet descriptor and returns its opaque slot
// handle, or 0 when the ring is full or the payload empty.
func (b *Backend) RingWrite(payload []byte, timestampNs uint64, flags, queue uint16) api.SlotHandle {
	slot, ok := b.ring.Publish(payload, timestampNs, flags, queue)
	if !ok {
		return 0
	}
	h := api.SlotHandle(b.nextSlot.Add(1))
	b.mu.Lock()
	b.slots[h] = slot
	b.mu.Unlock()
	return h
}

// RingRead claims the oldest unclaimed slot for a consumer, returning
// its handle or 0 when the ring is empty.
func (b *Backend) RingRead() api.SlotHandle {
	slot, ok := b.ring.Claim()
	if !ok {
		return 0
	}
	h := api.SlotHandle(b.nextSlot.Add(1))
	b.mu.Lock()
	b.slots[h] = slot
	b.mu.Unlock()
	return h
}

// PacketPayload returns the payload referenced by a slot handle, nil
// for an unknown handle.
func (b *Backend) PacketPayload(h api.SlotHandle) []byte {
	b.mu.Lock()
	slot := b.slots[h]
	b.mu.Unlock()
	return slot.Payload()
}

// PacketMeta returns the metadata for a slot handle.
func (b *Backend) PacketMeta(h api.SlotHandle) (api.PacketMeta, bool) {
	b.mu.Lock()
	slot, ok := b.slots[h]
	b.mu.Unlock()
	if !ok {
		return api.PacketMeta{}, false
	}
	return slot.Meta, true
}

// ReleaseSlot drops a slot handle that will not be submitted and
// returns the ring position to the producer. A submitted slot belongs
// to its job and is released when the job is freed.
func (b *Backend) ReleaseSlot(h api.SlotHandle) bool {
	b.mu.Lock()
	slot, ok := b.slots[h]
	delete(b.slots, h)
	b.mu.Unlock()
	if !ok {
		return false
	}
	slot.Release()
	return true
}

// --- crypto jobs ---

// SubmitCrypto queues a transform over the slot's payload, returning
// the job handle or 0 when the pool is not running, the slot is absent
// or empty, or the queue is full. On failure no job is left queued.
func (b *Backend) SubmitCrypto(slotH api.SlotHandle, outputLen int) api.JobHandle {
	b.mu.Lock()
	slot := b.slots[slotH]
	b.mu.Unlock()
	if slot == nil {
		return 0
	}
	job, err := b.pool.Submit(slot, outputLen)
	if err != nil {
		return 0
	}
	h := api.JobHandle(b.nextJob.Add(1))
	b.mu.Lock()
	b.jobs[h] = jobEntry{job: job, slot: slotH}
	b.mu.Unlock()
	return h
}

// WaitCrypto waits up to timeoutMs milliseconds for the job to
// complete. Returns the output length, or -1 on timeout, abort or an
// unknown handle. A timeout does not release the job; call again or
// free it. timeoutMs <= 0 waits indefinitely.
func (b *Backend) WaitCrypto(h api.JobHandle, timeoutMs int64) int {
	b.mu.Lock()
	entry, ok := b.jobs[h]
	b.mu.Unlock()
	if !ok {
		return -1
	}
	n, err := b.pool.Wait(entry.job, msToDuration(timeoutMs))
	if err != nil {
		return -1
	}
	return n
}

// CryptoOutput returns the completed job's output bytes, nil when the
// job is pending, failed, released or unknown.
func (b *Backend) CryptoOutput(h api.JobHandle) []byte {
	b.mu.Lock()
	entry, ok := b.jobs[h]
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return entry.job.Output()
}

// FreeCryptoJob releases the job and retires both its handle and the
// originating slot handle. Returns false for an unknown (already
// freed) handle, making a double free detectable at the boundary.
func (b *Backend) FreeCryptoJob(h api.JobHandle) bool {
	b.mu.Lock()
	entry, ok := b.jobs[h]
	if ok {
		delete(b.jobs, h)
		delete(b.slots, entry.slot)
	}
	b.mu.Unlock()
	if !ok {
		return false
	}
	if err := entry.job.Release(); err != nil {
		// Pending job: abandonment guarantees eventual release.
		b.pool.Abandon(entry.job)
	}
	return true
}

// --- burst tracking ---

// InitBurst re-initializes the tracker with the given window start.
func (b *Backend) InitBurst(startNs uint64) {
	b.tracker.Store(burst.NewTracker(startNs))
}

// UpdateBurst records one packet arrival.
func (b *Backend) UpdateBurst(bytes, timestampNs uint64) {
	b.tracker.Load().Update(bytes, timestampNs)
}

// SubmitBurstHint pushes an externally computed level hint.
func (b *Backend) SubmitBurstHint(level int32) {
	if level < int32(api.BurstNone) || level > int32(api.BurstExtreme) {
		return
	}
	b.tracker.Load().Hint(api.BurstLevel(level))
}

// BurstLevel returns the current discrete level.
func (b *Backend) BurstLevel() int32 {
	return int32(b.tracker.Load().Level())
}

// --- capabilities ---

// CpuCaps returns the capability bitset.
func (b *Backend) CpuCaps() uint32 {
	return uint32(b.probe.Detect())
}

// HasVector reports whether a vector unit is present.
func (b *Backend) HasVector() bool {
	return b.probe.Detect().HasVector()
}

// HasAES reports whether hardware AES is present.
func (b *Backend) HasAES() bool {
	return b.probe.Detect().HasAES()
}

// --- diagnostics & lifecycle ---

// Metrics returns the registry; PublishMetrics refreshes it.
func (b *Backend) Metrics() *control.MetricsRegistry {
	return b.metrics
}

// PublishMetrics snapshots pool and tracker state into the registry.
func (b *Backend) PublishMetrics() {
	control.PublishPoolStats(b.metrics, b.pool)
	control.PublishBurst(b.metrics, b.tracker.Load())
}

// Pool exposes the owned worker pool for in-process callers that want
// the richer error-returning API instead of sentinels.
func (b *Backend) Pool() *pipeline.Pool {
	return b.pool
}

// Close shuts the pool down, joins its workers and drops all handles.
func (b *Backend) Close() {
	b.pool.Close()
	b.mu.Lock()
	b.slots = make(map[api.SlotHandle]*slotring.Slot)
	b.jobs = make(map[api.JobHandle]jobEntry)
	b.mu.Unlock()
}

func msToDuration(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
