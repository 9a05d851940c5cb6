// File: pipeline/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed pool of pinned worker threads running the per-packet transform.
// The pool is an explicitly constructed, explicitly owned instance: no
// global singleton, no lazy call-once init. Workers block only on the
// job queue's condition variable and never on each other; jobs complete
// in no particular order relative to submission.

package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hyperpipe/affinity"
	"github.com/momentics/hyperpipe/api"
	"github.com/momentics/hyperpipe/cpucap"
	"github.com/momentics/hyperpipe/slotring"
)

const defaultQueueDepth = 4096

// Pool dispatches crypto jobs across pinned OS-thread workers.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond
	jobs *queue.Queue // FIFO of *Job, guarded by mu

	running atomic.Bool
	wg      sync.WaitGroup

	workers    int
	queueDepth int
	waitPolicy WaitPolicy
	transform  Transform
	key        []byte
	preferred  []int
	pin        bool

	locals []WorkerLocal
}

// New constructs and starts a pool. Worker count defaults to twice the
// logical CPU count; workers pin themselves round-robin across the
// topology-preferred CPUs, or run unpinned when topology is unknown.
func New(opts ...Option) (*Pool, error) {
	p := &Pool{
		jobs:       queue.New(),
		workers:    2 * runtime.NumCPU(),
		queueDepth: defaultQueueDepth,
		waitPolicy: WaitYield,
		pin:        true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cond = sync.NewCond(&p.mu)
	if p.transform == nil {
		t, err := selectTransform(cpucap.Detect(), p.key)
		if err != nil {
			return nil, err
		}
		p.transform = t
	}
	if p.pin && p.preferred == nil {
		p.preferred = affinity.PreferredCPUs()
	}
	p.locals = newWorkerLocals(p.workers)

	p.running.Store(true)
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker(i)
	}
	return p, nil
}

// Submit creates a job for a published slot and queues it. The output
// buffer is allocated once, sized at least to the transform's output
// for the slot payload. On any failure no job is left queued.
func (p *Pool) Submit(slot *slotring.Slot, outputCap int) (*Job, error) {
	if !p.running.Load() {
		return nil, api.ErrPoolClosed
	}
	if slot == nil || slot.Len() == 0 {
		return nil, api.ErrEmptySlot
	}
	if need := p.transform.OutputSize(slot.Len()); outputCap < need {
		outputCap = need
	}
	job := &Job{
		slot: slot,
		out:  make([]byte, outputCap),
	}
	job.state.Store(int32(StateQueued))

	p.mu.Lock()
	if !p.running.Load() {
		p.mu.Unlock()
		return nil, api.ErrPoolClosed
	}
	if p.jobs.Length() >= p.queueDepth {
		p.mu.Unlock()
		return nil, api.ErrQueueFull
	}
	p.jobs.Add(job)
	p.mu.Unlock()
	p.cond.Signal()
	return job, nil
}

// Wait blocks until the job's completion flag is set or the deadline
// derived from timeout elapses. timeout <= 0 waits indefinitely. On
// success returns the output length; on timeout returns -1 and
// ErrTimeout without releasing or mutating the job — the caller remains
// responsible for eventually calling Release (or Abandon).
func (p *Pool) Wait(job *Job, timeout time.Duration) (int, error) {
	if job == nil {
		return -1, api.ErrInvalidArg
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for !job.done.Load() {
		if timeout > 0 && !time.Now().Before(deadline) {
			return -1, api.ErrTimeout
		}
		if p.waitPolicy == WaitYield {
			runtime.Gosched()
		}
	}
	switch {
	case job.aborted:
		return -1, api.ErrJobAborted
	case job.failed:
		return -1, api.ErrTransform
	default:
		return job.outLen, nil
	}
}

// Abandon marks a job as no longer awaited and guarantees its eventual
// release whatever state it is in: queued jobs are retired when a
// worker dequeues them, in-progress jobs are released by the completing
// worker, completed jobs are released immediately.
func (p *Pool) Abandon(job *Job) {
	if job == nil {
		return
	}
	job.abandoned.Store(true)
	if job.state.CompareAndSwap(int32(StateQueued), int32(StateCanceled)) {
		return
	}
	if job.state.CompareAndSwap(int32(StateCompleted), int32(StateReleased)) {
		job.free()
	}
}

// Close stops the pool: clears the running flag, fails every queued
// job so waiters unblock, wakes all workers and joins them. In-progress
// transforms finish before their worker exits. Idempotent.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	p.mu.Lock()
	for p.jobs.Length() > 0 {
		job := p.jobs.Remove().(*Job)
		if job.state.CompareAndSwap(int32(StateQueued), int32(StateInProgress)) {
			job.aborted = true
			job.complete(0, true)
			if job.abandoned.Load() {
				_ = job.Release()
			}
		} else if job.state.CompareAndSwap(int32(StateCanceled), int32(StateReleased)) {
			job.free()
		}
	}
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

// Running reports whether the pool accepts submissions.
func (p *Pool) Running() bool {
	return p.running.Load()
}

// Workers returns the worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// TransformName identifies the selected transform path.
func (p *Pool) TransformName() string {
	return p.transform.Name()
}

// QueueLen returns the number of queued, undequeued jobs.
func (p *Pool) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobs.Length()
}

// worker is the per-thread loop: wait for a job or shutdown, dequeue
// one job, transform, publish completion, update local counters.
func (p *Pool) worker(id int) {
	defer p.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if p.pin && len(p.preferred) > 0 {
		// Round-robin over the preferred list; failure means the
		// worker simply runs unpinned.
		_ = affinity.SetAffinity(p.preferred[id%len(p.preferred)])
	}

	local := &p.locals[id]

	for {
		p.mu.Lock()
		for p.jobs.Length() == 0 && p.running.Load() {
			p.cond.Wait()
		}
		if !p.running.Load() {
			p.mu.Unlock()
			return
		}
		job := p.jobs.Remove().(*Job)
		p.mu.Unlock()

		if !job.state.CompareAndSwap(int32(StateQueued), int32(StateInProgress)) {
			// Canceled while queued: retire it here.
			if job.state.CompareAndSwap(int32(StateCanceled), int32(StateReleased)) {
				job.free()
			}
			continue
		}

		payload := job.slot.Payload()
		n, err := p.transform.Apply(job.out, payload)

		local.ProcessedCount.Add(1)
		local.TotalBytes.Add(uint64(len(payload)))
		local.LastTimestampNs.Store(job.slot.Meta.TimestampNs)

		if err != nil {
			job.complete(0, true)
		} else {
			job.complete(n, false)
		}
		if job.abandoned.Load() {
			_ = job.Release()
		}
	}
}
