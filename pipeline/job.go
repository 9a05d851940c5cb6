// File: pipeline/job.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Job lifecycle: Created -> Queued -> InProgress -> Completed ->
// Released, linear, no back-transitions. A job owns its output buffer
// from submit until Release; a timed-out Wait never mutates the job.
// Double release and use-after-release are detected, not undefined.

package pipeline

import (
	"sync/atomic"

	"github.com/momentics/hyperpipe/api"
	"github.com/momentics/hyperpipe/slotring"
)

// JobState is the job lifecycle position.
type JobState int32

const (
	StateCreated JobState = iota
	StateQueued
	StateInProgress
	StateCompleted
	StateReleased
	StateCanceled
)

// String returns a human-readable state name.
func (s JobState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateQueued:
		return "queued"
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	case StateReleased:
		return "released"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Job is one outstanding unit of work: a slot reference, an output
// buffer and a completion flag.
type Job struct {
	slot      *slotring.Slot
	out       []byte
	outLen    int
	state     atomic.Int32
	done      atomic.Bool
	aborted   bool // set before done when the pool shut down under the job
	failed    bool // set before done when the transform errored
	abandoned atomic.Bool
}

// State returns the current lifecycle state.
func (j *Job) State() JobState {
	return JobState(j.state.Load())
}

// Done reports whether the completion flag is set.
func (j *Job) Done() bool {
	return j.done.Load()
}

// Output returns the transformed bytes of a completed job, or nil if
// the job is pending, failed, or already released.
func (j *Job) Output() []byte {
	if !j.done.Load() || j.State() != StateCompleted {
		return nil
	}
	if j.aborted || j.failed {
		return nil
	}
	return j.out[:j.outLen]
}

// OutputLen returns the output length of a completed job, -1 otherwise.
func (j *Job) OutputLen() int {
	if !j.done.Load() || j.aborted || j.failed {
		return -1
	}
	return j.outLen
}

// Release frees the output buffer and retires the job exactly once.
// Releasing a pending job returns ErrJobPending (abandon it instead);
// releasing twice returns ErrJobReleased.
func (j *Job) Release() error {
	for {
		switch s := JobState(j.state.Load()); s {
		case StateCompleted, StateCanceled:
			if j.state.CompareAndSwap(int32(s), int32(StateReleased)) {
				j.free()
				return nil
			}
		case StateReleased:
			return api.ErrJobReleased
		default:
			return api.ErrJobPending
		}
	}
}

// free returns the borrowed ring slot to its producer and drops the
// buffer references so the GC can reclaim them.
func (j *Job) free() {
	j.slot.Release()
	j.out = nil
	j.slot = nil
}

// complete publishes the result. Ordinary writes precede the atomic
// done store, so any goroutine observing done also observes outLen.
func (j *Job) complete(n int, failed bool) {
	j.outLen = n
	j.failed = failed
	j.state.Store(int32(StateCompleted))
	j.done.Store(true)
}
