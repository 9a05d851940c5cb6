// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across the hyperpipe packet pipeline.
// Every failure in this subsystem is local and recoverable: callers
// retry, fall back, or abandon the job. Nothing here is fatal.

package api

import "fmt"

// Common errors used across the pipeline.
var (
	ErrPoolClosed   = fmt.Errorf("worker pool is not running")
	ErrEmptySlot    = fmt.Errorf("slot is absent or empty")
	ErrQueueFull    = fmt.Errorf("job queue is full")
	ErrRingFull     = fmt.Errorf("slot ring is full")
	ErrTimeout      = fmt.Errorf("wait deadline exceeded")
	ErrJobReleased  = fmt.Errorf("job already released")
	ErrJobPending   = fmt.Errorf("job not completed yet")
	ErrJobAborted   = fmt.Errorf("job aborted by pool shutdown")
	ErrShortBuffer  = fmt.Errorf("output buffer too small")
	ErrTransform    = fmt.Errorf("transform failed")
	ErrNotSupported = fmt.Errorf("operation not supported")
	ErrInvalidArg   = fmt.Errorf("invalid argument")
)
