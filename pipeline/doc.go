// Package pipeline
// Author: momentics <momentics@gmail.com>
//
// Crypto worker pool for the hyperpipe packet pipeline. A fixed set of
// pinned worker threads dequeues jobs referencing published slots, runs
// the capability-gated transform into a job-owned output buffer and
// publishes a completion flag. Jobs move through a linear lifecycle
// (Created, Queued, InProgress, Completed, Released) with detected
// double-release and an explicit abandon path for callers that stop
// waiting. See pool.go, job.go, transform.go for implementation details.
package pipeline
