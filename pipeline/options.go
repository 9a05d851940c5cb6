// File: pipeline/options.go
// Package pipeline defines functional options for the worker pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

// WaitPolicy selects how Wait burns time between completion checks.
type WaitPolicy int

const (
	// WaitYield checks the flag and yields the processor each
	// iteration. Default.
	WaitYield WaitPolicy = iota
	// WaitSpin busy-polls without yielding, for low-latency targets.
	WaitSpin
)

// Option customizes pool initialization.
type Option func(*Pool)

// WithWorkers sets the worker count. Values <= 0 keep the default of
// twice the logical CPU count.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueDepth bounds the number of queued-but-unclaimed jobs.
func WithQueueDepth(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueDepth = n
		}
	}
}

// WithWaitPolicy sets the spin-vs-yield policy used by Wait.
func WithWaitPolicy(policy WaitPolicy) Option {
	return func(p *Pool) {
		p.waitPolicy = policy
	}
}

// WithTransform overrides the capability-gated transform selection.
func WithTransform(t Transform) Option {
	return func(p *Pool) {
		p.transform = t
	}
}

// WithKey supplies the AEAD key for the accelerated path. Without it a
// process-random demo key is used; neither is production key material.
func WithKey(key []byte) Option {
	return func(p *Pool) {
		p.key = key
	}
}

// WithPreferredCPUs overrides the topology-derived pin order.
func WithPreferredCPUs(cpus []int) Option {
	return func(p *Pool) {
		p.preferred = cpus
	}
}

// WithoutPinning disables worker thread pinning entirely.
func WithoutPinning() Option {
	return func(p *Pool) {
		p.pin = false
	}
}
