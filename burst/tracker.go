// File: burst/tracker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EWMA burst-intensity tracking over fixed 10 ms windows. One producer
// updates the tracker per received packet; any number of pollers read
// the derived level and the window counters. Every field shared across
// goroutines is an atomic; only the producer writes them, so loads are
// clean without a consistent multi-field cut.

package burst

import (
	"math"
	"sync/atomic"

	"github.com/momentics/hyperpipe/api"
)

const (
	// WindowNs is the accounting window length.
	WindowNs = 10_000_000 // 10 ms

	// Alpha is the EWMA smoothing factor.
	Alpha = 0.1
)

// Rate thresholds in bytes/sec, strict greater-than.
const (
	thresholdExtreme = 100e6
	thresholdHigh    = 50e6
	thresholdMedium  = 10e6
	thresholdLow     = 1e6
)

// Tracker occupies one cache line. Layout mirrors the packed record the
// pipeline has always used: smoothing factor, estimate, window packet
// and byte counters, window start, level, reserved padding.
type Tracker struct {
	alpha       float64
	ewma        atomic.Uint64 // float64 bits
	packets     atomic.Uint64
	bytes       atomic.Uint64
	windowStart atomic.Uint64
	level       atomic.Int32
	_           [20]byte // pad to 64 bytes
}

// NewTracker initializes a tracker with an explicit window-start
// timestamp. The first window's elapsed time is measured from this
// instant, not from the first packet.
func NewTracker(startNs uint64) *Tracker {
	t := &Tracker{alpha: Alpha}
	t.windowStart.Store(startNs)
	t.ewma.Store(math.Float64bits(0))
	t.level.Store(int32(api.BurstNone))
	return t
}

// NewTrackerNow initializes a tracker starting at the current monotonic
// instant.
func NewTrackerNow() *Tracker {
	return NewTracker(api.NowNanos())
}

// Update records one packet arrival of the given size. Must be called
// from a single producer. Window accounting resets atomically together
// when a window closes; the estimate and level are recomputed only at
// a window boundary, never mid-window.
func (t *Tracker) Update(bytes uint64, timestampNs uint64) {
	start := t.windowStart.Load()
	// Unsigned subtraction: an out-of-order timestamp wraps and closes
	// the window with a near-zero instant rate. Deliberately unguarded.
	if timestampNs-start > WindowNs {
		elapsed := float64(timestampNs-start) / 1e9
		instant := float64(t.bytes.Load()) / elapsed

		ewma := t.alpha*instant + (1-t.alpha)*t.Rate()
		t.ewma.Store(math.Float64bits(ewma))
		t.level.Store(int32(levelFor(ewma)))

		t.packets.Store(0)
		t.bytes.Store(0)
		t.windowStart.Store(timestampNs)
	}

	t.packets.Add(1)
	t.bytes.Add(bytes)
}

// Level returns the cached burst level. Pure read, no computation.
func (t *Tracker) Level() api.BurstLevel {
	return api.BurstLevel(t.level.Load())
}

// Hint overrides the cached level until the next window closes.
// Used by the external pacing path to push a level hint back in.
func (t *Tracker) Hint(level api.BurstLevel) {
	t.level.Store(int32(level))
}

// Rate returns the current EWMA rate estimate in bytes/sec.
func (t *Tracker) Rate() float64 {
	return math.Float64frombits(t.ewma.Load())
}

// WindowStart returns the start timestamp of the current window.
func (t *Tracker) WindowStart() uint64 {
	return t.windowStart.Load()
}

// Snapshot copies the window counters for diagnostics. Each field is a
// clean load; the triple is not a consistent cut across a concurrent
// window close.
func (t *Tracker) Snapshot() (packets, bytes, windowStartNs uint64) {
	return t.packets.Load(), t.bytes.Load(), t.windowStart.Load()
}

// levelFor maps an EWMA estimate to a discrete level. Thresholds are
// strict: a rate exactly at a threshold maps to the level below it.
func levelFor(rate float64) api.BurstLevel {
	switch {
	case rate > thresholdExtreme:
		return api.BurstExtreme
	case rate > thresholdHigh:
		return api.BurstHigh
	case rate > thresholdMedium:
		return api.BurstMedium
	case rate > thresholdLow:
		return api.BurstLow
	default:
		return api.BurstNone
	}
}
