// File: api/clock.go
// Author: momentics <momentics@gmail.com>
//
// Process-local monotonic clock. Timestamps in this subsystem are
// nanoseconds since process start, never wall time, so window math in
// the burst tracker and wait deadlines survive clock adjustments.

package api

import "time"

var epoch = time.Now()

// NowNanos returns monotonic nanoseconds since process start.
func NowNanos() uint64 {
	return uint64(time.Since(epoch))
}
