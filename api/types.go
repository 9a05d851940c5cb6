// File: api/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared value types crossing package boundaries: burst levels, packet
// metadata, worker counters, pipeline configuration and opaque handles.

package api

// BurstLevel is the discrete traffic-intensity classification derived
// from the EWMA rate estimate. Levels order from idle to saturated.
type BurstLevel int32

const (
	BurstNone BurstLevel = iota
	BurstLow
	BurstMedium
	BurstHigh
	BurstExtreme
)

// String returns a human-readable level name.
func (l BurstLevel) String() string {
	switch l {
	case BurstNone:
		return "none"
	case BurstLow:
		return "low"
	case BurstMedium:
		return "medium"
	case BurstHigh:
		return "high"
	case BurstExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}

// PacketMeta describes one packet held in a slot. Field ordering is
// stable and padding-free for predictable layout on hot paths.
type PacketMeta struct {
	TimestampNs uint64 // capture timestamp, monotonic nanoseconds
	Length      uint32 // payload length in bytes
	Flags       uint16 // packet flags (crypto, priority, etc.)
	Queue       uint16 // queue identifier
}

// WorkerStats is a read-side copy of one worker's local counters.
// The live counters are atomics written by the owning worker; each
// field in a copy is a clean load, though the copy as a whole is not
// a consistent cut across fields.
type WorkerStats struct {
	WorkerID        uint32
	ProcessedCount  uint64
	TotalBytes      uint64
	LastTimestampNs uint64
}

// Config holds pipeline parameters immutable per run.
type Config struct {
	BatchSize   int // packets per submit batch hint
	ChunkSize   int // crypto chunk size hint
	Flags       int // feature flags
	WorkerCount int // number of crypto workers, 0 = 2x logical CPUs
	RingSize    int // slot ring capacity, rounded up to power of two
	QueueDepth  int // bound on queued-but-unclaimed jobs
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:  24,
		ChunkSize:  4096,
		RingSize:   1024,
		QueueDepth: 4096,
	}
}

// Opaque handles crossing the external call boundary. The zero value
// is the failure sentinel; callers never dereference handles.
type (
	SlotHandle uint64
	JobHandle  uint64
)
