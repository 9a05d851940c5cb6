// File: cpucap/cpucap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One-time hardware capability detection gating the crypto transform
// paths. The underlying query runs exactly once per Probe regardless of
// call count or calling goroutine; absence of a feature is a cleared
// bit, never an error.

package cpucap

import "sync"

// Flags is a bitset of detected CPU features.
type Flags uint32

const (
	CapVector Flags = 1 << iota // vector unit (NEON/ASIMD, SSE2)
	CapAES                      // hardware AES
	CapPMULL                    // polynomial multiply
	CapSHA1                     // SHA-1 extension
	CapSHA2                     // SHA-2 extension
)

// HasVector reports whether a vector unit is present.
func (f Flags) HasVector() bool { return f&CapVector != 0 }

// HasAES reports whether hardware AES is present.
func (f Flags) HasAES() bool { return f&CapAES != 0 }

// HasPMULL reports whether polynomial multiply is present.
func (f Flags) HasPMULL() bool { return f&CapPMULL != 0 }

// HasSHA1 reports whether the SHA-1 extension is present.
func (f Flags) HasSHA1() bool { return f&CapSHA1 != 0 }

// HasSHA2 reports whether the SHA-2 extension is present.
func (f Flags) HasSHA2() bool { return f&CapSHA2 != 0 }

// Probe caches the result of a single hardware query.
type Probe struct {
	once  sync.Once
	flags Flags
	query func() Flags
}

// NewProbe returns a probe backed by the platform query.
func NewProbe() *Probe {
	return &Probe{query: archQuery}
}

// NewProbeFunc returns a probe backed by a caller-supplied query.
// Used by tests to instrument query-once semantics.
func NewProbeFunc(query func() Flags) *Probe {
	return &Probe{query: query}
}

// Detect returns the cached capability flags, running the hardware
// query on first call only. Safe for concurrent use.
func (p *Probe) Detect() Flags {
	p.once.Do(func() {
		p.flags = p.query()
	})
	return p.flags
}

var defaultProbe = NewProbe()

// Detect returns the process-wide cached capability flags.
func Detect() Flags {
	return defaultProbe.Detect()
}
