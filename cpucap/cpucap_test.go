// File: cpucap/cpucap_test.go
// Author: momentics <momentics@gmail.com>

package cpucap

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProbe_QueryOnce verifies the underlying hardware query runs
// exactly once for 1000 concurrent Detect calls.
func TestProbe_QueryOnce(t *testing.T) {
	var calls atomic.Int64
	p := NewProbeFunc(func() Flags {
		calls.Add(1)
		return CapVector | CapAES
	})

	const goroutines = 1000
	results := make([]Flags, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Detect()
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(1), calls.Load(), "hardware query must run exactly once")
	for _, f := range results {
		assert.Equal(t, CapVector|CapAES, f)
	}
}

// TestProbe_Idempotent checks repeated sequential calls return the
// cached value.
func TestProbe_Idempotent(t *testing.T) {
	var calls atomic.Int64
	p := NewProbeFunc(func() Flags {
		calls.Add(1)
		return CapPMULL
	})
	for i := 0; i < 10; i++ {
		assert.Equal(t, CapPMULL, p.Detect())
	}
	assert.Equal(t, int64(1), calls.Load())
}

// TestFlags_Convenience covers the boolean convenience queries.
func TestFlags_Convenience(t *testing.T) {
	f := CapVector | CapAES | CapSHA2
	assert.True(t, f.HasVector())
	assert.True(t, f.HasAES())
	assert.True(t, f.HasSHA2())
	assert.False(t, f.HasPMULL())
	assert.False(t, f.HasSHA1())

	var none Flags
	assert.False(t, none.HasVector())
	assert.False(t, none.HasAES())
}

// TestDetect_PlatformQuery exercises the real platform query path.
// Absence of every feature is legal; the call must simply not fail.
func TestDetect_PlatformQuery(t *testing.T) {
	f1 := Detect()
	f2 := Detect()
	assert.Equal(t, f1, f2, "cached flags must be stable")
}
