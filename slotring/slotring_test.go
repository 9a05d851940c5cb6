// File: slotring/slotring_test.go
// Author: momentics <momentics@gmail.com>

package slotring

import (
	"runtime"
	"sync"
	"testing"
)

// TestRing_Correctness checks the basic publish/claim contract.
func TestRing_Correctness(t *testing.T) {
	r, err := New(16)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	payloads := make([][]byte, 16)
	for i := range payloads {
		payloads[i] = []byte{byte(i), byte(i + 1)}
		if _, ok := r.Publish(payloads[i], uint64(i), 0, 0); !ok {
			t.Fatalf("Publish failed at %d", i)
		}
	}
	if r.Len() != 16 {
		t.Fatalf("expected 16 unclaimed, got %d", r.Len())
	}
	for i := 0; i < 16; i++ {
		s, ok := r.Claim()
		if !ok {
			t.Fatalf("Claim failed at %d", i)
		}
		if s.Meta.TimestampNs != uint64(i) {
			t.Fatalf("expected slot %d, got ts %d", i, s.Meta.TimestampNs)
		}
		if &s.Payload()[0] != &payloads[i][0] {
			t.Error("payload must be referenced, not copied")
		}
	}
	if _, ok := r.Claim(); ok {
		t.Error("Claim on empty ring must fail")
	}
}

// TestRing_Backpressure verifies a full ring rejects the producer: a
// claim alone does not free the position, releasing the slot does.
func TestRing_Backpressure(t *testing.T) {
	r, _ := New(4)
	for i := 0; i < 4; i++ {
		if _, ok := r.Publish([]byte{1}, 0, 0, 0); !ok {
			t.Fatalf("Publish failed at %d", i)
		}
	}
	if _, ok := r.Publish([]byte{1}, 0, 0, 0); ok {
		t.Fatal("full ring must reject publish")
	}
	s, ok := r.Claim()
	if !ok {
		t.Fatal("Claim failed")
	}
	if _, ok := r.Publish([]byte{2}, 0, 0, 0); ok {
		t.Fatal("claimed slot must still block the producer")
	}
	if !s.Release() {
		t.Fatal("Release failed")
	}
	if _, ok := r.Publish([]byte{2}, 0, 0, 0); !ok {
		t.Fatal("publish after release must succeed")
	}
}

// TestRing_ClaimedSlotNotRecycled: a wrapped-around producer must not
// overwrite a claimed slot's descriptor while its holder still reads it.
func TestRing_ClaimedSlotNotRecycled(t *testing.T) {
	r, _ := New(4)
	if _, ok := r.Publish([]byte{1}, 111, 0, 0); !ok {
		t.Fatal("Publish failed")
	}
	claimed, ok := r.Claim()
	if !ok {
		t.Fatal("Claim failed")
	}
	for i := 0; i < 3; i++ {
		if _, ok := r.Publish([]byte{byte(i)}, uint64(200+i), 0, 0); !ok {
			t.Fatalf("Publish failed at %d", i)
		}
	}

	// The next publish wraps onto the claimed position.
	if _, ok := r.Publish([]byte{255}, 203, 0, 0); ok {
		t.Fatal("publish must not recycle a claimed slot")
	}
	if ts := claimed.Meta.TimestampNs; ts != 111 {
		t.Fatalf("claimed slot overwritten in place: ts=%d payload=%v", ts, claimed.Payload())
	}
	if p := claimed.Payload(); len(p) != 1 || p[0] != 1 {
		t.Fatalf("claimed payload mutated: %v", p)
	}

	if !claimed.Release() {
		t.Fatal("Release failed")
	}
	if claimed.Release() {
		t.Fatal("double release must report failure")
	}
	if _, ok := r.Publish([]byte{255}, 203, 0, 0); !ok {
		t.Fatal("publish after release must succeed")
	}
}

// TestRing_RejectsEmptyAndInvalid covers the argument edge cases.
func TestRing_RejectsEmptyAndInvalid(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("capacity 0 must be rejected")
	}
	if _, err := New(MaxCapacity + 1); err == nil {
		t.Error("oversized capacity must be rejected")
	}
	r, _ := New(3)
	if r.Cap() != 4 {
		t.Errorf("capacity must round up to power of two, got %d", r.Cap())
	}
	if _, ok := r.Publish(nil, 0, 0, 0); ok {
		t.Error("empty payload must be rejected")
	}
}

// TestRing_ReleaseWithoutClaim: the submit path releases published
// slots that were never claimed; Claim skips those positions.
func TestRing_ReleaseWithoutClaim(t *testing.T) {
	r, _ := New(4)
	s, ok := r.Publish([]byte{1}, 10, 0, 0)
	if !ok {
		t.Fatal("Publish failed")
	}
	if !s.Release() {
		t.Fatal("Release failed")
	}
	if _, ok := r.Publish([]byte{2}, 11, 0, 0); !ok {
		t.Fatal("Publish failed")
	}
	got, ok := r.Claim()
	if !ok {
		t.Fatal("Claim failed")
	}
	if got.Meta.TimestampNs != 11 {
		t.Fatalf("Claim must skip the released position, got ts %d", got.Meta.TimestampNs)
	}
}

// TestRing_ConcurrentClaimUniqueness: one producer, many consumers,
// every published slot claimed exactly once and released after use.
func TestRing_ConcurrentClaimUniqueness(t *testing.T) {
	r, _ := New(128)
	const total = 20000
	const consumers = 8

	var mu sync.Mutex
	seen := make(map[uint64]int, total)
	var wg sync.WaitGroup
	done := make(chan struct{})

	record := func(s *Slot) {
		mu.Lock()
		seen[s.Meta.TimestampNs]++
		mu.Unlock()
		s.Release()
	}

	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				s, ok := r.Claim()
				if !ok {
					select {
					case <-done:
						// Drain whatever is left after the producer stops.
						if s, ok := r.Claim(); ok {
							record(s)
							continue
						}
						return
					default:
						runtime.Gosched()
						continue
					}
				}
				record(s)
			}
		}()
	}

	payload := []byte{0xDE, 0xAD}
	for i := uint64(0); i < total; {
		if _, ok := r.Publish(payload, i, 0, 0); ok {
			i++
		} else {
			runtime.Gosched()
		}
	}
	close(done)
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("expected %d unique claims, got %d", total, len(seen))
	}
	for ts, n := range seen {
		if n != 1 {
			t.Fatalf("slot %d claimed %d times", ts, n)
		}
	}
}
