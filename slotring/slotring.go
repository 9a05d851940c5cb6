// File: slotring/slotring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded slot ring carrying packet descriptors from one producer to
// many consumers without copying payload bytes. Power-of-two capacity,
// mask-based indexing, atomic head/tail with padding against false
// sharing. Every slot carries its own lifecycle state (free, published,
// claimed); Publish applies backpressure until the slot it would reuse
// has been released by its holder, so a claimed slot is never recycled
// in place. Claim hands each published slot to at most one consumer.

package slotring

import (
	"sync/atomic"

	"github.com/momentics/hyperpipe/api"
)

// MaxCapacity bounds the requested ring size.
const MaxCapacity = 64 * 1024

// Slot lifecycle. Only the producer moves a slot out of free; only the
// holder (claimer, or the publisher on the submit path) releases it.
const (
	slotFree uint32 = iota
	slotPublished
	slotClaimed
	slotReleasing
)

// Slot references one packet buffer. The slot does not own the payload
// memory; ownership stays with the producer that published it. The
// holder must call Release when done so the producer can reuse the
// position.
type Slot struct {
	Meta    api.PacketMeta
	payload []byte
	state   atomic.Uint32
	_       [20]byte // keep slot headers on separate cache lines
}

// Payload returns the borrowed payload bytes, length-limited to Meta.Length.
func (s *Slot) Payload() []byte {
	if s == nil || s.payload == nil {
		return nil
	}
	return s.payload[:s.Meta.Length]
}

// Len returns the payload length.
func (s *Slot) Len() int {
	if s == nil {
		return 0
	}
	return int(s.Meta.Length)
}

// Release returns the slot to the producer once its holder is done with
// the payload. Reports false for a nil or already-free slot, making a
// double release detectable. The transient releasing state keeps a
// concurrent Claim off the slot while its references are dropped.
func (s *Slot) Release() bool {
	if s == nil {
		return false
	}
	if !s.state.CompareAndSwap(slotClaimed, slotReleasing) &&
		!s.state.CompareAndSwap(slotPublished, slotReleasing) {
		return false
	}
	s.payload = nil
	s.Meta = api.PacketMeta{}
	s.state.Store(slotFree)
	return true
}

// Ring is the slot channel: single producer, multiple consumers.
type Ring struct {
	slots []Slot
	mask  uint64
	tail  atomic.Uint64 // producer side
	_     [64]byte      // padding for hot/cold separation
	head  atomic.Uint64 // consumer side, CAS-claimed
	_     [64]byte
}

// New allocates a ring. Capacity must be in [1, MaxCapacity]; it is
// rounded up to the next power of two.
func New(capacity int) (*Ring, error) {
	if capacity <= 0 || capacity > MaxCapacity {
		return nil, api.ErrInvalidArg
	}
	size := uint64(1)
	for size < uint64(capacity) {
		size <<= 1
	}
	return &Ring{
		slots: make([]Slot, size),
		mask:  size - 1,
	}, nil
}

// Publish writes a packet descriptor into the next slot and makes it
// visible to consumers. The payload is referenced, not copied. Returns
// the slot and true, or nil and false when the payload is empty or the
// slot the ring would reuse is still held (published or claimed):
// backpressure, never an in-place overwrite.
func (r *Ring) Publish(payload []byte, timestampNs uint64, flags, queue uint16) (*Slot, bool) {
	if len(payload) == 0 {
		return nil, false
	}
	tail := r.tail.Load()
	slot := &r.slots[tail&r.mask]
	if slot.state.Load() != slotFree {
		return nil, false
	}
	slot.Meta = api.PacketMeta{
		TimestampNs: timestampNs,
		Length:      uint32(len(payload)),
		Flags:       flags,
		Queue:       queue,
	}
	slot.payload = payload
	slot.state.Store(slotPublished)
	r.tail.Store(tail + 1)
	return slot, true
}

// Claim hands the oldest published slot to the caller. Each published
// slot is claimed by at most one consumer; concurrent consumers race on
// the head index with CAS. Positions whose slot was already released by
// its publisher without a claim are skipped.
func (r *Ring) Claim() (*Slot, bool) {
	for {
		head := r.head.Load()
		if head >= r.tail.Load() {
			return nil, false // empty
		}
		if !r.head.CompareAndSwap(head, head+1) {
			continue
		}
		slot := &r.slots[head&r.mask]
		if slot.state.CompareAndSwap(slotPublished, slotClaimed) {
			return slot, true
		}
	}
}

// Len returns an upper bound on the published, unclaimed slots: the
// head index lags positions released by their publisher until a Claim
// walks past them.
func (r *Ring) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return len(r.slots)
}
