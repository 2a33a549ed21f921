/*
 *
 * Copyright 2026 The shmq Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package shm

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Ring is one process's handle on the slot store of a mapped segment.
//
// A Ring carries no Go pointers into shared memory; slot addresses are
// computed on demand from the mapping base and relative offsets. Exactly one
// goroutine may act as producer and exactly one as consumer on a given
// segment; the two roles may live in different processes, each with its own
// Ring over its own mapping.
//
// Publish protocol, in cursor order:
//
//	producer: write payload -> write length prefix -> release-store writeCursor+1
//	consumer: acquire-load writeCursor -> read slot in place -> commit:
//	          release-store readCursor+1
//
// The release store synchronizes-with the matching acquire load, so every
// slot byte written before a cursor advance is visible to the side that
// observes the advance. Weaker (plain) cursor access would allow the payload
// write to reorder past the publish, producing torn reads or premature slot
// reuse; every cursor access here goes through the atomic QueueHeader
// accessors, without exception.
//
// Each side keeps a local copy of its own cursor and a cached snapshot of
// the other side's, refreshed only when the cached value suggests full or
// empty. The cache lines of the two roles' local state are kept apart so a
// process hosting both roles does not false-share.
type Ring struct {
	mem       []byte
	mask      uint64
	slotCount uint64
	slotCap   uint64
	stride    uint64

	_ cpu.CacheLinePad

	// Producer-local state. wlocal mirrors the header's writeCursor, which
	// only the producer advances; cachedRead lags the consumer's cursor.
	wlocal     uint64
	cachedRead uint64

	_ cpu.CacheLinePad

	// Consumer-local state. rlocal mirrors the header's readCursor, which
	// only the consumer advances; cachedWrite lags the producer's cursor.
	// viewOutstanding guards the exactly-once commit discipline.
	rlocal          uint64
	cachedWrite     uint64
	viewOutstanding bool

	_ cpu.CacheLinePad
}

// NewRing builds a Ring over a validated mapping. The caller (CreateSegment
// or OpenSegment) has already checked geometry and state; cursors are
// snapshot so a late attacher starts from the queue's current position.
func NewRing(seg *Segment) *Ring {
	hdr := seg.Header()
	count := hdr.SlotCount()
	capacity := hdr.SlotCapacity()
	return &Ring{
		mem:         seg.Mem,
		mask:        count - 1,
		slotCount:   count,
		slotCap:     capacity,
		stride:      SlotStride(capacity),
		wlocal:      hdr.WriteCursor(),
		cachedRead:  hdr.ReadCursor(),
		rlocal:      hdr.ReadCursor(),
		cachedWrite: hdr.WriteCursor(),
	}
}

func (r *Ring) header() *QueueHeader {
	return (*QueueHeader)(unsafe.Pointer(&r.mem[0]))
}

// slot returns the byte range of the slot a cursor value maps to.
func (r *Ring) slot(cursor uint64) []byte {
	base := HeaderSize + (cursor&r.mask)*r.stride
	return r.mem[base : base+r.stride]
}

// SlotCount returns the fixed number of slots.
func (r *Ring) SlotCount() uint64 {
	return r.slotCount
}

// SlotCapacity returns the fixed payload capacity of each slot.
func (r *Ring) SlotCapacity() uint64 {
	return r.slotCap
}

// State returns the lifecycle state from the shared header.
func (r *Ring) State() State {
	return r.header().State()
}

// Close transitions the queue to StateClosed. Terminal; either side may call
// it, and repeated calls are harmless.
func (r *Ring) Close() {
	r.header().SetState(StateClosed)
}

// TryPush encodes a message into the next free slot and publishes it.
// Producer role only. Returns ErrFull when slotCount messages are in flight,
// ErrMessageTooLarge before touching any shared state, and ErrClosed once
// the queue is closed.
func (r *Ring) TryPush(payload []byte) error {
	if uint64(len(payload)) > r.slotCap {
		return ErrMessageTooLarge
	}
	hdr := r.header()
	if hdr.State() == StateClosed {
		return ErrClosed
	}

	// Full check against the cached consumer cursor first; refresh it with
	// an acquire load only when the cache says full, so the steady state
	// never touches the consumer's cache line.
	if r.wlocal-r.cachedRead == r.slotCount {
		r.cachedRead = hdr.ReadCursor()
		if r.wlocal-r.cachedRead == r.slotCount {
			return ErrFull
		}
	}

	EncodeSlot(r.slot(r.wlocal), payload)

	// Release store: publishes the slot bytes along with the cursor.
	r.wlocal++
	hdr.PublishWriteCursor(r.wlocal)
	return nil
}

// TryPop returns an in-place view of the oldest unconsumed message.
// Consumer role only. The returned bytes alias the shared mapping and stay
// valid until Commit; the caller must Commit exactly once before the next
// TryPop. Returns ErrEmpty when no message is published, and ErrClosed once
// the queue is closed and fully drained.
func (r *Ring) TryPop() ([]byte, error) {
	if r.viewOutstanding {
		return nil, ErrOutstandingView
	}
	hdr := r.header()

	if r.rlocal == r.cachedWrite {
		// Acquire load: observing the cursor also makes the published slot
		// bytes visible.
		r.cachedWrite = hdr.WriteCursor()
		if r.rlocal == r.cachedWrite {
			if hdr.State() != StateClosed {
				return nil, ErrEmpty
			}
			// The producer publishes its final message before it closes, so
			// a push can land between the cursor load above and the state
			// load. Re-load the cursor after observing Closed; the queue is
			// done only if it is still drained.
			r.cachedWrite = hdr.WriteCursor()
			if r.rlocal == r.cachedWrite {
				return nil, ErrClosed
			}
		}
	}

	payload, err := DecodeSlot(r.slot(r.rlocal), r.slotCap)
	if err != nil {
		return nil, err
	}
	r.viewOutstanding = true
	return payload, nil
}

// Commit releases the slot of the last TryPop view back to the producer.
// Must be called exactly once per successful TryPop; the view's bytes are
// invalid afterwards.
func (r *Ring) Commit() error {
	if !r.viewOutstanding {
		return ErrNoView
	}
	r.viewOutstanding = false

	// Release store: the producer's acquire load of readCursor must happen
	// before it reuses the slot.
	r.rlocal++
	r.header().PublishReadCursor(r.rlocal)
	return nil
}

// RingState is a diagnostic snapshot of the shared queue state.
type RingState struct {
	SlotCount    uint64
	SlotCapacity uint64
	WriteCursor  uint64
	ReadCursor   uint64
	Depth        uint64
	State        State
}

// DebugState reads a diagnostic snapshot. Cursors are loaded atomically but
// the snapshot as a whole is not; it is for observability, not control flow.
func (r *Ring) DebugState() RingState {
	hdr := r.header()
	w := hdr.WriteCursor()
	rd := hdr.ReadCursor()
	return RingState{
		SlotCount:    r.slotCount,
		SlotCapacity: r.slotCap,
		WriteCursor:  w,
		ReadCursor:   rd,
		Depth:        w - rd,
		State:        hdr.State(),
	}
}
