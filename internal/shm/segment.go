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
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// Memory layout constants
const (
	// Magic bytes at offset 0 of every segment
	SegmentMagic = "SHMQSEG\x00"

	// Current on-segment layout version
	SegmentVersion = uint32(1)

	// Queue header size: one cache line of metadata plus one private cache
	// line per cursor
	HeaderSize = 192

	// Per-slot length prefix size
	SlotHeaderSize = 8

	// cacheLine is the padding granularity of the on-segment header. It is a
	// fixed layout constant, deliberately not derived from the host CPU: both
	// mappers must agree on it byte for byte.
	cacheLine = 64
)

// State is the lifecycle state stored in the queue header.
//
//go:generate go tool stringer -type=State
type State uint32

const (
	// StateUninitialized is the zero value of a freshly truncated segment.
	StateUninitialized State = iota

	// StateReady is set by the creator once the header and slot store are
	// initialized. Only the creator performs this transition.
	StateReady

	// StateClosed signals that the segment should no longer be used. Either
	// side may set it; it is terminal.
	StateClosed
)

// QueueHeader is the control block at offset 0 of the segment.
//
// The layout is fixed: explicit fixed-size fields in declaration order with
// explicit padding, so that independently compiled processes agree on every
// offset. The two cursors each live on a private cache line so the producer
// and consumer never contend on the same line.
//
//	0x00  magic        [8]byte
//	0x08  version      uint32
//	0x0C  state        uint32
//	0x10  totalSize    uint64
//	0x18  slotCount    uint64
//	0x20  slotCapacity uint64
//	0x28  reserved     [24]byte
//	0x40  writeCursor  uint64   (producer-owned, monotonic)
//	0x48  pad          [56]byte
//	0x80  readCursor   uint64   (consumer-owned, monotonic)
//	0x88  pad          [56]byte
type QueueHeader struct {
	magic        [8]byte
	version      uint32
	state        uint32
	totalSize    uint64
	slotCount    uint64
	slotCapacity uint64
	reserved     [24]byte
	writeCursor  uint64
	pad0         [cacheLine - 8]byte
	readCursor   uint64
	pad1         [cacheLine - 8]byte
}

// Compile-time layout guard: the header must occupy exactly HeaderSize bytes.
var _ [HeaderSize]byte = [unsafe.Sizeof(QueueHeader{})]byte{}

// Magic returns the magic bytes.
func (h *QueueHeader) Magic() [8]byte {
	return h.magic
}

// SetMagic sets the magic bytes.
func (h *QueueHeader) SetMagic(magic [8]byte) {
	h.magic = magic
}

// Version returns the layout version.
func (h *QueueHeader) Version() uint32 {
	return atomic.LoadUint32(&h.version)
}

// SetVersion sets the layout version.
func (h *QueueHeader) SetVersion(version uint32) {
	atomic.StoreUint32(&h.version, version)
}

// State returns the lifecycle state.
func (h *QueueHeader) State() State {
	return State(atomic.LoadUint32(&h.state))
}

// SetState sets the lifecycle state.
func (h *QueueHeader) SetState(s State) {
	atomic.StoreUint32(&h.state, uint32(s))
}

// TotalSize returns the total segment size recorded at creation.
func (h *QueueHeader) TotalSize() uint64 {
	return atomic.LoadUint64(&h.totalSize)
}

// SetTotalSize records the total segment size.
func (h *QueueHeader) SetTotalSize(size uint64) {
	atomic.StoreUint64(&h.totalSize, size)
}

// SlotCount returns the number of slots.
func (h *QueueHeader) SlotCount() uint64 {
	return atomic.LoadUint64(&h.slotCount)
}

// SetSlotCount records the number of slots.
func (h *QueueHeader) SetSlotCount(n uint64) {
	atomic.StoreUint64(&h.slotCount, n)
}

// SlotCapacity returns the payload capacity of each slot.
func (h *QueueHeader) SlotCapacity() uint64 {
	return atomic.LoadUint64(&h.slotCapacity)
}

// SetSlotCapacity records the payload capacity of each slot.
func (h *QueueHeader) SetSlotCapacity(n uint64) {
	atomic.StoreUint64(&h.slotCapacity, n)
}

// WriteCursor loads the producer cursor. The load is at least
// acquire-ordered: a consumer that observes a cursor value also observes
// every slot write sequenced before the store that published it.
func (h *QueueHeader) WriteCursor() uint64 {
	return atomic.LoadUint64(&h.writeCursor)
}

// PublishWriteCursor stores the producer cursor. The store is at least
// release-ordered: it publishes all slot writes sequenced before it. Only
// the producer calls this, and the value only ever increases.
func (h *QueueHeader) PublishWriteCursor(idx uint64) {
	atomic.StoreUint64(&h.writeCursor, idx)
}

// ReadCursor loads the consumer cursor with at least acquire ordering. The
// producer must observe it before reusing a slot.
func (h *QueueHeader) ReadCursor() uint64 {
	return atomic.LoadUint64(&h.readCursor)
}

// PublishReadCursor stores the consumer cursor with at least release
// ordering, signaling that every slot below idx is free for reuse. Only the
// consumer calls this, and the value only ever increases.
func (h *QueueHeader) PublishReadCursor(idx uint64) {
	atomic.StoreUint64(&h.readCursor, idx)
}

// Depth returns the number of published, unconsumed messages. Always in
// [0, slotCount]; uint64 arithmetic handles cursor wrap.
func (h *QueueHeader) Depth() uint64 {
	w := atomic.LoadUint64(&h.writeCursor)
	r := atomic.LoadUint64(&h.readCursor)
	return w - r
}

// IsPowerOfTwo reports whether n is a power of two.
func IsPowerOfTwo(n uint64) bool {
	return n > 0 && (n&(n-1)) == 0
}

// SlotStride returns the on-segment size of one slot: the length prefix plus
// the payload capacity.
func SlotStride(slotCapacity uint64) uint64 {
	return SlotHeaderSize + slotCapacity
}

// CalculateLayout validates the queue geometry and returns the total segment
// size. slotCount must be a power of two so that cursor-to-index mapping is a
// mask; slotCapacity must be non-zero.
func CalculateLayout(slotCount, slotCapacity uint64) (totalSize uint64, err error) {
	if !IsPowerOfTwo(slotCount) {
		return 0, errors.Errorf("slot count %d is not a power of two", slotCount)
	}
	if slotCapacity == 0 {
		return 0, errors.New("slot capacity must be non-zero")
	}
	if slotCapacity > math.MaxUint64-SlotHeaderSize {
		return 0, errors.Errorf("slot capacity %d overflows the slot stride", slotCapacity)
	}
	stride := SlotStride(slotCapacity)
	if slotCount > (math.MaxUint64-HeaderSize-63)/stride {
		return 0, errors.Errorf("geometry %d x %d overflows the segment size", slotCount, slotCapacity)
	}
	totalSize = alignTo64(HeaderSize + slotCount*stride)
	return totalSize, nil
}

// alignTo64 aligns a size up to a 64-byte boundary.
func alignTo64(size uint64) uint64 {
	return (size + 63) &^ 63
}

// initHeader initializes a freshly created, zeroed segment header. The
// StateReady store is last: an opener that observes Ready also observes the
// complete header.
func initHeader(h *QueueHeader, totalSize, slotCount, slotCapacity uint64) {
	var magic [8]byte
	copy(magic[:], SegmentMagic)
	h.SetMagic(magic)
	h.SetVersion(SegmentVersion)
	h.SetTotalSize(totalSize)
	h.SetSlotCount(slotCount)
	h.SetSlotCapacity(slotCapacity)
	h.PublishWriteCursor(0)
	h.PublishReadCursor(0)
	h.SetState(StateReady)
}

// ValidateHeader checks a mapped segment header against the mapping size and
// the opener's expected geometry. Zero want values mean "adopt whatever the
// creator chose".
func ValidateHeader(h *QueueHeader, mappedSize uint64, wantCount, wantCapacity uint64) error {
	var magic [8]byte
	copy(magic[:], SegmentMagic)
	if h.Magic() != magic {
		return errors.Wrap(ErrMalformed, "bad magic bytes")
	}
	if v := h.Version(); v != SegmentVersion {
		return errors.Wrapf(ErrSizeMismatch, "layout version %d, expected %d", v, SegmentVersion)
	}
	if h.State() == StateUninitialized {
		return ErrNotReady
	}

	count := h.SlotCount()
	capacity := h.SlotCapacity()
	expectedTotal, err := CalculateLayout(count, capacity)
	if err != nil {
		return errors.Wrap(ErrMalformed, err.Error())
	}
	if h.TotalSize() != expectedTotal {
		return errors.Wrapf(ErrSizeMismatch, "recorded size %d, layout requires %d", h.TotalSize(), expectedTotal)
	}
	if mappedSize != expectedTotal {
		return errors.Wrapf(ErrSizeMismatch, "mapped %d bytes, layout requires %d", mappedSize, expectedTotal)
	}
	if wantCount != 0 && wantCount != count {
		return errors.Wrapf(ErrSizeMismatch, "slot count %d, expected %d", count, wantCount)
	}
	if wantCapacity != 0 && wantCapacity != capacity {
		return errors.Wrapf(ErrSizeMismatch, "slot capacity %d, expected %d", capacity, wantCapacity)
	}
	return nil
}

// unmapMemory unmaps a mapped region. Overridden by the platform file.
var unmapMemory = func([]byte) error { return ErrUnsupported }

// Segment is one process's mapping of a named shared memory region.
// The creating process owns the OS-level name (Destroy); the mapping itself
// is owned per process (Close).
type Segment struct {
	File *os.File // backing file descriptor
	Mem  []byte   // the mapped region
	Path string   // backing file path
	name string
}

// Name returns the segment name the region was created under.
func (s *Segment) Name() string {
	return s.name
}

// Header returns the queue header view at offset 0 of the mapping.
func (s *Segment) Header() *QueueHeader {
	return (*QueueHeader)(unsafe.Pointer(&s.Mem[0]))
}

// Close unmaps the region and closes the backing file. Safe to call more
// than once; the segment name stays allocated until Destroy.
func (s *Segment) Close() error {
	var firstErr error

	if s.Mem != nil {
		if err := unmapMemory(s.Mem); err != nil && firstErr == nil {
			firstErr = err
		}
		s.Mem = nil
	}
	if s.File != nil {
		if err := s.File.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.File = nil
	}
	return firstErr
}

// Destroy unlinks the OS-level name. Only the creating process should call
// this, after both ends have unmapped. Idempotent: a missing file is not an
// error.
func (s *Segment) Destroy() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "shmq: unlink segment")
	}
	return nil
}

// SegmentPath returns the backing file path for a segment name.
func SegmentPath(name string) string {
	if isDevShmAvailable() {
		return filepath.Join("/dev/shm", "shmq_"+name)
	}
	return filepath.Join(os.TempDir(), "shmq_"+name)
}

// SegmentExistsByName reports whether a segment of the given name exists.
func SegmentExistsByName(name string) bool {
	_, err := os.Stat(SegmentPath(name))
	return err == nil
}

// RemoveSegment unlinks a segment by name. Idempotent.
func RemoveSegment(name string) error {
	if err := os.Remove(SegmentPath(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "shmq: remove segment")
	}
	return nil
}

func isDevShmAvailable() bool {
	info, err := os.Stat("/dev/shm")
	if err != nil {
		return false
	}
	return info.IsDir()
}
