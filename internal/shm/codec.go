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
	"encoding/binary"

	"github.com/pkg/errors"
)

// Slot encoding (little-endian, offsets relative to the slot base):
//
//	0x00  length  uint64   payload length in bytes
//	0x08  payload [slotCapacity]byte
//
// Every field is located by offset from the slot base, never by absolute
// address, so the same bytes are valid in both processes' mappings. The
// consumer interprets the slot in place: DecodeSlot returns a sub-slice of
// the mapped region, no allocation, no copy.

// EncodeSlot writes a length-prefixed payload into a slot. The caller must
// have verified the payload fits; the slot slice spans the full stride.
func EncodeSlot(slot []byte, payload []byte) {
	binary.LittleEndian.PutUint64(slot[0:SlotHeaderSize], uint64(len(payload)))
	copy(slot[SlotHeaderSize:], payload)
}

// DecodeSlot interprets a slot in place and returns the payload bytes.
// The length is bounds-checked against the slot capacity before any byte is
// exposed: shared memory is not trusted, it is verified. A length beyond
// capacity means the slot bytes do not come from a well-formed EncodeSlot
// and is reported as ErrMalformed.
func DecodeSlot(slot []byte, slotCapacity uint64) ([]byte, error) {
	if uint64(len(slot)) < SlotHeaderSize {
		return nil, errors.Wrapf(ErrMalformed, "slot is %d bytes, length prefix needs %d", len(slot), SlotHeaderSize)
	}
	n := binary.LittleEndian.Uint64(slot[0:SlotHeaderSize])
	if n > slotCapacity {
		return nil, errors.Wrapf(ErrMalformed, "slot length %d exceeds capacity %d", n, slotCapacity)
	}
	return slot[SlotHeaderSize : SlotHeaderSize+n], nil
}
