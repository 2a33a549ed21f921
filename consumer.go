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

package shmq

import (
	"context"
	"errors"

	"github.com/shmqueue/shmq/internal/shm"
)

// View is a borrowed, zero-copy window over one message in shared memory.
// Its bytes alias the mapped segment and are valid only until the consumer
// calls Commit; callers needing the data longer must copy it out first.
type View struct {
	payload []byte
}

// Bytes returns the message payload in place. No allocation, no copy.
func (v View) Bytes() []byte {
	return v.payload
}

// Len returns the payload length in bytes.
func (v View) Len() int {
	return len(v.payload)
}

// Consumer is the reading end of a queue. Exactly one goroutine may use a
// Consumer.
type Consumer struct {
	seg    *shm.Segment
	ring   *shm.Ring
	closed bool
}

// Open attaches to an existing segment and returns the consumer handle.
// Fails with ErrSegmentNotFound if the creator has not created it, and with
// ErrSizeMismatch if cfg carries non-zero geometry that disagrees with what
// the creator recorded. Zero geometry adopts the creator's.
func Open(cfg Config) (*Consumer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seg, err := shm.OpenSegment(cfg.Name, cfg.SlotCount, cfg.SlotCapacity)
	if err != nil {
		return nil, err
	}
	return &Consumer{seg: seg, ring: shm.NewRing(seg)}, nil
}

// TryPop returns a view of the oldest unconsumed message without blocking.
// Returns ErrEmpty when nothing is published, ErrClosed once the queue is
// closed and drained, ErrMalformed if the slot fails validation, and
// ErrOutstandingView while a previous view awaits Commit. The same slot is
// never exposed twice.
func (c *Consumer) TryPop() (View, error) {
	if c.closed {
		return View{}, ErrClosed
	}
	payload, err := c.ring.TryPop()
	if err != nil {
		return View{}, err
	}
	return View{payload: payload}, nil
}

// Pop returns the next message, retrying an empty queue with
// yield-then-sleep backoff until ctx is done. Like Push, waiting lives in
// this wrapper; the queue itself never blocks.
func (c *Consumer) Pop(ctx context.Context) (View, error) {
	for attempt := 0; ; attempt++ {
		v, err := c.TryPop()
		if !errors.Is(err, ErrEmpty) {
			return v, err
		}
		select {
		case <-ctx.Done():
			return View{}, ctx.Err()
		default:
		}
		waitBackoff(attempt)
	}
}

// Commit releases the slot behind the last view for reuse by the producer.
// Must be called exactly once per successful TryPop, after the caller is
// done with the view's bytes. Returns ErrNoView if nothing is outstanding.
func (c *Consumer) Commit() error {
	if c.closed {
		return ErrClosed
	}
	return c.ring.Commit()
}

// State returns the queue lifecycle state.
func (c *Consumer) State() State {
	if c.closed {
		return StateClosed
	}
	return c.ring.State()
}

// DebugState returns a diagnostic snapshot of cursors and depth. After
// Close the mapping is gone; the snapshot reports only the Closed state.
func (c *Consumer) DebugState() QueueState {
	if c.closed {
		return QueueState{State: StateClosed}
	}
	return c.ring.DebugState()
}

// Close marks the queue Closed and unmaps this process's view. The segment
// name itself belongs to the creator. Idempotent.
func (c *Consumer) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.ring.Close()
	return c.seg.Close()
}
