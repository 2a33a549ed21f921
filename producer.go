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

// Producer is the writing end of a queue. It owns segment creation and, via
// Destroy, the OS-level name. Exactly one goroutine may use a Producer.
type Producer struct {
	seg    *shm.Segment
	ring   *shm.Ring
	closed bool
}

// Create creates the named segment, initializes the queue and returns the
// producer handle. Fails with ErrSegmentExists on a name collision unless
// cfg.Replace is set.
func Create(cfg Config) (*Producer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withCreateDefaults()

	seg, err := shm.CreateSegment(cfg.Name, cfg.SlotCount, cfg.SlotCapacity, cfg.Replace)
	if err != nil {
		return nil, err
	}
	return &Producer{seg: seg, ring: shm.NewRing(seg)}, nil
}

// TryPush publishes one message. Non-blocking: returns ErrFull immediately
// when all slots hold unconsumed messages, ErrMessageTooLarge when the
// payload exceeds the slot capacity (nothing is written), and ErrClosed once
// the queue is closed. The payload bytes are copied into the segment; msg
// may be reused after return.
func (p *Producer) TryPush(msg []byte) error {
	if p.closed {
		return ErrClosed
	}
	return p.ring.TryPush(msg)
}

// Push publishes one message, retrying a full queue with yield-then-sleep
// backoff until ctx is done. Waiting is a policy of this wrapper, not of the
// queue: the underlying operation stays non-blocking and lock-free.
func (p *Producer) Push(ctx context.Context, msg []byte) error {
	for attempt := 0; ; attempt++ {
		err := p.TryPush(msg)
		if !errors.Is(err, ErrFull) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		waitBackoff(attempt)
	}
}

// State returns the queue lifecycle state.
func (p *Producer) State() State {
	if p.closed {
		return StateClosed
	}
	return p.ring.State()
}

// DebugState returns a diagnostic snapshot of cursors and depth. After
// Close the mapping is gone; the snapshot reports only the Closed state.
func (p *Producer) DebugState() QueueState {
	if p.closed {
		return QueueState{State: StateClosed}
	}
	return p.ring.DebugState()
}

// Close marks the queue Closed and unmaps this process's view. The segment
// name stays allocated for the consumer to drain; call Destroy to unlink it.
// Idempotent.
func (p *Producer) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.ring.Close()
	return p.seg.Close()
}

// Destroy unlinks the segment name. Call only after both ends have closed
// their mappings. Idempotent.
func (p *Producer) Destroy() error {
	return p.seg.Destroy()
}
