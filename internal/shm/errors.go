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

import "errors"

// Steady-state signals. Full and Empty are expected under normal operation;
// callers retry, buffer, or drop as they see fit.
var (
	// ErrFull indicates the queue holds slotCount unconsumed messages.
	ErrFull = errors.New("shmq: queue full")

	// ErrEmpty indicates no message is ready for the consumer.
	ErrEmpty = errors.New("shmq: queue empty")
)

// Caller mistakes, rejected before any shared state changes.
var (
	// ErrMessageTooLarge indicates a payload exceeding the slot capacity.
	// Nothing is written; cursors are untouched.
	ErrMessageTooLarge = errors.New("shmq: message exceeds slot capacity")

	// ErrOutstandingView indicates TryPop was called while a previous view
	// has not been committed yet.
	ErrOutstandingView = errors.New("shmq: outstanding view not committed")

	// ErrNoView indicates Commit was called with no outstanding view.
	ErrNoView = errors.New("shmq: no outstanding view to commit")
)

// Setup-time failures, fatal to the attach attempt.
var (
	// ErrSegmentExists indicates a segment of the requested name already
	// exists and replacement was not requested.
	ErrSegmentExists = errors.New("shmq: segment already exists")

	// ErrSegmentNotFound indicates no segment of the requested name exists.
	ErrSegmentNotFound = errors.New("shmq: segment not found")

	// ErrSizeMismatch indicates the segment's recorded geometry does not
	// match what the opener expects.
	ErrSizeMismatch = errors.New("shmq: segment geometry mismatch")

	// ErrNotReady indicates the segment file exists but its creator has not
	// finished initializing the header.
	ErrNotReady = errors.New("shmq: segment not initialized")

	// ErrUnsupported indicates the platform has no shared memory support.
	ErrUnsupported = errors.New("shmq: shared memory not supported on this platform")
)

// Runtime corruption and lifecycle signals.
var (
	// ErrMalformed indicates a slot failed structural validation. This is a
	// corruption signal, not a transient condition; it should not be retried
	// without investigation.
	ErrMalformed = errors.New("shmq: malformed slot")

	// ErrClosed indicates the queue has been closed. Terminal for the handle.
	ErrClosed = errors.New("shmq: queue closed")
)
