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

import "github.com/shmqueue/shmq/internal/shm"

// All failures are reported as explicit errors carrying one of these
// sentinels; match with errors.Is. Full and Empty are expected steady-state
// signals, not faults.
var (
	// ErrFull is returned by TryPush when all slots hold unconsumed
	// messages. Recoverable: retry, buffer, or drop.
	ErrFull = shm.ErrFull

	// ErrEmpty is returned by TryPop when no message is published.
	// Recoverable: retry later.
	ErrEmpty = shm.ErrEmpty

	// ErrMessageTooLarge is returned by TryPush for payloads exceeding the
	// slot capacity. Nothing is written and cursors are unchanged.
	ErrMessageTooLarge = shm.ErrMessageTooLarge

	// ErrOutstandingView is returned by TryPop while a previous view awaits
	// Commit.
	ErrOutstandingView = shm.ErrOutstandingView

	// ErrNoView is returned by Commit when no view is outstanding.
	ErrNoView = shm.ErrNoView

	// ErrMalformed indicates a slot failed structural validation: a
	// corruption signal, not a condition to retry.
	ErrMalformed = shm.ErrMalformed

	// ErrClosed indicates the queue was closed. Terminal for the handle;
	// the consumer sees it only after draining published messages.
	ErrClosed = shm.ErrClosed

	// ErrSegmentExists is returned by Create when the segment name is taken
	// and Config.Replace is false.
	ErrSegmentExists = shm.ErrSegmentExists

	// ErrSegmentNotFound is returned by Open when no segment of that name
	// exists.
	ErrSegmentNotFound = shm.ErrSegmentNotFound

	// ErrSizeMismatch is returned by Open when the segment's geometry does
	// not match the opener's Config.
	ErrSizeMismatch = shm.ErrSizeMismatch

	// ErrNotReady is returned by Open when the segment file exists but its
	// creator has not finished initializing it.
	ErrNotReady = shm.ErrNotReady

	// ErrUnsupported is returned by Create and Open on platforms without
	// shared memory support.
	ErrUnsupported = shm.ErrUnsupported
)
