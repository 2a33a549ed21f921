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

// State is the queue lifecycle state shared by both processes:
// Uninitialized until the creator finishes setting up the segment, Ready
// while the queue is usable, Closed once either side tears down. Closed is
// terminal.
type State = shm.State

const (
	StateUninitialized = shm.StateUninitialized
	StateReady         = shm.StateReady
	StateClosed        = shm.StateClosed
)

// QueueState is a diagnostic snapshot of the shared queue: cursors, depth
// and lifecycle state at one (not mutually atomic) instant.
type QueueState = shm.RingState
