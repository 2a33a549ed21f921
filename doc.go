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

// Package shmq is a single-producer single-consumer message queue over a
// named shared memory segment, for zero-copy message passing between two
// processes on the same machine.
//
// One process creates the queue and pushes:
//
//	p, err := shmq.Create(shmq.Config{Name: "events", SlotCount: 1024, SlotCapacity: 4096})
//	...
//	err = p.TryPush(msg) // shmq.ErrFull when all slots are in flight
//
// The other opens it and pops:
//
//	c, err := shmq.Open(shmq.Config{Name: "events"})
//	...
//	v, err := c.TryPop() // shmq.ErrEmpty when nothing is published
//	use(v.Bytes())       // reads the shared mapping in place
//	err = c.Commit()     // releases the slot for reuse
//
// TryPush and TryPop never block and never take a lock; Full and Empty are
// ordinary steady-state results. Push and Pop layer a bounded
// context-governed retry on top for callers that prefer waiting.
//
// Exactly one goroutine may drive the producer handle and exactly one the
// consumer handle; within that discipline the queue delivers messages in
// FIFO order with no tearing, enforced by acquire/release cursor publication
// in shared memory.
package shmq
