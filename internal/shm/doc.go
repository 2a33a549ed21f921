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

// Package shm implements the shared memory mechanics behind the public shmq
// API: segment lifecycle (create, open, map, unlink), the fixed on-segment
// queue header and slot store layout, the single-producer single-consumer
// cursor protocol, and the in-place slot codec.
//
// A segment is a named, file-backed memory region mapped MAP_SHARED by two
// independent processes. Everything inside the region is addressed by
// relative offset from the mapping base; no language-level pointer is ever
// stored in shared memory, since the two processes map the region at
// different virtual addresses.
//
// The cursor protocol is lock-free. The producer publishes a slot write with
// a release-ordered store of the write cursor; the consumer observes it with
// an acquire-ordered load, reads the slot in place, and publishes completion
// with a release-ordered store of the read cursor. Go's sync/atomic
// operations are sequentially consistent, which is strictly stronger than
// the acquire/release pair this protocol requires.
package shm
