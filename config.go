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

import "github.com/pkg/errors"

// Default queue geometry.
const (
	DefaultSlotCount    = 1024
	DefaultSlotCapacity = 4096
)

// Config fixes a queue's identity and geometry. Geometry is set once at
// creation and never changes; an opener passing non-zero geometry gets
// ErrSizeMismatch if it disagrees with what the creator recorded, and an
// opener passing zero values adopts the creator's.
type Config struct {
	// Name identifies the segment across processes.
	Name string

	// SlotCount is the fixed number of slots. Must be a power of two.
	// Creator default: DefaultSlotCount.
	SlotCount uint64

	// SlotCapacity is the fixed payload capacity of each slot in bytes.
	// Creator default: DefaultSlotCapacity.
	SlotCapacity uint64

	// Replace lets Create unlink a stale segment of the same name instead
	// of failing with ErrSegmentExists. Only meaningful to the creator.
	Replace bool
}

func (c Config) validate() error {
	if c.Name == "" {
		return errors.New("shmq: config requires a segment name")
	}
	return nil
}

// withCreateDefaults fills in creator-side geometry defaults.
func (c Config) withCreateDefaults() Config {
	if c.SlotCount == 0 {
		c.SlotCount = DefaultSlotCount
	}
	if c.SlotCapacity == 0 {
		c.SlotCapacity = DefaultSlotCapacity
	}
	return c
}
