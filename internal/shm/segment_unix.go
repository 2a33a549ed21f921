//go:build unix

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
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func init() {
	unmapMemory = munmapImpl
}

// CreateSegment creates, sizes, maps and initializes a new segment. It fails
// with ErrSegmentExists if the name is taken, unless replace is set, in which
// case any stale file is unlinked first.
//
// The backing file is created exclusively, truncated to the computed layout
// size (the kernel zeroes it), mapped MAP_SHARED, and the header initialized
// with StateReady stored last.
func CreateSegment(name string, slotCount, slotCapacity uint64, replace bool) (*Segment, error) {
	totalSize, err := CalculateLayout(slotCount, slotCapacity)
	if err != nil {
		return nil, errors.Wrap(err, "shmq: bad geometry")
	}

	path := SegmentPath(name)
	if replace {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "shmq: replace segment %s", path)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrapf(ErrSegmentExists, "segment file %s", path)
		}
		return nil, errors.Wrapf(err, "shmq: create segment file %s", path)
	}

	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(totalSize)); err != nil {
		cleanup()
		return nil, errors.Wrap(err, "shmq: size segment file")
	}

	mem, err := mmapFile(file, int(totalSize))
	if err != nil {
		cleanup()
		return nil, err
	}

	seg := &Segment{
		File: file,
		Mem:  mem,
		Path: path,
		name: name,
	}
	initHeader(seg.Header(), totalSize, slotCount, slotCapacity)

	return seg, nil
}

// OpenSegment maps an existing segment and validates its header against the
// expected geometry before exposing it. Zero want values adopt the creator's
// geometry.
func OpenSegment(name string, wantCount, wantCapacity uint64) (*Segment, error) {
	path := SegmentPath(name)

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrSegmentNotFound, "segment file %s", path)
		}
		return nil, errors.Wrapf(err, "shmq: open segment file %s", path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "shmq: stat segment file")
	}
	size := info.Size()
	if size < HeaderSize {
		file.Close()
		return nil, errors.Wrapf(ErrSizeMismatch, "segment file is %d bytes, header alone needs %d", size, HeaderSize)
	}

	mem, err := mmapFile(file, int(size))
	if err != nil {
		file.Close()
		return nil, err
	}

	seg := &Segment{
		File: file,
		Mem:  mem,
		Path: path,
		name: name,
	}
	if err := ValidateHeader(seg.Header(), uint64(size), wantCount, wantCapacity); err != nil {
		seg.Close()
		return nil, err
	}
	return seg, nil
}

func mmapFile(file *os.File, size int) ([]byte, error) {
	mem, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrap(err, "shmq: mmap segment")
	}
	return mem, nil
}

func munmapImpl(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return errors.Wrap(err, "shmq: munmap segment")
	}
	return nil
}
