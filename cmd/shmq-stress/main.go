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

// shmq-stress drives a shmq queue with checksummed messages and verifies
// order and integrity on the consumer side.
//
// Run the two roles in separate processes against the same segment name:
//
//	shmq-stress -role produce -name stress -count 1000000
//	shmq-stress -role consume -name stress
//
// or both in one process:
//
//	shmq-stress -role both -name stress -count 1000000
//
// Each message carries a sequence number and a CRC32 of its body, so any
// reordering, tearing or premature slot reuse shows up as a hard failure.
// The producer demonstrates the buffer-on-full policy: messages rejected
// with ErrFull are staged in an in-process FIFO and retried.
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"hash/crc32"
	"log"
	"time"

	"github.com/eapache/queue"
	"golang.org/x/sync/errgroup"

	"github.com/shmqueue/shmq"
)

const msgHeaderSize = 12 // seq u64 + crc u32

var (
	name    = flag.String("name", "shmq-stress", "segment name")
	role    = flag.String("role", "both", "produce, consume, or both")
	count   = flag.Uint64("count", 1_000_000, "messages to produce")
	slots   = flag.Uint64("slots", 1024, "slot count (power of two)")
	slotCap = flag.Uint64("slotcap", 4096, "slot payload capacity in bytes")
	size    = flag.Int("size", 128, "message size in bytes, including the 12-byte header")
	timeout = flag.Duration("timeout", 5*time.Minute, "overall deadline")
)

func main() {
	flag.Parse()
	if *size < msgHeaderSize {
		log.Fatalf("-size must be at least %d", msgHeaderSize)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *role {
	case "produce":
		if err := produce(ctx); err != nil {
			log.Fatalf("produce: %v", err)
		}
	case "consume":
		if err := consume(ctx); err != nil {
			log.Fatalf("consume: %v", err)
		}
	case "both":
		p, err := shmq.Create(shmq.Config{
			Name:         *name,
			SlotCount:    *slots,
			SlotCapacity: *slotCap,
			Replace:      true,
		})
		if err != nil {
			log.Fatalf("create: %v", err)
		}
		defer p.Destroy()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return produceWith(gctx, p) })
		g.Go(func() error { return consume(gctx) })
		if err := g.Wait(); err != nil {
			log.Fatalf("stress: %v", err)
		}
	default:
		log.Fatalf("unknown role %q", *role)
	}
}

func produce(ctx context.Context) error {
	p, err := shmq.Create(shmq.Config{
		Name:         *name,
		SlotCount:    *slots,
		SlotCapacity: *slotCap,
		Replace:      true,
	})
	if err != nil {
		return err
	}
	return produceWith(ctx, p)
}

func produceWith(ctx context.Context, p *shmq.Producer) error {
	defer p.Close()

	// Messages the queue rejected with ErrFull wait here and are retried in
	// order before anything newer is offered.
	const maxPending = 256
	pending := queue.New()

	start := time.Now()
	var next, pushed, fullHits uint64
	for pushed < *count {
		if next < *count && pending.Length() < maxPending {
			pending.Add(buildMessage(next, *size))
			next++
		}
		for pending.Length() > 0 {
			msg := pending.Peek().([]byte)
			err := p.TryPush(msg)
			if err == nil {
				pending.Remove()
				pushed++
				continue
			}
			if errors.Is(err, shmq.ErrFull) {
				fullHits++
				break
			}
			return err
		}
		if pending.Length() >= maxPending {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				time.Sleep(10 * time.Microsecond)
			}
		}
	}

	elapsed := time.Since(start)
	fmt.Printf("produced %d messages in %v (%.0f msg/s, %d full rejections)\n",
		pushed, elapsed.Round(time.Millisecond), float64(pushed)/elapsed.Seconds(), fullHits)
	return nil
}

func consume(ctx context.Context) error {
	c, err := openWithRetry(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	var popped, emptyHits uint64
	wantSeq := uint64(0)
	for {
		v, err := c.TryPop()
		if errors.Is(err, shmq.ErrEmpty) {
			emptyHits++
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				time.Sleep(time.Microsecond)
			}
			continue
		}
		if errors.Is(err, shmq.ErrClosed) {
			break
		}
		if err != nil {
			return err
		}

		if err := verifyMessage(v.Bytes(), wantSeq); err != nil {
			return err
		}
		if err := c.Commit(); err != nil {
			return err
		}
		wantSeq++
		popped++
	}

	elapsed := time.Since(start)
	fmt.Printf("consumed %d messages in %v (%.0f msg/s, %d empty polls), all checksums OK\n",
		popped, elapsed.Round(time.Millisecond), float64(popped)/elapsed.Seconds(), emptyHits)
	return nil
}

func openWithRetry(ctx context.Context) (*shmq.Consumer, error) {
	for {
		c, err := shmq.Open(shmq.Config{Name: *name})
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, shmq.ErrSegmentNotFound) && !errors.Is(err, shmq.ErrNotReady) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// buildMessage lays out [seq u64][crc u32][body], crc covering the body.
func buildMessage(seq uint64, size int) []byte {
	msg := make([]byte, size)
	body := msg[msgHeaderSize:]
	for i := range body {
		body[i] = byte((seq + uint64(i)) % 251)
	}
	binary.LittleEndian.PutUint64(msg[0:8], seq)
	binary.LittleEndian.PutUint32(msg[8:12], crc32.ChecksumIEEE(body))
	return msg
}

func verifyMessage(msg []byte, wantSeq uint64) error {
	if len(msg) < msgHeaderSize {
		return fmt.Errorf("message %d: truncated to %d bytes", wantSeq, len(msg))
	}
	seq := binary.LittleEndian.Uint64(msg[0:8])
	if seq != wantSeq {
		return fmt.Errorf("sequence gap: got %d, want %d", seq, wantSeq)
	}
	want := binary.LittleEndian.Uint32(msg[8:12])
	if got := crc32.ChecksumIEEE(msg[msgHeaderSize:]); got != want {
		return fmt.Errorf("message %d: checksum mismatch: got %08x, want %08x", seq, got, want)
	}
	return nil
}
