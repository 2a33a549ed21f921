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
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestPair(t *testing.T, slotCount, slotCapacity uint64) (*Producer, *Consumer) {
	t.Helper()
	name := fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano())

	p, err := Create(Config{Name: name, SlotCount: slotCount, SlotCapacity: slotCapacity})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	c, err := Open(Config{Name: name, SlotCount: slotCount, SlotCapacity: slotCapacity})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
		p.Close()
		p.Destroy()
	})
	return p, c
}

func popAndCommit(t *testing.T, c *Consumer) []byte {
	t.Helper()
	v, err := c.TryPop()
	if err != nil {
		t.Fatalf("TryPop failed: %v", err)
	}
	out := append([]byte(nil), v.Bytes()...)
	if err := c.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return out
}

// TestScenario walks the documented small-queue exchange step by step,
// checking cursors after every operation.
func TestScenario(t *testing.T) {
	p, c := newTestPair(t, 2, 16)

	if err := p.TryPush([]byte("abc")); err != nil {
		t.Fatalf(`push "abc" failed: %v`, err)
	}
	if w := p.DebugState().WriteCursor; w != 1 {
		t.Fatalf("write cursor = %d, want 1", w)
	}

	if err := p.TryPush([]byte("defgh")); err != nil {
		t.Fatalf(`push "defgh" failed: %v`, err)
	}
	if w := p.DebugState().WriteCursor; w != 2 {
		t.Fatalf("write cursor = %d, want 2", w)
	}

	if err := p.TryPush([]byte("x")); !errors.Is(err, ErrFull) {
		t.Fatalf("third push = %v, want ErrFull", err)
	}

	if got := popAndCommit(t, c); string(got) != "abc" {
		t.Fatalf("popped %q, want %q", got, "abc")
	}
	if r := c.DebugState().ReadCursor; r != 1 {
		t.Fatalf("read cursor = %d, want 1", r)
	}

	// Slot 0 is reusable now.
	if err := p.TryPush([]byte("x")); err != nil {
		t.Fatalf(`push "x" failed: %v`, err)
	}
	if w := p.DebugState().WriteCursor; w != 3 {
		t.Fatalf("write cursor = %d, want 3", w)
	}

	if got := popAndCommit(t, c); string(got) != "defgh" {
		t.Fatalf("popped %q, want %q", got, "defgh")
	}
	if got := popAndCommit(t, c); string(got) != "x" {
		t.Fatalf("popped %q, want %q", got, "x")
	}
	if _, err := c.TryPop(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("final pop = %v, want ErrEmpty", err)
	}
}

func TestFIFO(t *testing.T) {
	p, c := newTestPair(t, 16, 64)

	const k = 50
	want := 0
	for i := 0; i < k; {
		for i < k {
			err := p.TryPush([]byte(fmt.Sprintf("msg-%02d", i)))
			if errors.Is(err, ErrFull) {
				break
			}
			if err != nil {
				t.Fatalf("push %d failed: %v", i, err)
			}
			i++
		}
		for want < i {
			got := popAndCommit(t, c)
			if expected := fmt.Sprintf("msg-%02d", want); string(got) != expected {
				t.Fatalf("popped %q, want %q", got, expected)
			}
			want++
		}
	}
	if want != k {
		t.Fatalf("consumed %d messages, want %d", want, k)
	}
}

func TestOversizedRejection(t *testing.T) {
	p, c := newTestPair(t, 4, 16)

	before := p.DebugState()
	if err := p.TryPush(make([]byte, 17)); !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("oversized push = %v, want ErrMessageTooLarge", err)
	}
	after := p.DebugState()
	if before.WriteCursor != after.WriteCursor || before.ReadCursor != after.ReadCursor {
		t.Fatal("cursors changed by a rejected push")
	}
	if _, err := c.TryPop(); !errors.Is(err, ErrEmpty) {
		t.Fatal("rejected push became visible to the consumer")
	}
}

func TestViewIsBorrowed(t *testing.T) {
	p, c := newTestPair(t, 4, 32)

	if err := p.TryPush([]byte("borrowed bytes")); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	v, err := c.TryPop()
	if err != nil {
		t.Fatalf("TryPop failed: %v", err)
	}
	if v.Len() != len("borrowed bytes") {
		t.Fatalf("view length = %d, want %d", v.Len(), len("borrowed bytes"))
	}
	if !bytes.Equal(v.Bytes(), []byte("borrowed bytes")) {
		t.Fatalf("view = %q, want %q", v.Bytes(), "borrowed bytes")
	}
	if err := c.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func TestPushContextDeadline(t *testing.T) {
	p, _ := newTestPair(t, 2, 16)

	if err := p.TryPush([]byte("a")); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if err := p.TryPush([]byte("b")); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Push(ctx, []byte("c")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("push on full queue = %v, want DeadlineExceeded", err)
	}
}

func TestPopContextCancel(t *testing.T) {
	_, c := newTestPair(t, 2, 16)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Pop(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("pop with canceled context = %v, want Canceled", err)
	}
}

func TestPopUnblocksOnPush(t *testing.T) {
	p, c := newTestPair(t, 4, 32)

	errCh := make(chan error, 1)
	gotCh := make(chan []byte, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		v, err := c.Pop(ctx)
		if err != nil {
			errCh <- err
			return
		}
		gotCh <- append([]byte(nil), v.Bytes()...)
		errCh <- c.Commit()
	}()

	time.Sleep(20 * time.Millisecond)
	if err := p.TryPush([]byte("wakeup")); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	select {
	case got := <-gotCh:
		if string(got) != "wakeup" {
			t.Fatalf("popped %q, want %q", got, "wakeup")
		}
		if err := <-errCh; err != nil {
			t.Fatalf("commit failed: %v", err)
		}
	case err := <-errCh:
		t.Fatalf("Pop failed: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("Pop did not observe the push")
	}
}

func TestCloseSemantics(t *testing.T) {
	p, c := newTestPair(t, 4, 16)

	if err := p.TryPush([]byte("last")); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if err := p.TryPush([]byte("late")); !errors.Is(err, ErrClosed) {
		t.Fatalf("push after close = %v, want ErrClosed", err)
	}
	if p.State() != StateClosed {
		t.Fatalf("producer state = %v, want %v", p.State(), StateClosed)
	}

	// The consumer drains what was published, then sees ErrClosed.
	if got := popAndCommit(t, c); string(got) != "last" {
		t.Fatalf("popped %q, want %q", got, "last")
	}
	if _, err := c.TryPop(); !errors.Is(err, ErrClosed) {
		t.Fatalf("pop on closed drained queue = %v, want ErrClosed", err)
	}
}

func TestOpenFailures(t *testing.T) {
	name := fmt.Sprintf("test-openfail-%d", time.Now().UnixNano())

	if _, err := Open(Config{Name: name}); !errors.Is(err, ErrSegmentNotFound) {
		t.Fatalf("open missing = %v, want ErrSegmentNotFound", err)
	}

	p, err := Create(Config{Name: name, SlotCount: 8, SlotCapacity: 64})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer func() {
		p.Close()
		p.Destroy()
	}()

	if _, err := Create(Config{Name: name, SlotCount: 8, SlotCapacity: 64}); !errors.Is(err, ErrSegmentExists) {
		t.Fatalf("duplicate create = %v, want ErrSegmentExists", err)
	}
	if _, err := Open(Config{Name: name, SlotCount: 16, SlotCapacity: 64}); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("geometry mismatch = %v, want ErrSizeMismatch", err)
	}
	if _, err := Open(Config{}); err == nil {
		t.Fatal("open with empty name should fail")
	}
}

func TestStateString(t *testing.T) {
	if got := StateReady.String(); got != "Ready" {
		t.Errorf("StateReady.String() = %q, want %q", got, "Ready")
	}
	if got := State(9).String(); got != "State(9)" {
		t.Errorf("State(9).String() = %q, want %q", got, "State(9)")
	}
}

func TestDebugStateAfterClose(t *testing.T) {
	p, c := newTestPair(t, 4, 16)

	if err := p.TryPush([]byte("a")); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("producer Close failed: %v", err)
	}
	if st := p.DebugState(); st.State != StateClosed {
		t.Fatalf("producer state after close = %v, want %v", st.State, StateClosed)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("consumer Close failed: %v", err)
	}
	if st := c.DebugState(); st.State != StateClosed {
		t.Fatalf("consumer state after close = %v, want %v", st.State, StateClosed)
	}
}
