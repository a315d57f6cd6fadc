package halgpu

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/rendercore"
)

func TestSubmitAfterQueueClosed(t *testing.T) {
	c := createNoopContext(t, Config{})
	cmd := newCommandBufferT(t, c)
	q := c.Queue()
	q.close(time.Second)

	var got rendercore.CommandBufferStatus
	called := 0
	err := q.submitOne(cmd, func(_ rendercore.CommandBuffer, status rendercore.CommandBufferStatus) {
		called++
		got = status
	})
	if !errors.Is(err, rendercore.ErrContextShutdown) {
		t.Fatalf("submitOne err = %v, want ErrContextShutdown", err)
	}
	if called != 1 || got != rendercore.CommandBufferError {
		t.Errorf("completion called %d times with %v, want once with Error", called, got)
	}
	if cmd.Status() != rendercore.CommandBufferError {
		t.Errorf("status = %v, want Error", cmd.Status())
	}
	if q.InFlight() != 0 {
		t.Errorf("in flight = %d, want 0", q.InFlight())
	}
}

func TestSubmitDuringWaitIdle(t *testing.T) {
	c := createNoopContext(t, Config{})
	const n = 16

	cmds := make([]*CommandBuffer, n)
	for i := range cmds {
		cmds[i] = newCommandBufferT(t, c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, cmd := range cmds {
			if err := c.EnqueueCommandBuffer(cmd); err != nil {
				t.Errorf("Enqueue: %v", err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for range n {
			if err := c.Queue().WaitIdle(ctx); err != nil {
				t.Errorf("WaitIdle: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	waitIdle(t, c)
	for i, cmd := range cmds {
		if cmd.Status() != rendercore.CommandBufferCompleted {
			t.Errorf("cmd %d status = %v, want Completed", i, cmd.Status())
		}
	}
	if c.Queue().InFlight() != 0 {
		t.Errorf("in flight = %d, want 0", c.Queue().InFlight())
	}
}
