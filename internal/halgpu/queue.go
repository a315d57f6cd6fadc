package halgpu

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/rendercore"
	"github.com/gogpu/wgpu/hal"
)

// waitSlice bounds a single native fence wait so that WaitIdle can notice
// context cancellation.
const waitSlice = 10 * time.Millisecond

// submission is one command buffer the GPU has not retired yet.
type submission struct {
	serial     uint64
	cmd        *CommandBuffer
	native     hal.CommandBuffer
	fence      hal.Fence
	completion rendercore.CompletionCallback
}

// Queue submits command buffers in order and retires them lazily. Each
// submission gets its own fence; completed submissions are retired on the
// next Submit, FlushCommandBuffers or WaitIdle, which runs completion
// callbacks in submission order and releases retained resources.
//
// Completion callbacks may submit more work but must not block on the queue.
//
// Queue implements rendercore.CommandQueue and rendercore.IdleWaiter.
type Queue struct {
	dev         *Device
	gpuDisabled *rendercore.SyncSwitch

	mu       sync.Mutex
	inflight []*submission
	closed   bool

	// retireMu serializes retirement so callbacks run in submission order.
	retireMu sync.Mutex

	submitted atomic.Uint64
	completed atomic.Uint64
}

// NewQueue returns a queue on dev gated by gpuDisabled.
func NewQueue(dev *Device, gpuDisabled *rendercore.SyncSwitch) *Queue {
	return &Queue{dev: dev, gpuDisabled: gpuDisabled}
}

// Submit encodes and submits each buffer in order. Buffers are validated
// before any is submitted. A buffer that fails to submit reports
// CommandBufferError to completion; buffers before it stay submitted.
func (q *Queue) Submit(buffers []rendercore.CommandBuffer, completion rendercore.CompletionCallback) error {
	var err error
	q.gpuDisabled.Execute(rendercore.SyncSwitchHandlers{
		IfTrue:  func() { err = rendercore.ErrGPUDisabled },
		IfFalse: func() { err = q.submit(buffers, completion) },
	})
	q.retire()
	return err
}

func (q *Queue) submit(buffers []rendercore.CommandBuffer, completion rendercore.CompletionCallback) error {
	cmds := make([]*CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		cmd, ok := b.(*CommandBuffer)
		if !ok || cmd == nil {
			return fmt.Errorf("%w: %T", rendercore.ErrInvalidCommandBuffer, b)
		}
		if cmd.dev != q.dev {
			panic("halgpu: command buffer submitted to a queue of another context")
		}
		if !cmd.IsValid() {
			return fmt.Errorf("%w: %q", rendercore.ErrInvalidCommandBuffer, cmd.Label())
		}
		if cmd.Status() != rendercore.CommandBufferPending {
			return fmt.Errorf("%w: %q", rendercore.ErrCommandBufferSubmitted, cmd.Label())
		}
		cmds = append(cmds, cmd)
	}

	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return rendercore.ErrContextShutdown
	}

	for _, cmd := range cmds {
		if err := q.submitOne(cmd, completion); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) submitOne(cmd *CommandBuffer, completion rendercore.CompletionCallback) error {
	fail := func(err error) error {
		cmd.finish(rendercore.CommandBufferError)
		if completion != nil {
			completion(cmd, rendercore.CommandBufferError)
		}
		rendercore.Logger().Warn("halgpu: submit failed", "label", cmd.Label(), "error", err)
		return err
	}

	native, err := cmd.end()
	if err != nil {
		return fail(err)
	}
	fence, err := q.dev.device.CreateFence()
	if err != nil {
		q.dev.device.FreeCommandBuffer(native)
		return fail(fmt.Errorf("create fence: %w", err))
	}

	q.mu.Lock()
	if q.closed {
		// Shutdown ran after submit checked; nothing would retire this.
		q.mu.Unlock()
		q.discard(native, fence)
		return fail(rendercore.ErrContextShutdown)
	}
	if err := q.dev.queue.Submit([]hal.CommandBuffer{native}, fence, 1); err != nil {
		q.mu.Unlock()
		q.discard(native, fence)
		return fail(fmt.Errorf("submit: %w", err))
	}
	serial := q.submitted.Add(1)
	q.inflight = append(q.inflight, &submission{
		serial:     serial,
		cmd:        cmd,
		native:     native,
		fence:      fence,
		completion: completion,
	})
	cmd.markSubmitted()
	q.mu.Unlock()
	return nil
}

// discard frees a command buffer and fence that never reached the GPU.
func (q *Queue) discard(native hal.CommandBuffer, fence hal.Fence) {
	if q.dev.Closed() {
		return
	}
	q.dev.device.DestroyFence(fence)
	q.dev.device.FreeCommandBuffer(native)
}

// retire completes every submission whose fence has signaled, stopping at
// the first that has not. A retire already running on another goroutine,
// or further up this one's stack inside a completion callback, wins.
func (q *Queue) retire() {
	if !q.retireMu.TryLock() {
		return
	}
	defer q.retireMu.Unlock()

	q.mu.Lock()
	n := 0
	for _, s := range q.inflight {
		ok, err := q.dev.device.Wait(s.fence, 1, 0)
		if err != nil {
			rendercore.Logger().Warn("halgpu: fence poll failed", "error", err)
			break
		}
		if !ok {
			break
		}
		n++
	}
	done := q.inflight[:n:n]
	q.inflight = q.inflight[n:]
	q.mu.Unlock()

	for _, s := range done {
		q.complete(s, rendercore.CommandBufferCompleted)
	}
}

func (q *Queue) complete(s *submission, status rendercore.CommandBufferStatus) {
	s.cmd.finish(status)
	if !q.dev.Closed() {
		q.dev.device.DestroyFence(s.fence)
		q.dev.device.FreeCommandBuffer(s.native)
	}
	q.completed.Store(s.serial)
	if s.completion != nil {
		s.completion(s.cmd, status)
	}
}

// Flush retires completed work without blocking.
func (q *Queue) Flush() {
	q.retire()
}

// InFlight returns the number of submissions not yet retired.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}

// WaitIdle blocks until every submission made before the call retires.
func (q *Queue) WaitIdle(ctx context.Context) error {
	return q.waitSerial(ctx, q.submitted.Load())
}

// waitSerial blocks until the submission with the given serial retires.
// The native wait runs without q.mu so Submit is never stalled by it;
// holding retireMu keeps the target fence from being destroyed meanwhile.
func (q *Queue) waitSerial(ctx context.Context, serial uint64) error {
	for {
		q.retire()
		if q.completed.Load() >= serial {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if !q.retireMu.TryLock() {
			// Another goroutine is retiring or waiting.
			time.Sleep(time.Millisecond)
			continue
		}
		fence := q.pendingFence(serial)
		if fence == nil {
			// Retired by another goroutine that has not finished completing it.
			q.retireMu.Unlock()
			runtime.Gosched()
			continue
		}
		_, err := q.dev.device.Wait(fence, 1, waitSlice)
		q.retireMu.Unlock()
		if err != nil {
			return fmt.Errorf("wait for GPU: %w", err)
		}
	}
}

// pendingFence returns the fence of the first in-flight submission at or
// after serial, or nil if there is none.
func (q *Queue) pendingFence(serial uint64) hal.Fence {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, s := range q.inflight {
		if s.serial >= serial {
			return s.fence
		}
	}
	return nil
}

// trackingFence returns a fence for the newest submission.
func (q *Queue) trackingFence() *Fence {
	return &Fence{q: q, serial: q.submitted.Load()}
}

// close waits up to timeout for in-flight work, then fails whatever is left.
func (q *Queue) close(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := q.WaitIdle(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		rendercore.Logger().Warn("halgpu: wait idle on close failed", "error", err)
	}

	q.retireMu.Lock()
	defer q.retireMu.Unlock()
	q.mu.Lock()
	left := q.inflight
	q.inflight = nil
	q.closed = true
	q.mu.Unlock()
	for _, s := range left {
		q.complete(s, rendercore.CommandBufferError)
	}
}

// Fence tracks the submissions made before it was created.
// It implements rendercore.Fence.
type Fence struct {
	q      *Queue
	serial uint64
}

// IsSignaled reports whether the tracked work has retired.
func (f *Fence) IsSignaled() bool {
	f.q.retire()
	return f.q.completed.Load() >= f.serial
}

// Wait blocks until the tracked work retires or ctx is done.
func (f *Fence) Wait(ctx context.Context) error {
	return f.q.waitSerial(ctx, f.serial)
}
