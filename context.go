package rendercore

import "context"

// Context is one GPU device session: it owns the command queue, the
// resource allocator and the idle waiter. Surfaces and textures created
// from a context never own it.
type Context interface {
	BackendType() BackendType
	Flags() Flags

	// IsValid reports whether construction succeeded. An invalid context
	// fails or ignores every operation.
	IsValid() bool

	DescribeGPUModel() string
	Capabilities() Capabilities
	ResourceAllocator() Allocator
	ShaderLibrary() *ShaderLibrary
	CommandQueue() CommandQueue

	CreateCommandBuffer() (CommandBuffer, error)
	CreatePipeline(desc PipelineDescriptor) (Pipeline, error)

	// EnqueueCommandBuffer submits cmd as a one-element batch.
	EnqueueCommandBuffer(cmd CommandBuffer) error

	// SubmitOnscreen submits the command buffer that renders the frame
	// about to be presented.
	SubmitOnscreen(cmd CommandBuffer) error

	// FlushCommandBuffers pushes any batched submissions to the GPU.
	FlushCommandBuffers() error

	// IdleWaiter returns nil when there is never anything to wait for.
	IdleWaiter() IdleWaiter

	// ResetThreadLocalState drops the calling thread's native API binding.
	ResetThreadLocalState()

	// AddTrackingFence attaches a fence to tex that signals when work
	// submitted so far retires. It returns false when unsupported.
	AddTrackingFence(tex *Texture) bool

	// GPUDisabledSwitch gates submission. While it is true every submit
	// fails with ErrGPUDisabled.
	GPUDisabledSwitch() *SyncSwitch

	// Shutdown waits for the GPU and releases the device.
	Shutdown()
}

// ContextBase carries the default behavior shared by every backend.
// Backends embed it and override what their native API needs.
type ContextBase struct {
	backend     BackendType
	flags       Flags
	queue       CommandQueue
	gpuDisabled *SyncSwitch
}

// NewContextBase returns the shared half of a backend context.
func NewContextBase(backend BackendType, flags Flags, queue CommandQueue, gpuDisabled *SyncSwitch) ContextBase {
	if gpuDisabled == nil {
		gpuDisabled = NewSyncSwitch(false)
	}
	return ContextBase{backend: backend, flags: flags, queue: queue, gpuDisabled: gpuDisabled}
}

// BackendType returns the backend.
func (c *ContextBase) BackendType() BackendType { return c.backend }

// Flags returns the creation flags.
func (c *ContextBase) Flags() Flags { return c.flags }

// CommandQueue returns the submission queue.
func (c *ContextBase) CommandQueue() CommandQueue { return c.queue }

// GPUDisabledSwitch returns the submission gate.
func (c *ContextBase) GPUDisabledSwitch() *SyncSwitch { return c.gpuDisabled }

// EnqueueCommandBuffer submits cmd to the queue as a one-element batch.
func (c *ContextBase) EnqueueCommandBuffer(cmd CommandBuffer) error {
	if c.queue == nil {
		return ErrContextInvalid
	}
	return c.queue.Submit([]CommandBuffer{cmd}, nil)
}

// SubmitOnscreen forwards to EnqueueCommandBuffer.
func (c *ContextBase) SubmitOnscreen(cmd CommandBuffer) error {
	return c.EnqueueCommandBuffer(cmd)
}

// FlushCommandBuffers does nothing; submissions are never batched.
func (c *ContextBase) FlushCommandBuffers() error { return nil }

// IdleWaiter returns nil.
func (c *ContextBase) IdleWaiter() IdleWaiter { return nil }

// ResetThreadLocalState does nothing.
func (c *ContextBase) ResetThreadLocalState() {}

// AddTrackingFence returns false.
func (c *ContextBase) AddTrackingFence(*Texture) bool { return false }

// WaitIdle blocks until c has no GPU work in flight or ctx is done.
// Contexts without an idle waiter return immediately.
func WaitIdle(ctx context.Context, c Context) error {
	w := c.IdleWaiter()
	if w == nil {
		return nil
	}
	return w.WaitIdle(ctx)
}
