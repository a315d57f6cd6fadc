package rendercore

import "fmt"

// invalidContext is what context construction returns on failure. Every
// operation fails with ErrContextInvalid or does nothing.
type invalidContext struct {
	backend BackendType
	flags   Flags
	cause   error
	library *ShaderLibrary
	gate    *SyncSwitch
}

// NewInvalidContext returns a non-nil context that records why construction
// failed. Callers check IsValid once instead of guarding every call.
func NewInvalidContext(backend BackendType, flags Flags, cause error) Context {
	return &invalidContext{
		backend: backend,
		flags:   flags,
		cause:   cause,
		library: NewShaderLibrary(nil),
		gate:    NewSyncSwitch(false),
	}
}

func (c *invalidContext) err() error {
	if c.cause == nil {
		return ErrContextInvalid
	}
	return fmt.Errorf("%w: %w", ErrContextInvalid, c.cause)
}

func (c *invalidContext) BackendType() BackendType                 { return c.backend }
func (c *invalidContext) Flags() Flags                             { return c.flags }
func (c *invalidContext) IsValid() bool                            { return false }
func (c *invalidContext) Capabilities() Capabilities               { return Capabilities{} }
func (c *invalidContext) ResourceAllocator() Allocator             { return invalidAllocator{c} }
func (c *invalidContext) ShaderLibrary() *ShaderLibrary            { return c.library }
func (c *invalidContext) CommandQueue() CommandQueue               { return invalidQueue{c} }
func (c *invalidContext) IdleWaiter() IdleWaiter                   { return nil }
func (c *invalidContext) ResetThreadLocalState()                   {}
func (c *invalidContext) AddTrackingFence(*Texture) bool           { return false }
func (c *invalidContext) GPUDisabledSwitch() *SyncSwitch           { return c.gate }
func (c *invalidContext) FlushCommandBuffers() error               { return c.err() }
func (c *invalidContext) Shutdown()                                {}
func (c *invalidContext) EnqueueCommandBuffer(CommandBuffer) error { return c.err() }
func (c *invalidContext) SubmitOnscreen(CommandBuffer) error       { return c.err() }

func (c *invalidContext) DescribeGPUModel() string {
	return "invalid " + c.backend.String() + " context"
}

func (c *invalidContext) CreateCommandBuffer() (CommandBuffer, error) {
	return nil, c.err()
}

func (c *invalidContext) CreatePipeline(PipelineDescriptor) (Pipeline, error) {
	return nil, c.err()
}

// Cause returns the construction error.
func (c *invalidContext) Cause() error { return c.cause }

type invalidAllocator struct{ c *invalidContext }

func (a invalidAllocator) CreateBuffer(DeviceBufferDescriptor) (*DeviceBuffer, error) {
	return nil, a.c.err()
}

func (a invalidAllocator) CreateTexture(TextureDescriptor) (*Texture, error) {
	return nil, a.c.err()
}

func (a invalidAllocator) MaxTextureSize() ISize { return ISize{} }
func (a invalidAllocator) Stats() MemoryStats    { return MemoryStats{} }

type invalidQueue struct{ c *invalidContext }

func (q invalidQueue) Submit([]CommandBuffer, CompletionCallback) error { return q.c.err() }
