package rendercore

import "context"

// CompletionCallback is invoked once per submitted command buffer when it
// retires or fails.
type CompletionCallback func(cmd CommandBuffer, status CommandBufferStatus)

// CommandQueue accepts batches of command buffers. Buffers submitted to the
// same queue execute in submission order. Submit does not wait for the GPU.
type CommandQueue interface {
	Submit(buffers []CommandBuffer, completion CompletionCallback) error
}

// IdleWaiter blocks until all previously submitted GPU work has retired.
type IdleWaiter interface {
	WaitIdle(ctx context.Context) error
}

// Fence tracks completion of a single submission.
type Fence interface {
	IsSignaled() bool
	Wait(ctx context.Context) error
}
