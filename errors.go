package rendercore

import "errors"

// Validation errors returned by resource operations. No operation that
// returns one of these has modified any state.
var (
	// ErrNilSource is returned when a copy names a non-empty range of a nil source.
	ErrNilSource = errors.New("rendercore: nil source with non-zero length")

	// ErrNotHostVisible is returned for host copies into device-private memory.
	ErrNotHostVisible = errors.New("rendercore: buffer is not host visible")

	// ErrOutOfBounds is returned when a write would extend past the end of a buffer.
	ErrOutOfBounds = errors.New("rendercore: range out of bounds")

	// ErrSourceOutOfBounds is returned when a source range exceeds the source slice.
	ErrSourceOutOfBounds = errors.New("rendercore: source range out of bounds")

	// ErrBufferReleased is returned when operating on a buffer whose last reference was dropped.
	ErrBufferReleased = errors.New("rendercore: buffer has been released")

	// ErrInvalidDescriptor is returned when a resource descriptor cannot be satisfied.
	ErrInvalidDescriptor = errors.New("rendercore: invalid descriptor")

	// ErrInvalidTexture is returned for textures that are not fully constructed.
	ErrInvalidTexture = errors.New("rendercore: invalid texture")
)

// Context and submission errors.
var (
	// ErrContextInvalid is returned by every operation of an invalid context.
	ErrContextInvalid = errors.New("rendercore: context is invalid")

	// ErrContextShutdown is returned after Shutdown.
	ErrContextShutdown = errors.New("rendercore: context has been shut down")

	// ErrGPUDisabled is returned when submission is gated off by the GPU-disabled switch.
	ErrGPUDisabled = errors.New("rendercore: GPU access is disabled")

	// ErrCommandBufferSubmitted is returned when a command buffer is submitted twice.
	ErrCommandBufferSubmitted = errors.New("rendercore: command buffer already submitted")

	// ErrInvalidCommandBuffer is returned when submitting an invalid command buffer.
	ErrInvalidCommandBuffer = errors.New("rendercore: invalid command buffer")

	// ErrInvalidCommand is returned when a recorded draw fails validation.
	ErrInvalidCommand = errors.New("rendercore: invalid command")

	// ErrNoBackend is returned when no registered backend can create a context.
	ErrNoBackend = errors.New("rendercore: no backend available")
)

// Presentation errors.
var (
	// ErrSurfaceInvalid is returned when presenting an invalid surface.
	ErrSurfaceInvalid = errors.New("rendercore: surface is invalid")

	// ErrPresentUnsupported is returned by surfaces with no presentation mechanism.
	ErrPresentUnsupported = errors.New("rendercore: surface cannot present")

	// ErrPresentFailed is returned when the window system rejects a frame.
	ErrPresentFailed = errors.New("rendercore: present failed")
)
