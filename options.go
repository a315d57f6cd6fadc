package rendercore

import (
	"log/slog"

	"github.com/gogpu/gpucontext"
)

// ContextOption configures context creation.
//
// Example:
//
//	ctx, err := rendercore.NewContext(
//	    rendercore.WithBackend(rendercore.BackendVulkan),
//	    rendercore.WithFlags(rendercore.FlagValidation),
//	)
type ContextOption func(*ContextOptions)

// ContextOptions is the resolved option set handed to backend factories.
type ContextOptions struct {
	// Backend restricts creation to one backend when HasBackend is set.
	Backend    BackendType
	HasBackend bool

	Flags Flags

	// Logger overrides the package logger for this context.
	Logger *slog.Logger

	// MemoryBudget caps allocator usage in bytes. Zero selects the default.
	MemoryBudget uint64

	// FramesInFlight bounds swapchain images acquired but not yet retired.
	FramesInFlight int

	// Provider shares a device owned by the host application.
	Provider gpucontext.DeviceProvider

	Label string
}

// Default option values.
const (
	DefaultMemoryBudget   = 256 * 1024 * 1024
	DefaultFramesInFlight = 2
)

// DefaultContextOptions returns the options used when none are given.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		MemoryBudget:   DefaultMemoryBudget,
		FramesInFlight: DefaultFramesInFlight,
		Label:          "rendercore",
	}
}

// ResolveContextOptions applies opts over the defaults.
func ResolveContextOptions(opts ...ContextOption) ContextOptions {
	o := DefaultContextOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Log returns the logger a context built from o should use.
func (o ContextOptions) Log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return Logger()
}

// WithBackend selects a backend instead of priority order.
func WithBackend(b BackendType) ContextOption {
	return func(o *ContextOptions) {
		o.Backend = b
		o.HasBackend = true
	}
}

// WithFlags sets the immutable context flags.
func WithFlags(f Flags) ContextOption {
	return func(o *ContextOptions) {
		o.Flags = f
	}
}

// WithLogger gives the context its own logger.
func WithLogger(l *slog.Logger) ContextOption {
	return func(o *ContextOptions) {
		o.Logger = l
	}
}

// WithMemoryBudget caps allocator usage. Values of zero keep the default.
func WithMemoryBudget(bytes uint64) ContextOption {
	return func(o *ContextOptions) {
		if bytes > 0 {
			o.MemoryBudget = bytes
		}
	}
}

// WithFramesInFlight bounds the number of swapchain images in flight.
func WithFramesInFlight(n int) ContextOption {
	return func(o *ContextOptions) {
		if n > 0 {
			o.FramesInFlight = n
		}
	}
}

// WithDeviceProvider builds the context on a device owned by the host.
// The provider must also expose HalDevice() and HalQueue().
func WithDeviceProvider(p gpucontext.DeviceProvider) ContextOption {
	return func(o *ContextOptions) {
		o.Provider = p
	}
}

// WithLabel sets the debug label prefix for native objects.
func WithLabel(label string) ContextOption {
	return func(o *ContextOptions) {
		o.Label = label
	}
}
