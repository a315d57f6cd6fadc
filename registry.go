package rendercore

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ContextFactory creates a context for one backend.
type ContextFactory func(opts ContextOptions) (Context, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[BackendType]ContextFactory)
	// Priority order for backend selection (first available wins).
	backendPriority = []BackendType{BackendMetal, BackendVulkan, BackendGLES}
)

// Register registers a context factory for a backend.
// This is typically called from init() functions in backend packages.
// A later registration for the same backend replaces the earlier one.
func Register(b BackendType, factory ContextFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[b] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(b BackendType) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, b)
}

// Available returns the registered backends in priority order.
func Available() []BackendType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]BackendType, 0, len(factories))
	for _, b := range backendPriority {
		if _, ok := factories[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

// IsRegistered checks if a backend is registered.
func IsRegistered(b BackendType) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[b]
	return ok
}

// NewContext creates a context on the best available backend, or on the
// backend named by WithBackend.
//
// On failure NewContext returns a non-nil invalid context together with
// the error, so callers holding on to the result never see nil.
func NewContext(opts ...ContextOption) (Context, error) {
	o := ResolveContextOptions(opts...)
	log := o.Log()

	candidates := Available()
	if o.HasBackend {
		if !slices.Contains(candidates, o.Backend) {
			err := fmt.Errorf("%w: %s is not registered", ErrNoBackend, o.Backend)
			return NewInvalidContext(o.Backend, o.Flags, err), err
		}
		candidates = []BackendType{o.Backend}
	}
	if len(candidates) == 0 {
		return NewInvalidContext(BackendGLES, o.Flags, ErrNoBackend), ErrNoBackend
	}

	var errs []error
	for _, b := range candidates {
		registryMu.RLock()
		factory := factories[b]
		registryMu.RUnlock()
		if factory == nil {
			continue
		}

		ctx, err := factory(o)
		if err == nil && ctx != nil && ctx.IsValid() {
			log.Info("rendercore: context created", "backend", b, "gpu", ctx.DescribeGPUModel())
			return ctx, nil
		}
		if err == nil {
			err = ErrContextInvalid
		}
		if ctx != nil {
			ctx.Shutdown()
		}
		log.Warn("rendercore: backend unavailable", "backend", b, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", b, err))
	}

	err := fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(errs...))
	return NewInvalidContext(candidates[0], o.Flags, err), err
}

// MustNewContext is like NewContext but panics on failure.
func MustNewContext(opts ...ContextOption) Context {
	ctx, err := NewContext(opts...)
	if err != nil {
		panic(err)
	}
	return ctx
}
