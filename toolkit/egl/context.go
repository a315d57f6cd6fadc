package egl

import (
	"sync"

	"github.com/gogpu/rendercore"
)

// Context owns an EGL rendering context. A context is current on at most
// one thread at a time; callers lock the OS thread around its use.
type Context struct {
	display *Display
	config  *Config
	handle  uintptr

	mu       sync.Mutex
	current  *Surface
	thread   int
	released bool
}

// Handle returns the native context.
func (c *Context) Handle() uintptr { return c.handle }

// Config returns the config the context was created with.
func (c *Context) Config() *Config { return c.config }

// IsValid reports whether the context has not been closed.
func (c *Context) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.released
}

// MakeCurrent binds the context and surface to the calling thread.
// A nil surface binds without a default framebuffer.
func (c *Context) MakeCurrent(s *Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return ErrContextReleased
	}
	var draw uintptr
	if s != nil {
		if !s.IsValid() {
			return ErrSurfaceReleased
		}
		draw = s.handle
	}
	if !c.display.api.MakeCurrent(c.display.handle, draw, draw, c.handle) {
		err := lastError(c.display.api, "eglMakeCurrent")
		rendercore.Logger().Warn("egl: make current failed", "error", err)
		return err
	}
	c.current = s
	c.thread = currentThreadID()
	return nil
}

// ClearCurrent unbinds any context from the calling thread.
func (c *Context) ClearCurrent() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.display.api.MakeCurrent(c.display.handle, 0, 0, 0) {
		err := lastError(c.display.api, "eglMakeCurrent")
		rendercore.Logger().Warn("egl: clear current failed", "error", err)
		return err
	}
	c.current = nil
	c.thread = 0
	return nil
}

// IsCurrent reports whether the context was last made current on the
// calling thread and has not been cleared since. It always reports false
// where thread ids are unavailable.
func (c *Context) IsCurrent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thread != 0 && c.thread == currentThreadID()
}

// CurrentSurface returns the surface bound by the last MakeCurrent.
func (c *Context) CurrentSurface() *Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Close destroys the native context once. Failures are logged.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	if !c.display.api.DestroyContext(c.display.handle, c.handle) {
		rendercore.Logger().Warn("egl: destroy context failed",
			"error", lastError(c.display.api, "eglDestroyContext"))
	}
}
