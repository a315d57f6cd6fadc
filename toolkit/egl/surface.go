package egl

import (
	"sync/atomic"

	"github.com/gogpu/rendercore"
)

// Surface owns an EGL window or pbuffer surface.
type Surface struct {
	display  *Display
	handle   uintptr
	released atomic.Bool
}

// Handle returns the native surface.
func (s *Surface) Handle() uintptr { return s.handle }

// IsValid reports whether the surface has not been closed.
func (s *Surface) IsValid() bool { return s != nil && s.handle != 0 && !s.released.Load() }

// Close destroys the native surface once. Failures are logged.
func (s *Surface) Close() {
	if s.released.Swap(true) {
		return
	}
	if !s.display.api.DestroySurface(s.display.handle, s.handle) {
		rendercore.Logger().Warn("egl: destroy surface failed",
			"error", lastError(s.display.api, "eglDestroySurface"))
	}
}

// Present swaps the surface's buffers. A failure is logged and returned;
// the caller decides whether to retry on the next frame.
func (s *Surface) Present() error {
	if !s.IsValid() {
		return ErrSurfaceReleased
	}
	if !s.display.api.SwapBuffers(s.display.handle, s.handle) {
		err := lastError(s.display.api, "eglSwapBuffers")
		rendercore.Logger().Warn("egl: swap buffers failed", "error", err)
		return err
	}
	return nil
}
