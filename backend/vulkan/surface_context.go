package vulkan

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogpu/rendercore"
)

// SurfaceContext owns the swapchain of one window on top of a Context.
// Swapchains are torn down and rebuilt independently of the device.
type SurfaceContext struct {
	*Context

	mu        sync.Mutex
	ws        WindowSurface
	swapchain *Swapchain
}

// NewSurfaceContext wraps parent. The parent keeps owning the device.
func NewSurfaceContext(parent *Context) *SurfaceContext {
	return &SurfaceContext{Context: parent}
}

// SetWindowSurface binds ws and builds a swapchain of the given size,
// replacing any previous one. It fails for a nil or lost window, an empty
// or oversized extent, or when the images cannot be allocated.
func (c *SurfaceContext) SetWindowSurface(ws WindowSurface, size rendercore.ISize) error {
	if ws == nil {
		return ErrNoWindowSurface
	}
	if ws.Handle() == 0 {
		return ErrSurfaceLost
	}
	if !c.IsValid() {
		return rendercore.ErrContextShutdown
	}
	if limit := c.Capabilities().MaxTextureSize; size.IsEmpty() || size.Width > limit.Width || size.Height > limit.Height {
		return fmt.Errorf("%w: %s", ErrInvalidSize, size)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.swapchain != nil {
		c.swapchain.teardown()
		c.swapchain = nil
	}
	sc, err := newSwapchain(c.Context, ws, size)
	if err != nil {
		c.Log().Warn("vulkan: swapchain creation failed", "size", size, "error", err)
		return err
	}
	c.ws = ws
	c.swapchain = sc
	c.Log().Info("vulkan: swapchain built", "size", size, "images", sc.ImageCount())
	return nil
}

// UpdateSurfaceSize rebuilds the swapchain for the bound window at size.
func (c *SurfaceContext) UpdateSurfaceSize(size rendercore.ISize) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return ErrNoWindowSurface
	}
	return c.SetWindowSurface(ws, size)
}

// Swapchain returns the current swapchain, or nil.
func (c *SurfaceContext) Swapchain() *Swapchain {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.swapchain
}

// AcquireNextSurface returns the next swapchain image as a surface. It
// returns nil when no swapchain is bound, after teardown, or when no
// image is free; it never blocks.
func (c *SurfaceContext) AcquireNextSurface() *Surface {
	sc := c.Swapchain()
	if sc == nil {
		return nil
	}
	return sc.tryAcquire()
}

// AcquireNextSurfaceContext is like AcquireNextSurface but waits for a free
// image until ctx is done.
func (c *SurfaceContext) AcquireNextSurfaceContext(ctx context.Context) (*Surface, error) {
	sc := c.Swapchain()
	if sc == nil {
		return nil, ErrNoWindowSurface
	}
	return sc.acquire(ctx)
}

// TeardownSwapchain invalidates the swapchain and every surface acquired
// from it. The window stays bound so UpdateSurfaceSize can rebuild. It is
// idempotent.
func (c *SurfaceContext) TeardownSwapchain() {
	c.mu.Lock()
	sc := c.swapchain
	c.swapchain = nil
	c.mu.Unlock()
	if sc != nil {
		sc.teardown()
	}
}

// Shutdown tears down the swapchain and shuts the parent context down.
func (c *SurfaceContext) Shutdown() {
	c.TeardownSwapchain()
	c.Context.Shutdown()
}
