package vulkan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gogpu/rendercore"
)

// Swapchain errors.
var (
	// ErrNoWindowSurface is returned for a nil window or before one is bound.
	ErrNoWindowSurface = errors.New("vulkan: no window surface")

	// ErrSurfaceLost is returned when the window's native handle is gone.
	ErrSurfaceLost = errors.New("vulkan: window surface lost")

	// ErrInvalidSize is returned for an empty or oversized swapchain extent.
	ErrInvalidSize = errors.New("vulkan: invalid swapchain size")
)

// WindowSurface is the embedder's native window. Handle returns zero once
// the window is gone. Present publishes a rendered swapchain image.
type WindowSurface interface {
	Handle() uintptr
	Present(image *rendercore.Texture) error
}

// minSwapchainImages is the smallest ring that lets one image be presented
// while the next is rendered.
const minSwapchainImages = 2

// teardownTimeout bounds the GPU wait when a swapchain is torn down.
const teardownTimeout = 5 * time.Second

// Swapchain is a ring of presentable images for one window at one size.
// It is immutable: a resize builds a new swapchain.
type Swapchain struct {
	ctx  *Context
	ws   WindowSurface
	size rendercore.ISize

	// frames bounds surfaces acquired but not yet presented or discarded.
	frames *semaphore.Weighted

	mu      sync.Mutex
	images  []*rendercore.Texture
	stencil *rendercore.Texture
	next    int
	torn    atomic.Bool
}

func newSwapchain(ctx *Context, ws WindowSurface, size rendercore.ISize) (*Swapchain, error) {
	frames := ctx.Options().FramesInFlight
	if frames <= 0 {
		frames = rendercore.DefaultFramesInFlight
	}
	sc := &Swapchain{
		ctx:    ctx,
		ws:     ws,
		size:   size,
		frames: semaphore.NewWeighted(int64(frames)),
	}

	caps := ctx.Capabilities()
	alloc := ctx.ResourceAllocator()
	count := max(frames+1, minSwapchainImages)
	for i := range count {
		img, err := alloc.CreateTexture(rendercore.TextureDescriptor{
			Label:  fmt.Sprintf("swapchain_image_%d", i),
			Size:   size,
			Format: caps.DefaultColorFormat,
			Usage:  rendercore.TextureUsageRenderTarget | rendercore.TextureUsageShaderRead,
		})
		if err != nil {
			sc.release()
			return nil, fmt.Errorf("create swapchain image %d: %w", i, err)
		}
		sc.images = append(sc.images, img)
	}

	stencil, err := alloc.CreateTexture(rendercore.TextureDescriptor{
		Label:       "swapchain_stencil",
		Size:        size,
		Format:      caps.DefaultStencilFormat,
		Usage:       rendercore.TextureUsageRenderTarget,
		StorageMode: rendercore.StorageDeviceTransient,
	})
	if err != nil {
		sc.release()
		return nil, fmt.Errorf("create swapchain stencil: %w", err)
	}
	sc.stencil = stencil
	return sc, nil
}

// Size returns the image extent.
func (sc *Swapchain) Size() rendercore.ISize { return sc.size }

// ImageCount returns the number of images in the ring.
func (sc *Swapchain) ImageCount() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.images)
}

// TornDown reports whether the swapchain has been torn down.
func (sc *Swapchain) TornDown() bool { return sc.torn.Load() }

// tryAcquire returns the next surface, or nil when every frame slot is in
// use or the next image is still being read by the GPU.
func (sc *Swapchain) tryAcquire() *Surface {
	if sc.torn.Load() || !sc.frames.TryAcquire(1) {
		return nil
	}
	s := sc.take(func(f rendercore.Fence) bool { return f.IsSignaled() })
	if s == nil {
		sc.frames.Release(1)
	}
	return s
}

// acquire blocks until a frame slot and its image are free.
func (sc *Swapchain) acquire(ctx context.Context) (*Surface, error) {
	if sc.torn.Load() {
		return nil, rendercore.ErrSurfaceInvalid
	}
	if err := sc.frames.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var waitErr error
	s := sc.take(func(f rendercore.Fence) bool {
		waitErr = f.Wait(ctx)
		return waitErr == nil
	})
	if s == nil {
		sc.frames.Release(1)
		if waitErr != nil {
			return nil, waitErr
		}
		return nil, rendercore.ErrSurfaceInvalid
	}
	return s, nil
}

// take hands out the next image in the ring once ready reports that its
// last presentation retired.
func (sc *Swapchain) take(ready func(rendercore.Fence) bool) *Surface {
	sc.mu.Lock()
	if sc.torn.Load() || len(sc.images) == 0 {
		sc.mu.Unlock()
		return nil
	}
	idx := sc.next
	img := sc.images[idx]
	sc.mu.Unlock()

	if f := img.Fence(); f != nil && !ready(f) {
		return nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.torn.Load() {
		return nil
	}
	sc.next = (idx + 1) % len(sc.images)

	var target rendercore.RenderTarget
	target.SetColorAttachment(rendercore.ColorAttachment{
		Texture:     img,
		LoadAction:  rendercore.LoadActionClear,
		StoreAction: rendercore.StoreActionStore,
	}, 0)
	target.SetStencilAttachment(rendercore.StencilAttachment{
		Texture:     sc.stencil,
		LoadAction:  rendercore.LoadActionClear,
		StoreAction: rendercore.StoreActionDontCare,
	})
	return &Surface{SurfaceBase: rendercore.NewSurfaceBase(target), sc: sc, image: img, index: idx}
}

// teardown invalidates the swapchain and every surface acquired from it,
// waits for the GPU and releases the images. It is idempotent.
func (sc *Swapchain) teardown() {
	if sc.torn.Swap(true) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := rendercore.WaitIdle(ctx, sc.ctx); err != nil {
		sc.ctx.Log().Warn("vulkan: wait idle during swapchain teardown failed", "error", err)
	}
	sc.release()
	sc.ctx.Log().Info("vulkan: swapchain torn down", "size", sc.size)
}

func (sc *Swapchain) release() {
	sc.mu.Lock()
	images, stencil := sc.images, sc.stencil
	sc.images, sc.stencil = nil, nil
	sc.mu.Unlock()
	for _, img := range images {
		img.Release()
	}
	if stencil != nil {
		stencil.Release()
	}
}
