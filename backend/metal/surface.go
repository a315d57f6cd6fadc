package metal

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/rendercore"
)

var (
	// ErrNoLayer is returned by NextSurface for a nil layer.
	ErrNoLayer = errors.New("metal: no layer")

	// ErrLayerLost is returned when the layer no longer has a native handle.
	ErrLayerLost = errors.New("metal: layer lost")
)

// Layer is a CAMetalLayer owned by the embedder.
type Layer interface {
	// Handle returns the native layer, or zero once it is gone.
	Handle() uintptr

	// Present shows drawable on the layer.
	Present(drawable *rendercore.Texture) error
}

// Surface is one layer drawable.
type Surface struct {
	rendercore.SurfaceBase

	ctx      *Context
	layer    Layer
	drawable *rendercore.Texture
	done     atomic.Bool
}

var _ rendercore.Surface = (*Surface)(nil)

// NextSurface allocates a drawable of size for layer.
func (c *Context) NextSurface(layer Layer, size rendercore.ISize) (*Surface, error) {
	if layer == nil {
		return nil, ErrNoLayer
	}
	if layer.Handle() == 0 {
		return nil, ErrLayerLost
	}
	drawable, err := c.ResourceAllocator().CreateTexture(rendercore.TextureDescriptor{
		Label:       "drawable",
		Size:        size,
		Format:      c.Capabilities().DefaultColorFormat,
		Usage:       rendercore.TextureUsageRenderTarget | rendercore.TextureUsageShaderRead,
		StorageMode: rendercore.StorageDevicePrivate,
	})
	if err != nil {
		return nil, fmt.Errorf("metal: drawable: %w", err)
	}

	var rt rendercore.RenderTarget
	rt.SetColorAttachment(rendercore.ColorAttachment{
		Texture:     drawable,
		LoadAction:  rendercore.LoadActionClear,
		StoreAction: rendercore.StoreActionStore,
	}, 0)
	return &Surface{
		SurfaceBase: rendercore.NewSurfaceBase(rt),
		ctx:         c,
		layer:       layer,
		drawable:    drawable,
	}, nil
}

// Drawable returns the texture backing the surface.
func (s *Surface) Drawable() *rendercore.Texture { return s.drawable }

// IsValid reports whether the drawable can still be drawn to and presented.
func (s *Surface) IsValid() bool {
	return s.SurfaceBase.IsValid() && !s.done.Load() && s.layer.Handle() != 0
}

// Present hands the drawable to the layer once work encoded so far has
// been flushed. The surface is spent afterwards whatever the outcome.
func (s *Surface) Present() error {
	valid := s.IsValid()
	if s.done.Swap(true) {
		return fmt.Errorf("%w: drawable already presented", rendercore.ErrSurfaceInvalid)
	}
	defer s.drawable.Release()
	if !valid {
		return rendercore.ErrSurfaceInvalid
	}
	if err := s.ctx.FlushCommandBuffers(); err != nil {
		s.ctx.Log().Warn("metal: flush before present failed", "error", err)
	}
	s.ctx.AddTrackingFence(s.drawable)
	if err := s.layer.Present(s.drawable); err != nil {
		s.ctx.Log().Warn("metal: present failed", "error", err)
		return fmt.Errorf("%w: %w", rendercore.ErrPresentFailed, err)
	}
	return nil
}

// Discard drops the drawable without presenting it.
func (s *Surface) Discard() {
	if !s.done.Swap(true) {
		s.drawable.Release()
	}
}
