package gles

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/rendercore/internal/halgpu"
	"github.com/gogpu/wgpu/hal"
)

// SwapCallback publishes the current frame to the window system and
// reports whether it was accepted.
type SwapCallback func() bool

// Framebuffer is a framebuffer object owned by the embedder.
type Framebuffer struct {
	// FBO is the GL framebuffer name. Zero is the default framebuffer.
	FBO    uint32
	Size   rendercore.ISize
	Format gputypes.TextureFormat

	// Texture and View are the HAL objects rendering into the FBO.
	Texture hal.Texture
	View    hal.TextureView
}

// Surface draws into an embedder framebuffer and presents through a swap
// callback. It never owns the framebuffer.
type Surface struct {
	rendercore.SurfaceBase

	ctx   *Context
	fbo   uint32
	swap  SwapCallback
	color *rendercore.Texture

	releaseOnce sync.Once
}

var _ rendercore.Surface = (*Surface)(nil)

// NewSurface wraps fb. The surface is invalid when fb cannot back a color
// attachment; Present then fails.
func (c *Context) NewSurface(fb Framebuffer, swap SwapCallback) *Surface {
	s := &Surface{ctx: c, fbo: fb.FBO, swap: swap}
	format := fb.Format
	if format == gputypes.TextureFormatUndefined {
		format = c.Capabilities().DefaultColorFormat
	}
	color, err := halgpu.WrapExternalTexture(c.Device(), rendercore.TextureDescriptor{
		Label:       fmt.Sprintf("fbo_%d", fb.FBO),
		Size:        fb.Size,
		Format:      format,
		Usage:       rendercore.TextureUsageRenderTarget,
		StorageMode: rendercore.StorageDevicePrivate,
	}, fb.Texture, fb.View)
	if err != nil {
		c.Log().Warn("gles: framebuffer not usable", "fbo", fb.FBO, "error", err)
		s.SurfaceBase = rendercore.NewSurfaceBase(rendercore.RenderTarget{})
		return s
	}
	s.color = color

	var rt rendercore.RenderTarget
	rt.SetColorAttachment(rendercore.ColorAttachment{
		Texture:     color,
		LoadAction:  rendercore.LoadActionClear,
		StoreAction: rendercore.StoreActionStore,
	}, 0)
	s.SurfaceBase = rendercore.NewSurfaceBase(rt)
	return s
}

// FBO returns the wrapped framebuffer name.
func (s *Surface) FBO() uint32 { return s.fbo }

// IsValid reports whether the surface can still be drawn to and presented.
func (s *Surface) IsValid() bool {
	return s.SurfaceBase.IsValid() && s.color.IsValid()
}

// Present flushes pending work and calls the swap callback.
func (s *Surface) Present() error {
	if !s.IsValid() {
		return rendercore.ErrSurfaceInvalid
	}
	if s.swap == nil {
		return rendercore.ErrPresentUnsupported
	}
	if err := s.ctx.FlushCommandBuffers(); err != nil {
		s.ctx.Log().Warn("gles: flush before present failed", "error", err)
	}
	if !s.swap() {
		s.ctx.Log().Warn("gles: swap callback rejected frame", "fbo", s.fbo)
		return fmt.Errorf("%w: swap callback failed for fbo %d", rendercore.ErrPresentFailed, s.fbo)
	}
	return nil
}

// Release drops the surface's reference on the wrapped framebuffer.
func (s *Surface) Release() {
	s.releaseOnce.Do(func() {
		if s.color != nil {
			s.color.Release()
		}
	})
}
